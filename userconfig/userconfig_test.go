package userconfig

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func read(t *testing.T, name string) (*Config, error) {
	t.Helper()
	c := New(filepath.Join("testdata", name+".conf"))
	return c, c.Read()
}

func TestReadValid(t *testing.T) {
	tests := []struct {
		name string
		want map[string]any
	}{
		{"empty_file", map[string]any{}},
		{"no_default_section", map[string]any{}},
		{"missing_file", map[string]any{}},
		{"circuit_drawer_valid", map[string]any{"circuit_drawer": "latex"}},
		{"optimization_level_valid", map[string]any{"transpile_optimization_level": 1}},
		{"valid_num_processes", map[string]any{"num_processes": 31}},
		{"valid_parallel", map[string]any{"parallel_enabled": false}},
		{"all_options_valid", map[string]any{
			"circuit_drawer":               "latex",
			"circuit_mpl_style":            "default",
			"circuit_mpl_style_path":       []string{"~", "~/.qiskit"},
			"transpile_optimization_level": 3,
			"num_processes":                15,
			"parallel_enabled":             false,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := read(t, tt.name)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got := c.Settings.Map(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("settings = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"invalid_optimization_level", "transpile_optimization_level"},
		{"non_integer_optimization_level", "transpile_optimization_level"},
		{"invalid_circuit_drawer", "circuit_drawer"},
		{"invalid_num_processes", "num_processes"},
		{"invalid_parallel", "parallel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := read(t, tt.name)
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cfgErr.Key != tt.key {
				t.Errorf("error key = %q, want %q", cfgErr.Key, tt.key)
			}
			if len(c.Settings.Map()) != 0 {
				t.Errorf("failed read should leave settings empty, got %v", c.Settings.Map())
			}
		})
	}
}

func TestUnknownMPLStyleWarns(t *testing.T) {
	var buf bytes.Buffer
	c := New(filepath.Join("testdata", "unknown_mpl_style.conf"))
	c.Logger = log.New(&buf)
	if err := c.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := *c.Settings.CircuitMPLStyle; got != "neon" {
		t.Errorf("circuit_mpl_style = %q, want neon", got)
	}
	if !strings.Contains(buf.String(), "circuit_mpl_style") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/custom.conf")
	if got := DefaultPath(); got != "/tmp/custom.conf" {
		t.Errorf("DefaultPath() = %q with %s set", got, EnvPath)
	}

	t.Setenv(EnvPath, "")
	t.Setenv("HOME", "/home/someone")
	if got, want := DefaultPath(), filepath.Join("/home/someone", ".qphase", "settings.conf"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
