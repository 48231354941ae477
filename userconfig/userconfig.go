// Package userconfig reads the per-user settings file.
//
// The file is INI formatted; only the [default] section is read:
//
//	[default]
//	circuit_drawer = text
//	circuit_mpl_style = default
//	circuit_mpl_style_path = ~:~/.qphase
//	transpile_optimization_level = 1
//	num_processes = 4
//	parallel = true
package userconfig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"gopkg.in/ini.v1"
)

// EnvPath overrides the settings file location.
const EnvPath = "QPHASE_SETTINGS_CONF"

const section = "default"

// Drawers lists the accepted circuit_drawer values.
var Drawers = []string{"text", "mpl", "latex", "latex_source", "auto"}

var mplStyles = []string{"default", "bw"}

// Error reports an invalid settings file.
type Error struct {
	Path string
	Key  string
	Msg  string
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Key, e.Msg)
}

// Settings holds the values found in the file. Fields are nil when the key is
// absent.
type Settings struct {
	CircuitDrawer              *string
	CircuitMPLStyle            *string
	CircuitMPLStylePath        []string
	TranspileOptimizationLevel *int
	NumProcesses               *int
	ParallelEnabled            *bool
}

// Map returns the settings that are present, keyed by setting name.
func (s Settings) Map() map[string]any {
	m := make(map[string]any)
	if s.CircuitDrawer != nil {
		m["circuit_drawer"] = *s.CircuitDrawer
	}
	if s.CircuitMPLStyle != nil {
		m["circuit_mpl_style"] = *s.CircuitMPLStyle
	}
	if s.CircuitMPLStylePath != nil {
		m["circuit_mpl_style_path"] = s.CircuitMPLStylePath
	}
	if s.TranspileOptimizationLevel != nil {
		m["transpile_optimization_level"] = *s.TranspileOptimizationLevel
	}
	if s.NumProcesses != nil {
		m["num_processes"] = *s.NumProcesses
	}
	if s.ParallelEnabled != nil {
		m["parallel_enabled"] = *s.ParallelEnabled
	}
	return m
}

// Config is a settings file and the values read from it.
type Config struct {
	Path     string
	Settings Settings
	// Logger receives warnings about unusual values. Defaults to discarding
	// them.
	Logger *log.Logger
}

// New returns a Config for the file at path. Nothing is read until Read is
// called.
func New(path string) *Config {
	return &Config{Path: path}
}

// DefaultPath returns $QPHASE_SETTINGS_CONF, or ~/.qphase/settings.conf when
// it is unset.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".qphase", "settings.conf")
}

// Read loads and validates the file. A missing file or a file without a
// [default] section leaves Settings empty.
func (c *Config) Read() error {
	logger := c.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c.Settings = Settings{}

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true}, c.Path)
	if err != nil {
		return &Error{Path: c.Path, Msg: err.Error()}
	}
	sec, err := f.GetSection(section)
	if err != nil {
		return nil
	}

	var s Settings
	if sec.HasKey("circuit_drawer") {
		v := sec.Key("circuit_drawer").String()
		if !slices.Contains(Drawers, v) {
			return c.errorf("circuit_drawer", "%q is not a valid circuit drawer backend, must be one of %v", v, Drawers)
		}
		s.CircuitDrawer = &v
	}
	if sec.HasKey("circuit_mpl_style") {
		v := sec.Key("circuit_mpl_style").String()
		if !slices.Contains(mplStyles, v) {
			logger.Warn("unrecognised circuit_mpl_style, will look for a style file", "style", v, "path", c.Path)
		}
		s.CircuitMPLStyle = &v
	}
	if sec.HasKey("circuit_mpl_style_path") {
		s.CircuitMPLStylePath = sec.Key("circuit_mpl_style_path").Strings(":")
	}
	if sec.HasKey("transpile_optimization_level") {
		v, err := sec.Key("transpile_optimization_level").Int()
		if err != nil {
			return c.errorf("transpile_optimization_level", "not an integer: %v", err)
		}
		if v < 0 || v > 3 {
			return c.errorf("transpile_optimization_level", "%d is not a valid optimization level, must be 0, 1, 2 or 3", v)
		}
		s.TranspileOptimizationLevel = &v
	}
	if sec.HasKey("num_processes") {
		v, err := sec.Key("num_processes").Int()
		if err != nil {
			return c.errorf("num_processes", "not an integer: %v", err)
		}
		if v <= 0 {
			return c.errorf("num_processes", "%d is not a valid number of processes, must be greater than 0", v)
		}
		s.NumProcesses = &v
	}
	if sec.HasKey("parallel") {
		v, err := sec.Key("parallel").Bool()
		if err != nil {
			return c.errorf("parallel", "not a boolean: %v", err)
		}
		s.ParallelEnabled = &v
	}

	c.Settings = s
	return nil
}

func (c *Config) errorf(key, format string, args ...any) error {
	return &Error{Path: c.Path, Key: key, Msg: fmt.Sprintf(format, args...)}
}
