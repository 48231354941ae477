// Command qpe estimates the eigenphase of a unitary given as OpenQASM 2.0.
//
//	qpe --unitary u.qasm --state-prep prep.qasm --eval-qubits 4
//	qpe --circuit qpe.qasm --num-unitary-qubits 1 --backend sampler --shots 4096
//
// Every flag can also be set through the environment as QPE_<FLAG>, with
// dashes replaced by underscores. Defaults for the optimisation level and the
// sampler's parallelism come from the user settings file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jorconnor/qphase/archive"
	"github.com/jorconnor/qphase/circuit"
	"github.com/jorconnor/qphase/phase"
	"github.com/jorconnor/qphase/sim"
	"github.com/jorconnor/qphase/userconfig"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Error("qpe failed", "err", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("qpe", pflag.ContinueOnError)
	fs.String("unitary", "", "QASM file holding the unitary")
	fs.String("state-prep", "", "QASM file preparing the unitary register (with --unitary)")
	fs.String("circuit", "", "QASM file holding a complete estimation circuit")
	fs.Int("num-unitary-qubits", 1, "width of the unitary register (with --circuit)")
	fs.IntP("eval-qubits", "m", 3, "number of evaluation qubits")
	fs.StringP("backend", "b", "statevector", "backend: statevector or sampler")
	fs.Int("shots", sim.DefaultShots, "number of shots (sampler)")
	fs.Uint64("seed", 0, "sampler seed")
	fs.Int("workers", 1, "sampler goroutines; defaults to the settings file")
	fs.Int("optimization-level", 0, "transpiler optimisation level 0-3; defaults to the settings file")
	fs.String("settings", "", "settings file (default $"+userconfig.EnvPath+" or ~/.qphase/settings.conf)")
	fs.Float64("cutoff", 0.001, "hide phases with frequency at or below this value")
	fs.Bool("draw", false, "print the estimation circuit")
	fs.Bool("json", false, "print the result as JSON")
	fs.String("archive", "", "append the result to this archive file")
	fs.BoolP("interactive", "i", false, "browse the histogram interactively")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	return fs
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix("QPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	logger := log.NewWithOptions(stderr, log.Options{Prefix: "qpe", ReportTimestamp: true})
	level, err := log.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger.SetLevel(level)

	drawer, err := applySettings(v, logger)
	if err != nil {
		return err
	}

	backend, err := newBackend(v)
	if err != nil {
		return err
	}
	in, err := loadInput(v)
	if err != nil {
		return err
	}
	est, err := phase.New(v.GetInt("eval-qubits"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := phase.RunConfig{
		Backend:   backend,
		Logger:    logger,
		Transpile: circuit.TranspileOptions{OptimizationLevel: v.GetInt("optimization-level")},
	}
	res, err := est.Estimate(ctx, cfg, in)
	if err != nil {
		return err
	}
	logger.Info("estimated", "backend", backend.Name(), "phase", res.MostLikelyPhase(), "elapsed", res.CircuitResult().Elapsed())

	rec := archive.NewRecord(res)
	if path := v.GetString("archive"); path != "" {
		if err := appendRecord(path, rec); err != nil {
			return err
		}
		logger.Info("archived", "path", path)
	}

	var drawing string
	if v.GetBool("draw") || v.GetBool("interactive") {
		if drawer != "" && drawer != "text" {
			logger.Warn("only the text drawer is available", "circuit_drawer", drawer)
		}
		drawing, err = estimationCircuit(est, backend, in)
		if err != nil {
			return err
		}
	}

	if v.GetBool("json") {
		out, err := archive.JSON(rec)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(out))
		return err
	}

	s := summary{
		backend:         backend.Name(),
		evalQubits:      res.NumEvaluationQubits(),
		mostLikelyPhase: res.MostLikelyPhase(),
	}
	if samples, ok := res.CircuitResult().(*sim.Samples); ok {
		s.shots = samples.Shots
	}
	phases := res.FilterPhases(v.GetFloat64("cutoff"))

	if v.GetBool("interactive") {
		_, err := tea.NewProgram(newBrowser(s, phases, drawing), tea.WithAltScreen()).Run()
		return err
	}
	if v.GetBool("draw") {
		fmt.Fprintln(stdout, drawing)
	}
	_, err = fmt.Fprintln(stdout, renderHistogram(s, phases, 40))
	return err
}

// applySettings reads the settings file and installs its values as viper
// defaults, below flags and environment. It returns the configured drawer.
func applySettings(v *viper.Viper, logger *log.Logger) (string, error) {
	path := v.GetString("settings")
	if path == "" {
		path = userconfig.DefaultPath()
	}
	cfg := userconfig.New(path)
	cfg.Logger = logger
	if err := cfg.Read(); err != nil {
		return "", err
	}
	s := cfg.Settings
	logger.Debug("settings", "path", path, "values", s.Map())

	if s.TranspileOptimizationLevel != nil {
		v.SetDefault("optimization-level", *s.TranspileOptimizationLevel)
	}
	switch {
	case s.ParallelEnabled != nil && !*s.ParallelEnabled:
		v.SetDefault("workers", 1)
	case s.NumProcesses != nil:
		v.SetDefault("workers", *s.NumProcesses)
	case s.ParallelEnabled != nil:
		v.SetDefault("workers", runtime.NumCPU())
	}
	if s.CircuitDrawer != nil {
		return *s.CircuitDrawer, nil
	}
	return "", nil
}

func newBackend(v *viper.Viper) (sim.Backend, error) {
	switch name := v.GetString("backend"); name {
	case "statevector":
		return sim.StatevectorBackend{}, nil
	case "sampler":
		return sim.SamplingBackend{
			Shots:   v.GetInt("shots"),
			Seed:    v.GetUint64("seed"),
			Workers: v.GetInt("workers"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q, want statevector or sampler", name)
	}
}

func loadInput(v *viper.Viper) (phase.Input, error) {
	var in phase.Input
	var err error
	if in.Unitary, err = readCircuit(v.GetString("unitary")); err != nil {
		return in, err
	}
	if in.StatePreparation, err = readCircuit(v.GetString("state-prep")); err != nil {
		return in, err
	}
	if in.Circuit, err = readCircuit(v.GetString("circuit")); err != nil {
		return in, err
	}
	in.NumUnitaryQubits = v.GetInt("num-unitary-qubits")
	return in, nil
}

// readCircuit parses a QASM file. An empty path yields a nil circuit.
func readCircuit(path string) (*circuit.Circuit, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := circuit.ParseQASM(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// estimationCircuit draws the circuit Estimate ran, before transpilation.
func estimationCircuit(est *phase.Estimator, backend sim.Backend, in phase.Input) (string, error) {
	if in.Circuit != nil {
		return in.Circuit.Draw(), nil
	}
	c, err := est.ConstructCircuit(in.Unitary, in.StatePreparation, !backend.IsStatevector())
	if err != nil {
		return "", err
	}
	return c.Draw(), nil
}

func appendRecord(path string, rec archive.Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := archive.NewWriter(f).Write(rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
