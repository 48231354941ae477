// Package phase implements quantum phase estimation: it builds the estimation
// circuit, runs it on a backend and turns the result into a phase histogram.
package phase

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/jorconnor/qphase/circuit"
	"github.com/jorconnor/qphase/sim"
)

// MeasurementRegister names the classical register holding the evaluation
// qubits on sampling backends.
const MeasurementRegister = "meas"

// Estimator runs phase estimation with a fixed evaluation register width.
type Estimator struct {
	NumEvaluationQubits int
}

// New returns an Estimator with numEvaluationQubits evaluation qubits.
func New(numEvaluationQubits int) (*Estimator, error) {
	if numEvaluationQubits < 1 {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("need at least one evaluation qubit, got %d", numEvaluationQubits)}
	}
	return &Estimator{NumEvaluationQubits: numEvaluationQubits}, nil
}

// RunConfig is the execution configuration of a single Estimate call.
type RunConfig struct {
	// Backend executes the estimation circuit. Required.
	Backend sim.Backend
	// Logger receives debug output. Defaults to discarding it.
	Logger *log.Logger
	// Transpile is applied to the circuit before it is run. The zero value
	// leaves the circuit untouched.
	Transpile circuit.TranspileOptions
}

// Input selects what to estimate. Exactly one of Unitary and Circuit must be
// set.
type Input struct {
	// Unitary is the operator whose eigenphase is estimated.
	Unitary *circuit.Circuit
	// StatePreparation optionally prepares the unitary register before
	// estimation. Only used with Unitary.
	StatePreparation *circuit.Circuit
	// Circuit is a complete estimation circuit without measurements. Its
	// classical registers are dropped before the evaluation register is
	// measured.
	Circuit *circuit.Circuit
	// NumUnitaryQubits is the width of the unitary register of Circuit.
	// Ignored when Unitary is set.
	NumUnitaryQubits int
}

// ConstructCircuit builds the estimation circuit for unitary. The state
// preparation, if any, runs first on the unitary register. With measure set,
// the evaluation register is measured into MeasurementRegister.
func (e *Estimator) ConstructCircuit(unitary, statePreparation *circuit.Circuit, measure bool) (*circuit.Circuit, error) {
	if unitary == nil {
		return nil, &ConfigurationError{Msg: "no unitary given"}
	}
	m, n := e.NumEvaluationQubits, unitary.NumQubits
	if statePreparation != nil && statePreparation.NumQubits != n {
		return nil, &ConfigurationError{Msg: fmt.Sprintf(
			"state preparation acts on %d qubits, unitary on %d", statePreparation.NumQubits, n)}
	}

	pe, err := circuit.PhaseEstimation(m, unitary)
	if err != nil {
		return nil, err
	}
	if statePreparation != nil {
		qubits := make([]int, n)
		for i := range n {
			qubits[i] = m + i
		}
		if err := pe.Compose(statePreparation, qubits, true); err != nil {
			return nil, fmt.Errorf("state preparation: %w", err)
		}
	}
	if measure {
		if err := e.addMeasurement(pe); err != nil {
			return nil, err
		}
	}
	return pe, nil
}

// addMeasurement measures the evaluation qubits behind a barrier.
func (e *Estimator) addMeasurement(c *circuit.Circuit) error {
	reg, err := c.AddClassicalRegister(MeasurementRegister, e.NumEvaluationQubits)
	if err != nil {
		return err
	}
	c.AddBarrier()
	for j := range e.NumEvaluationQubits {
		c.Measure(j, reg.Offset+j)
	}
	return nil
}

// Estimate runs phase estimation on cfg.Backend.
func (e *Estimator) Estimate(ctx context.Context, cfg RunConfig, in Input) (*Result, error) {
	switch {
	case in.Unitary != nil && in.Circuit != nil:
		return nil, errBothInputs
	case in.Unitary == nil && in.Circuit == nil:
		return nil, errNeitherInputs
	case cfg.Backend == nil:
		return nil, &ConfigurationError{Msg: "no backend configured"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	measure := !cfg.Backend.IsStatevector()
	m := e.NumEvaluationQubits
	var (
		c                *circuit.Circuit
		numUnitaryQubits int
		err              error
	)
	if in.Unitary != nil {
		numUnitaryQubits = in.Unitary.NumQubits
		c, err = e.ConstructCircuit(in.Unitary, in.StatePreparation, measure)
		if err != nil {
			return nil, err
		}
	} else {
		numUnitaryQubits = in.NumUnitaryQubits
		if in.Circuit.NumQubits != m+numUnitaryQubits {
			return nil, &ConfigurationError{Msg: fmt.Sprintf(
				"`pe_circuit` has %d qubits, expected %d evaluation + %d unitary",
				in.Circuit.NumQubits, m, numUnitaryQubits)}
		}
		if in.Circuit.HasMeasurements() {
			return nil, &ConfigurationError{Msg: "`pe_circuit` must not contain measurements"}
		}
		c = in.Circuit.Clone()
		// Unused classical bits would widen every sampled key.
		c.Cregs, c.NumClbits = nil, 0
		if measure {
			if err := e.addMeasurement(c); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Transpile.OptimizationLevel > 0 {
		before := len(c.Gates)
		c = circuit.Transpile(c, cfg.Transpile)
		logger.Debug("transpiled", "level", cfg.Transpile.OptimizationLevel, "before", before, "after", len(c.Gates))
	}
	logger.Debug("running circuit", "backend", cfg.Backend.Name(), "qubits", c.NumQubits, "depth", c.Depth())

	res, err := cfg.Backend.Run(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("run on %s: %w", cfg.Backend.Name(), err)
	}
	phases, err := ComputePhases(m, numUnitaryQubits, res)
	if err != nil {
		return nil, err
	}
	result := NewResult(m, res, phases)
	logger.Debug("estimated", "backend", res.Backend(), "elapsed", res.Elapsed(), "most_likely", result.MostLikelyPhase())
	return result, nil
}
