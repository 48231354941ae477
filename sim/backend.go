package sim

import (
	"context"
	"errors"
	"fmt"
	"math/cmplx"
	"time"

	"github.com/jorconnor/qphase/circuit"
)

// Backend executes circuits. Statevector backends return *Amplitudes, sampling
// backends return *Samples.
type Backend interface {
	Name() string
	IsStatevector() bool
	Run(ctx context.Context, c *circuit.Circuit) (Result, error)
}

// Result is the outcome of a single execution. It is implemented only by
// *Amplitudes and *Samples.
type Result interface {
	// Backend names the backend that produced the result.
	Backend() string
	// Elapsed is the wall time spent executing.
	Elapsed() time.Duration

	isResult()
}

type runInfo struct {
	backend string
	elapsed time.Duration
}

func (r runInfo) Backend() string        { return r.backend }
func (r runInfo) Elapsed() time.Duration { return r.elapsed }
func (runInfo) isResult()                {}

// Amplitudes is the final state vector of a circuit.
type Amplitudes struct {
	runInfo
	State *StateVector
}

// Samples holds measurement counts. Keys are classical-register bitstrings
// with classical bit 0 rightmost.
type Samples struct {
	runInfo
	Counts      map[string]int
	Shots       int
	MemorySlots int
}

// ErrNoMeasurements is returned by sampling backends for circuits that
// measure nothing.
var ErrNoMeasurements = errors.New("circuit has no measurements")

// StatevectorBackend simulates a circuit exactly and returns its amplitudes.
// Measurements and barriers are ignored.
type StatevectorBackend struct{}

func (StatevectorBackend) Name() string        { return "statevector" }
func (StatevectorBackend) IsStatevector() bool { return true }

func (b StatevectorBackend) Run(ctx context.Context, c *circuit.Circuit) (Result, error) {
	start := time.Now()
	state, err := simulate(ctx, c)
	if err != nil {
		return nil, err
	}
	return &Amplitudes{
		runInfo: runInfo{backend: b.Name(), elapsed: time.Since(start)},
		State:   state,
	}, nil
}

// Simulate runs every gate of c on a fresh state vector. The circuit's global
// phase is applied to the final amplitudes.
func Simulate(c *circuit.Circuit) (*StateVector, error) {
	return simulate(context.Background(), c)
}

func simulate(ctx context.Context, c *circuit.Circuit) (*StateVector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	state := NewStateVector(c.NumQubits)
	for i, g := range c.Gates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := state.ApplyGate(g); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
	}
	if c.GlobalPhase != 0 {
		phase := cmplx.Exp(complex(0, c.GlobalPhase))
		for i := range state.Amplitudes {
			state.Amplitudes[i] *= phase
		}
	}
	return state, nil
}

// measurements returns, for every classical bit written by c, the qubit it
// measures. It fails if a measured qubit is acted on again afterwards.
func measurements(c *circuit.Circuit) (map[int]int, error) {
	clbits := make(map[int]int)
	measured := make(map[int]bool)
	for i, g := range c.Gates {
		switch g.Type {
		case "MEASURE":
			clbits[g.Clbit] = g.Targets[0]
			measured[g.Targets[0]] = true
		case "BARRIER":
		default:
			for _, q := range g.Qubits() {
				if measured[q] {
					return nil, fmt.Errorf("gate %d: %s acts on qubit %d after it was measured", i, g.Type, q)
				}
			}
		}
	}
	return clbits, nil
}
