package phase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/jorconnor/qphase/circuit"
	"github.com/jorconnor/qphase/sim"
)

// phaseGate returns a one-qubit unitary applying gateType and a state
// preparation flipping the qubit to |1>, its eigenstate.
func phaseGate(gateType string) (*circuit.Circuit, *circuit.Circuit) {
	u := circuit.New(1)
	u.AddGate(gateType, 0)
	prep := circuit.New(1)
	prep.AddGate("X", 0)
	return u, prep
}

type failingBackend struct{ err error }

func (failingBackend) Name() string        { return "failing" }
func (failingBackend) IsStatevector() bool { return true }
func (b failingBackend) Run(context.Context, *circuit.Circuit) (sim.Result, error) {
	return nil, b.err
}

func TestEstimateInputContract(t *testing.T) {
	est, err := New(2)
	require.NoError(t, err)
	u, _ := phaseGate("S")
	pe, err := est.ConstructCircuit(u, nil, false)
	require.NoError(t, err)
	cfg := RunConfig{Backend: sim.StatevectorBackend{}}

	tests := []struct {
		name    string
		in      Input
		wantMsg string
	}{
		{"both", Input{Unitary: u, Circuit: pe, NumUnitaryQubits: 1}, "only one of `pe_circuit` and `unitary` may be passed"},
		{"neither", Input{}, "one of `pe_circuit` and `unitary` must be passed"},
		{"unitary only", Input{Unitary: u}, ""},
		{"circuit only", Input{Circuit: pe, NumUnitaryQubits: 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := est.Estimate(context.Background(), cfg, tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.wantMsg, cfgErr.Error())
		})
	}

	// Contract violations are reported before the backend is touched.
	_, err = est.Estimate(context.Background(), RunConfig{Backend: failingBackend{errors.New("ran")}}, Input{})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = est.Estimate(context.Background(), RunConfig{}, Input{Unitary: u})
	assert.True(t, errors.As(err, &cfgErr), "missing backend: got %v", err)

	_, err = New(0)
	assert.Error(t, err)
}

func TestEstimateKnownPhases(t *testing.T) {
	tests := []struct {
		gate      string
		evalQubit int
		want      float64
		wantIdx   int
		wantBits  string
	}{
		{"S", 2, 0.25, 2, "01"},
		{"T", 3, 0.125, 4, "001"},
		{"Z", 2, 0.5, 1, "10"},
	}
	for _, tt := range tests {
		u, prep := phaseGate(tt.gate)
		est, err := New(tt.evalQubit)
		require.NoError(t, err)
		in := Input{Unitary: u, StatePreparation: prep}

		t.Run(tt.gate+"/statevector", func(t *testing.T) {
			res, err := est.Estimate(context.Background(), RunConfig{Backend: sim.StatevectorBackend{}}, in)
			require.NoError(t, err)
			probs, ok := res.Phases().(Probabilities)
			require.True(t, ok, "expected Probabilities, got %T", res.Phases())
			assert.Len(t, probs, 1<<tt.evalQubit)
			assert.InDelta(t, 1, probs[tt.wantIdx], 1e-9)
			assert.InDelta(t, tt.want, res.MostLikelyPhase(), 1e-12)
			assert.Equal(t, tt.evalQubit, res.NumEvaluationQubits())
			_, isAmps := res.CircuitResult().(*sim.Amplitudes)
			assert.True(t, isAmps)
		})

		t.Run(tt.gate+"/sampler", func(t *testing.T) {
			res, err := est.Estimate(context.Background(), RunConfig{Backend: sim.SamplingBackend{Shots: 100, Seed: 1}}, in)
			require.NoError(t, err)
			freqs, ok := res.Phases().(Frequencies)
			require.True(t, ok, "expected Frequencies, got %T", res.Phases())
			require.Len(t, freqs, 1)
			assert.Equal(t, tt.wantBits, freqs[0].Bits)
			assert.InDelta(t, 1, freqs[0].Value, 1e-12)
			assert.InDelta(t, tt.want, res.MostLikelyPhase(), 1e-12)
		})
	}
}

func TestEstimateProbabilitiesSumToOne(t *testing.T) {
	u := circuit.New(2)
	u.AddParameterizedGate("RZ", 0, []float64{0.7})
	u.AddGate("X", 1, 0)
	u.AddParameterizedGate("P", 1, []float64{1.3})
	u.GlobalPhase = 0.4
	prep := circuit.New(2)
	prep.AddGate("H", 0)
	prep.AddParameterizedGate("RY", 1, []float64{0.9})

	est, err := New(3)
	require.NoError(t, err)
	in := Input{Unitary: u, StatePreparation: prep}

	res, err := est.Estimate(context.Background(), RunConfig{Backend: sim.StatevectorBackend{}}, in)
	require.NoError(t, err)
	probs := res.Phases().(Probabilities)
	for i, p := range probs {
		assert.GreaterOrEqual(t, p, -1e-12, "probability %d", i)
	}
	assert.InDelta(t, 1, floats.Sum(probs), 1e-9)

	res, err = est.Estimate(context.Background(), RunConfig{Backend: sim.SamplingBackend{Shots: 500, Seed: 3, Workers: 2}}, in)
	require.NoError(t, err)
	freqs := res.Phases().(Frequencies)
	assert.InDelta(t, 1, freqs.Total(), 1e-9)
	for i := 1; i < len(freqs); i++ {
		assert.Less(t, bitsPhase(freqs[i-1].Bits), bitsPhase(freqs[i].Bits))
	}
}

func TestEstimateWithCircuit(t *testing.T) {
	est, err := New(2)
	require.NoError(t, err)
	u, prep := phaseGate("S")
	pe, err := est.ConstructCircuit(u, prep, false)
	require.NoError(t, err)
	gates := len(pe.Gates)

	cfg := RunConfig{Backend: sim.SamplingBackend{Shots: 64}}
	res, err := est.Estimate(context.Background(), cfg, Input{Circuit: pe, NumUnitaryQubits: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, res.MostLikelyPhase(), 1e-12)
	assert.Len(t, pe.Gates, gates, "caller's circuit must not be mutated")
	assert.Zero(t, pe.NumClbits)

	_, err = est.Estimate(context.Background(), cfg, Input{Circuit: pe, NumUnitaryQubits: 2})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr), "width mismatch: got %v", err)
}

func TestEstimateTranspiled(t *testing.T) {
	est, err := New(3)
	require.NoError(t, err)
	u, prep := phaseGate("T")
	cfg := RunConfig{
		Backend:   sim.StatevectorBackend{},
		Transpile: circuit.TranspileOptions{OptimizationLevel: 3},
	}
	res, err := est.Estimate(context.Background(), cfg, Input{Unitary: u, StatePreparation: prep})
	require.NoError(t, err)
	assert.InDelta(t, 0.125, res.MostLikelyPhase(), 1e-12)
}

func TestEstimatePropagatesBackendErrors(t *testing.T) {
	est, err := New(1)
	require.NoError(t, err)
	u, _ := phaseGate("Z")
	boom := errors.New("backend offline")

	_, err = est.Estimate(context.Background(), RunConfig{Backend: failingBackend{boom}}, Input{Unitary: u})
	assert.True(t, errors.Is(err, boom), "got %v", err)
	var cfgErr *ConfigurationError
	assert.False(t, errors.As(err, &cfgErr))
}

func TestConstructCircuit(t *testing.T) {
	est, err := New(3)
	require.NoError(t, err)
	u, prep := phaseGate("T")

	c, err := est.ConstructCircuit(u, prep, true)
	require.NoError(t, err)
	assert.Equal(t, 4, c.NumQubits)

	// State preparation goes first, on the unitary register only.
	first := c.Gates[0]
	assert.Equal(t, "X", first.Type)
	assert.Equal(t, []int{3}, first.Targets)

	reg, ok := c.Register(MeasurementRegister)
	require.True(t, ok)
	assert.Equal(t, 3, reg.Size)
	n := len(c.Gates)
	assert.Equal(t, "BARRIER", c.Gates[n-4].Type)
	assert.Len(t, c.Gates[n-4].Targets, 4)
	for j := range 3 {
		g := c.Gates[n-3+j]
		assert.Equal(t, "MEASURE", g.Type)
		assert.Equal(t, []int{j}, g.Targets)
		assert.Equal(t, reg.Offset+j, g.Clbit)
	}

	noMeasure, err := est.ConstructCircuit(u, nil, false)
	require.NoError(t, err)
	assert.False(t, noMeasure.HasMeasurements())

	wide := circuit.New(2)
	_, err = est.ConstructCircuit(u, wide, false)
	assert.Error(t, err)

	// Inputs are never modified.
	assert.Len(t, u.Gates, 1)
	assert.Len(t, prep.Gates, 1)
}

func TestEstimateWithMeasuredCircuit(t *testing.T) {
	est, err := New(2)
	require.NoError(t, err)
	u, prep := phaseGate("S")
	measured, err := est.ConstructCircuit(u, prep, true)
	require.NoError(t, err)

	for _, backend := range []sim.Backend{sim.SamplingBackend{Shots: 10}, sim.StatevectorBackend{}} {
		_, err := est.Estimate(context.Background(), RunConfig{Backend: backend}, Input{Circuit: measured, NumUnitaryQubits: 1})
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr), "%s: expected ConfigurationError, got %v", backend.Name(), err)
		assert.Contains(t, cfgErr.Error(), "measurements")
	}

	// A leftover classical register without measurements is dropped, so the
	// sampled keys stay m bits wide.
	pe, err := est.ConstructCircuit(u, prep, false)
	require.NoError(t, err)
	_, err = pe.AddClassicalRegister(MeasurementRegister, 3)
	require.NoError(t, err)
	res, err := est.Estimate(context.Background(), RunConfig{Backend: sim.SamplingBackend{Shots: 10, Seed: 2}}, Input{Circuit: pe, NumUnitaryQubits: 1})
	require.NoError(t, err)
	freqs := res.Phases().(Frequencies)
	require.Len(t, freqs, 1)
	assert.Equal(t, "01", freqs[0].Bits)
	assert.InDelta(t, 0.25, res.MostLikelyPhase(), 1e-12)
	assert.Equal(t, 3, pe.NumClbits, "caller's circuit keeps its registers")
}
