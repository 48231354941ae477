package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorconnor/qphase/sim"
)

func TestComputePhasesSamples(t *testing.T) {
	res := &sim.Samples{Counts: map[string]int{"00": 50, "10": 50}, Shots: 100, MemorySlots: 2}
	d, err := ComputePhases(2, 1, res)
	require.NoError(t, err)
	assert.Equal(t, Frequencies{{Bits: "00", Value: 0.5}, {Bits: "01", Value: 0.5}}, d)
}

func TestComputePhasesSortsByReversedKey(t *testing.T) {
	res := &sim.Samples{
		Counts: map[string]int{
			"001": 1, // 100
			"110": 2, // 011
			"010": 3, // 010
			"111": 0,
			"100": 4, // 001
		},
		Shots: 10,
	}
	d, err := ComputePhases(3, 1, res)
	require.NoError(t, err)
	freqs := d.(Frequencies)

	var bits []string
	for _, f := range freqs {
		bits = append(bits, f.Bits)
	}
	assert.Equal(t, []string{"001", "010", "011", "100"}, bits, "zero counts are dropped, rest sorted")
	assert.InDelta(t, 1, freqs.Total(), 1e-12)
	assert.InDelta(t, 0.4, freqs[0].Value, 1e-12)
}

func TestComputePhasesErrors(t *testing.T) {
	_, err := ComputePhases(2, 1, &sim.Samples{Counts: map[string]int{"00": 1}})
	assert.ErrorContains(t, err, "shots")

	_, err = ComputePhases(2, 1, &sim.Samples{Counts: map[string]int{"0 1": 1}, Shots: 1})
	assert.ErrorContains(t, err, "invalid bitstring")

	_, err = ComputePhases(2, 1, &sim.Samples{Counts: map[string]int{"0101": 1}, Shots: 1, MemorySlots: 4})
	assert.ErrorContains(t, err, "expected 2 evaluation bits")

	_, err = ComputePhases(2, 1, nil)
	assert.Error(t, err)

	_, err = ComputePhases(2, 2, &sim.Amplitudes{State: sim.NewStateVector(3)})
	assert.Error(t, err)
}

func TestComputePhasesAmplitudes(t *testing.T) {
	// |q2 q1 q0> = |1 1 0>: evaluation qubit 1 set, unitary qubit set.
	s := sim.NewStateVector(3)
	s.Amplitudes[0] = 0
	s.Amplitudes[0b110] = 1

	d, err := ComputePhases(2, 1, &sim.Amplitudes{State: s})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 0}, []float64(d.(Probabilities)), 1e-12)
}

func TestResultHelpers(t *testing.T) {
	res := NewResult(2, nil, Probabilities{0.1, 0.6, 0.3, 0})

	// Index 1 sets evaluation qubit 0, the most significant phase bit.
	assert.InDelta(t, 0.5, res.MostLikelyPhase(), 1e-12)
	assert.Equal(t, []Phase{
		{Bits: "01", Value: 0.25, Frequency: 0.3},
		{Bits: "10", Value: 0.5, Frequency: 0.6},
	}, res.FilterPhases(0.2))
	assert.Len(t, res.FilterPhases(0), 3)

	sampled := NewResult(3, nil, Frequencies{{"001", 0.25}, {"110", 0.75}})
	assert.InDelta(t, 0.75, sampled.MostLikelyPhase(), 1e-12)
	assert.Equal(t, []Phase{{Bits: "110", Value: 0.75, Frequency: 0.75}}, sampled.FilterPhases(0.5))
	assert.Nil(t, sampled.FilterPhases(1))
}
