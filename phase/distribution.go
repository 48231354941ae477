package phase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jorconnor/qphase/sim"
)

// Distribution is a phase histogram. It is implemented only by Probabilities
// and Frequencies.
type Distribution interface {
	// Len returns the number of entries.
	Len() int
	// Total returns the sum of all entries.
	Total() float64

	isDistribution()
}

// Probabilities holds the exact probability of every evaluation register
// basis state. Index bit k is the value of evaluation qubit k.
type Probabilities []float64

func (p Probabilities) Len() int { return len(p) }

func (p Probabilities) Total() float64 {
	var sum float64
	for _, v := range p {
		sum += v
	}
	return sum
}

func (Probabilities) isDistribution() {}

// Frequency is the observed frequency of one phase bitstring. Bits is written
// most significant phase bit first.
type Frequency struct {
	Bits  string
	Value float64
}

// Frequencies holds sampled phase frequencies in increasing phase order.
type Frequencies []Frequency

func (f Frequencies) Len() int { return len(f) }

func (f Frequencies) Total() float64 {
	var sum float64
	for _, e := range f {
		sum += e.Value
	}
	return sum
}

func (Frequencies) isDistribution() {}

// ComputePhases turns an execution result into a phase distribution. Qubits
// [0, numEvaluationQubits) form the evaluation register and the next
// numUnitaryQubits qubits are traced out.
func ComputePhases(numEvaluationQubits, numUnitaryQubits int, r sim.Result) (Distribution, error) {
	switch r := r.(type) {
	case *sim.Amplitudes:
		return fromAmplitudes(numEvaluationQubits, numUnitaryQubits, r)
	case *sim.Samples:
		return fromSamples(numEvaluationQubits, r)
	case nil:
		return nil, fmt.Errorf("compute phases: no result")
	default:
		return nil, fmt.Errorf("compute phases: unsupported result %T", r)
	}
}

func fromAmplitudes(m, n int, r *sim.Amplitudes) (Probabilities, error) {
	if got := r.State.NumQubits; got != m+n {
		return nil, fmt.Errorf("compute phases: state has %d qubits, expected %d evaluation + %d unitary", got, m, n)
	}
	traced := make([]int, n)
	for i := range n {
		traced[i] = m + i
	}
	rho, err := sim.PartialTrace(r.State, traced)
	if err != nil {
		return nil, err
	}
	return Probabilities(rho.Probabilities()), nil
}

func fromSamples(m int, r *sim.Samples) (Frequencies, error) {
	if r.Shots <= 0 {
		return nil, fmt.Errorf("compute phases: result has %d shots", r.Shots)
	}
	freqs := make(Frequencies, 0, len(r.Counts))
	for key, count := range r.Counts {
		if count == 0 {
			continue
		}
		if strings.Trim(key, "01") != "" {
			return nil, fmt.Errorf("compute phases: invalid bitstring %q", key)
		}
		if len(key) != m {
			return nil, fmt.Errorf("compute phases: bitstring %q has %d bits, expected %d evaluation bits", key, len(key), m)
		}
		freqs = append(freqs, Frequency{
			Bits:  reverse(key),
			Value: float64(count) / float64(r.Shots),
		})
	}
	slices.SortFunc(freqs, func(a, b Frequency) int {
		return compareBinary(a.Bits, b.Bits)
	})
	return freqs, nil
}

func reverse(s string) string {
	b := []byte(s)
	slices.Reverse(b)
	return string(b)
}

// compareBinary orders two bitstrings by their unsigned numeric value.
func compareBinary(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

// bitsPhase reads bits as a binary fraction 0.b0b1b2...
func bitsPhase(bits string) float64 {
	var v, w float64 = 0, 0.5
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			v += w
		}
		w /= 2
	}
	return v
}

// indexBits renders a probability index as a phase bitstring: evaluation
// qubit 0 holds the most significant phase bit.
func indexBits(idx, numEvaluationQubits int) string {
	b := make([]byte, numEvaluationQubits)
	for k := range numEvaluationQubits {
		if idx&(1<<k) != 0 {
			b[k] = '1'
		} else {
			b[k] = '0'
		}
	}
	return string(b)
}
