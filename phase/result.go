package phase

import (
	"slices"

	"github.com/jorconnor/qphase/sim"
)

// Result is the outcome of one Estimate call.
type Result struct {
	numEvaluationQubits int
	circuitResult       sim.Result
	phases              Distribution
}

// NewResult packages a phase distribution with the execution result it was
// computed from.
func NewResult(numEvaluationQubits int, circuitResult sim.Result, phases Distribution) *Result {
	return &Result{
		numEvaluationQubits: numEvaluationQubits,
		circuitResult:       circuitResult,
		phases:              phases,
	}
}

// NumEvaluationQubits returns the width of the evaluation register.
func (r *Result) NumEvaluationQubits() int { return r.numEvaluationQubits }

// CircuitResult returns the raw execution result.
func (r *Result) CircuitResult() sim.Result { return r.circuitResult }

// Phases returns the phase distribution.
func (r *Result) Phases() Distribution { return r.phases }

// Phase is one entry of a filtered phase histogram.
type Phase struct {
	Bits      string  // most significant bit first
	Value     float64 // Bits read as a binary fraction, in [0, 1)
	Frequency float64
}

// MostLikelyPhase returns the phase with the highest probability or
// frequency. Ties go to the lowest phase.
func (r *Result) MostLikelyPhase() float64 {
	best := Phase{Frequency: -1}
	for _, p := range r.entries() {
		if p.Frequency > best.Frequency {
			best = p
		}
	}
	return best.Value
}

// FilterPhases returns the entries whose frequency exceeds cutoff, in
// increasing phase order.
func (r *Result) FilterPhases(cutoff float64) []Phase {
	var out []Phase
	for _, p := range r.entries() {
		if p.Frequency > cutoff {
			out = append(out, p)
		}
	}
	return out
}

// entries lists the whole distribution in increasing phase order.
func (r *Result) entries() []Phase {
	var out []Phase
	switch d := r.phases.(type) {
	case Probabilities:
		out = make([]Phase, 0, len(d))
		for idx, p := range d {
			bits := indexBits(idx, r.numEvaluationQubits)
			out = append(out, Phase{Bits: bits, Value: bitsPhase(bits), Frequency: p})
		}
		slices.SortStableFunc(out, func(a, b Phase) int {
			return compareBinary(a.Bits, b.Bits)
		})
	case Frequencies:
		out = make([]Phase, 0, len(d))
		for _, f := range d {
			out = append(out, Phase{Bits: f.Bits, Value: bitsPhase(f.Bits), Frequency: f.Value})
		}
	}
	return out
}
