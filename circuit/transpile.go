package circuit

import (
	"math"
	"slices"
)

// TranspileOptions controls the peephole optimiser.
type TranspileOptions struct {
	// OptimizationLevel selects the passes to run:
	//   0: none
	//   1: drop identity gates, cancel adjacent self-inverse and adjoint pairs
	//   2: level 1 plus merging adjacent P/RZ/RX/RY rotations on the same
	//      qubits and dropping zero rotations
	//   3: level 2 repeated until the circuit stops changing
	OptimizationLevel int
}

const angleTolerance = 1e-10

// Transpile returns an optimised copy of c. The input is left untouched.
// Barriers, measurements and resets are never rewritten and no rewrite
// crosses them.
func Transpile(c *Circuit, opts TranspileOptions) *Circuit {
	out := c.Clone()
	if opts.OptimizationLevel <= 0 {
		return out
	}
	merge := opts.OptimizationLevel >= 2
	for {
		var changed bool
		out.Gates, changed = peephole(out.Gates, merge)
		if !changed || opts.OptimizationLevel < 3 {
			return out
		}
	}
}

// peephole runs a single pass over gates. Each incoming gate is compared with
// the most recent kept gate touching any of its qubits; if both act on exactly
// the same qubits they are adjacent on every wire involved.
func peephole(gates []Gate, merge bool) ([]Gate, bool) {
	out := make([]Gate, 0, len(gates))
	changed := false
	for _, g := range gates {
		if g.Type == "I" {
			changed = true
			continue
		}
		if merge && isZeroRotation(g) {
			changed = true
			continue
		}
		j := lastTouching(out, g)
		if j >= 0 && sameWires(out[j], g) {
			switch {
			case cancels(out[j], g):
				out = slices.Delete(out, j, j+1)
				changed = true
				continue
			case merge && mergeable(out[j], g):
				out[j].Params[0] += g.Params[0]
				if isZeroRotation(out[j]) {
					out = slices.Delete(out, j, j+1)
				}
				changed = true
				continue
			}
		}
		out = append(out, g.clone())
	}
	return out, changed
}

func lastTouching(gates []Gate, g Gate) int {
	qs := g.Qubits()
	for j := len(gates) - 1; j >= 0; j-- {
		for _, q := range qs {
			if gates[j].references(q) {
				return j
			}
		}
	}
	return -1
}

// sameWires reports whether a and b have identical controls (as a set) and
// identical targets; SWAP targets compare as a set.
func sameWires(a, b Gate) bool {
	if len(a.Controls) != len(b.Controls) || len(a.Targets) != len(b.Targets) {
		return false
	}
	for _, ctrl := range a.Controls {
		if !slices.Contains(b.Controls, ctrl) {
			return false
		}
	}
	if a.Type == "SWAP" && b.Type == "SWAP" {
		return slices.Contains(b.Targets, a.Targets[0]) && slices.Contains(b.Targets, a.Targets[1])
	}
	return slices.Equal(a.Targets, b.Targets)
}

func cancels(a, b Gate) bool {
	info, ok := lookupGate(a.Type)
	if !ok || !info.unitary || len(a.Params) > 0 || len(b.Params) > 0 {
		return false
	}
	if info.selfInverse {
		return a.Type == b.Type
	}
	return info.inverse == b.Type
}

func mergeable(a, b Gate) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case "P", "RZ", "RX", "RY":
		return true
	}
	return false
}

// isZeroRotation reports whether g is a rotation equal to the identity. P has
// period 2*pi; the R gates pick up a -1 at 2*pi, which is only a global phase
// when uncontrolled, so they are dropped at multiples of 4*pi.
func isZeroRotation(g Gate) bool {
	var period float64
	switch g.Type {
	case "P":
		period = 2 * math.Pi
	case "RZ", "RX", "RY":
		period = 4 * math.Pi
	default:
		return false
	}
	r := math.Remainder(g.Params[0], period)
	return math.Abs(r) < angleTolerance
}
