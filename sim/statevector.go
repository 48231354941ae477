// Package sim executes circuits in process. It holds the state-vector
// representation, the gate kernels acting on it, partial traces, and the
// backends that turn a circuit into an execution result.
package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/jorconnor/qphase/circuit"
)

// matrix2 is a single-qubit operator in row-major order.
type matrix2 [2][2]complex128

// StateVector holds 2^NumQubits amplitudes. Qubit q is bit 1<<q of the
// amplitude index.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// NewStateVector returns |0...0> over numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]complex128, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// ApplyGate applies one circuit instruction. Barriers and measurements leave
// the state unchanged; backends handle measurement themselves.
func (s *StateVector) ApplyGate(g circuit.Gate) error {
	var ctrlMask int
	for _, ctrl := range g.Controls {
		ctrlMask |= 1 << ctrl
	}
	switch g.Type {
	case "BARRIER", "MEASURE", "I":
		return nil
	case "RESET":
		if len(g.Controls) > 0 {
			return fmt.Errorf("controlled reset is not supported")
		}
		s.applyReset(g.Targets[0])
		return nil
	case "SWAP":
		s.applySWAP(g.Targets[0], g.Targets[1], ctrlMask)
		return nil
	}
	u, err := gateMatrix(g.Type, g.Params)
	if err != nil {
		return err
	}
	s.applyMatrix(u, g.Targets[0], ctrlMask)
	return nil
}

// gateMatrix returns the 2x2 matrix of a single-qubit gate type.
func gateMatrix(gateType string, params []float64) (matrix2, error) {
	param := func(i int) (float64, error) {
		if i >= len(params) {
			return 0, fmt.Errorf("gate %s: missing parameter %d", gateType, i)
		}
		return params[i], nil
	}
	h := complex(1/math.Sqrt2, 0)
	switch gateType {
	case "H":
		return matrix2{{h, h}, {h, -h}}, nil
	case "X":
		return matrix2{{0, 1}, {1, 0}}, nil
	case "Y":
		return matrix2{{0, -1i}, {1i, 0}}, nil
	case "Z":
		return phaseMatrix(math.Pi), nil
	case "S":
		return phaseMatrix(math.Pi / 2), nil
	case "SDG":
		return phaseMatrix(-math.Pi / 2), nil
	case "T":
		return phaseMatrix(math.Pi / 4), nil
	case "TDG":
		return phaseMatrix(-math.Pi / 4), nil
	case "SX":
		return matrix2{{(1 + 1i) / 2, (1 - 1i) / 2}, {(1 - 1i) / 2, (1 + 1i) / 2}}, nil
	case "SXDG":
		return matrix2{{(1 - 1i) / 2, (1 + 1i) / 2}, {(1 + 1i) / 2, (1 - 1i) / 2}}, nil
	case "RX":
		theta, err := param(0)
		if err != nil {
			return matrix2{}, err
		}
		c := complex(math.Cos(theta/2), 0)
		js := complex(0, -math.Sin(theta/2))
		return matrix2{{c, js}, {js, c}}, nil
	case "RY":
		theta, err := param(0)
		if err != nil {
			return matrix2{}, err
		}
		c := complex(math.Cos(theta/2), 0)
		sn := complex(math.Sin(theta/2), 0)
		return matrix2{{c, -sn}, {sn, c}}, nil
	case "RZ":
		theta, err := param(0)
		if err != nil {
			return matrix2{}, err
		}
		phase := cmplx.Exp(complex(0, theta/2))
		return matrix2{{cmplx.Conj(phase), 0}, {0, phase}}, nil
	case "P":
		lambda, err := param(0)
		if err != nil {
			return matrix2{}, err
		}
		return phaseMatrix(lambda), nil
	case "U2":
		if len(params) < 2 {
			return matrix2{}, fmt.Errorf("gate U2: needs 2 parameters, got %d", len(params))
		}
		return u3Matrix(math.Pi/2, params[0], params[1]), nil
	case "U3":
		if len(params) < 3 {
			return matrix2{}, fmt.Errorf("gate U3: needs 3 parameters, got %d", len(params))
		}
		return u3Matrix(params[0], params[1], params[2]), nil
	}
	return matrix2{}, fmt.Errorf("unsupported gate %q", gateType)
}

func phaseMatrix(lambda float64) matrix2 {
	return matrix2{{1, 0}, {0, cmplx.Exp(complex(0, lambda))}}
}

func u3Matrix(theta, phi, lambda float64) matrix2 {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	return matrix2{
		{c, -cmplx.Exp(complex(0, lambda)) * sn},
		{cmplx.Exp(complex(0, phi)) * sn, cmplx.Exp(complex(0, phi+lambda)) * c},
	}
}

// applyMatrix applies u to qubit q on every basis state whose control bits
// are all set.
func (s *StateVector) applyMatrix(u matrix2, q int, ctrlMask int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit != 0 || i&ctrlMask != ctrlMask {
			continue
		}
		j := i | bit
		a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = u[0][0]*a0 + u[0][1]*a1
		s.Amplitudes[j] = u[1][0]*a0 + u[1][1]*a1
	}
}

func (s *StateVector) applySWAP(q1, q2 int, ctrlMask int) {
	n := len(s.Amplitudes)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 && i&ctrlMask == ctrlMask {
			j := (i & ^bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// applyReset projects qubit q onto |0> and renormalises. If the qubit was in
// |1> with certainty the |1> amplitudes are moved to |0>.
func (s *StateVector) applyReset(q int) {
	n := len(s.Amplitudes)
	bit := 1 << q

	prob0 := 0.0
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			prob0 += probability(s.Amplitudes[i])
		}
	}

	if prob0 < 1e-15 {
		for i := 0; i < n; i++ {
			if i&bit == 0 {
				s.Amplitudes[i], s.Amplitudes[i|bit] = s.Amplitudes[i|bit], 0
			}
		}
		return
	}

	norm := complex(math.Sqrt(prob0), 0)
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			s.Amplitudes[i] /= norm
		} else {
			s.Amplitudes[i] = 0
		}
	}
}

func probability(a complex128) float64 {
	return real(a * cmplx.Conj(a))
}

// Probabilities returns |amplitude|^2 for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		probs[i] = probability(a)
	}
	return probs
}

// MarginalProbabilities returns the distribution over the given qubits; bit k
// of the returned index is the value of qubits[k].
func (s *StateVector) MarginalProbabilities(qubits []int) []float64 {
	out := make([]float64, 1<<len(qubits))
	for i, a := range s.Amplitudes {
		idx := 0
		for k, q := range qubits {
			if i&(1<<q) != 0 {
				idx |= 1 << k
			}
		}
		out[idx] += probability(a)
	}
	return out
}
