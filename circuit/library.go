package circuit

import (
	"fmt"
	"math"
)

// InverseQFT returns the inverse quantum Fourier transform over numQubits
// qubits without the final qubit reversal: qubit 0 ends up holding the most
// significant bit of the decoded phase.
func InverseQFT(numQubits int) *Circuit {
	c := New(numQubits)
	c.Name = "IQFT"
	for j := numQubits - 1; j >= 0; j-- {
		for l := 1; j+l < numQubits; l++ {
			c.AddParameterizedGate("P", j, []float64{-math.Pi / float64(int(1)<<l)}, j+l)
		}
		c.AddGate("H", j)
	}
	return c
}

// PhaseEstimation returns the phase estimation template for unitary with
// numEvaluationQubits evaluation qubits. Qubits [0, numEvaluationQubits) form
// the evaluation register and the unitary acts on the qubits after it.
// Evaluation qubit j controls unitary^(2^j).
func PhaseEstimation(numEvaluationQubits int, unitary *Circuit) (*Circuit, error) {
	if numEvaluationQubits < 1 {
		return nil, fmt.Errorf("phase estimation needs at least one evaluation qubit, got %d", numEvaluationQubits)
	}
	m, n := numEvaluationQubits, unitary.NumQubits
	c := New(m + n)
	c.Name = "QPE"

	for j := range m {
		c.AddGate("H", j)
	}

	target := make([]int, n+1)
	for i := range n {
		target[i+1] = m + i
	}
	for j := range m {
		pow, err := unitary.Power(1 << j)
		if err != nil {
			return nil, err
		}
		cu, err := pow.Control(1)
		if err != nil {
			return nil, fmt.Errorf("phase estimation: %w", err)
		}
		target[0] = j
		if err := c.Compose(cu, target, false); err != nil {
			return nil, err
		}
	}

	eval := make([]int, m)
	for j := range m {
		eval[j] = j
	}
	if err := c.Compose(InverseQFT(m), eval, false); err != nil {
		return nil, err
	}
	return c, nil
}
