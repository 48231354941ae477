package sim

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// DensityMatrix is the reduced state of a subset of qubits. Row and column
// index bit k is the value of Qubits[k].
type DensityMatrix struct {
	Qubits []int
	rho    *mat.CDense
}

// Dim returns the matrix dimension, 2^len(Qubits).
func (d *DensityMatrix) Dim() int {
	r, _ := d.rho.Dims()
	return r
}

// At returns element (i, j).
func (d *DensityMatrix) At(i, j int) complex128 {
	return d.rho.At(i, j)
}

// Probabilities returns the diagonal of the matrix.
func (d *DensityMatrix) Probabilities() []float64 {
	n := d.Dim()
	probs := make([]float64, n)
	for i := range n {
		probs[i] = real(d.rho.At(i, i))
	}
	return probs
}

// Trace returns the sum of the diagonal.
func (d *DensityMatrix) Trace() complex128 {
	var tr complex128
	for i := range d.Dim() {
		tr += d.rho.At(i, i)
	}
	return tr
}

// PartialTrace traces the given qubits out of s and returns the reduced
// density matrix of the remaining qubits in ascending order.
func PartialTrace(s *StateVector, traced []int) (*DensityMatrix, error) {
	drop := make(map[int]bool, len(traced))
	for _, q := range traced {
		if q < 0 || q >= s.NumQubits {
			return nil, fmt.Errorf("partial trace: qubit %d out of range [0, %d)", q, s.NumQubits)
		}
		if drop[q] {
			return nil, fmt.Errorf("partial trace: qubit %d listed twice", q)
		}
		drop[q] = true
	}
	var kept []int
	traced = nil
	for q := range s.NumQubits {
		if drop[q] {
			traced = append(traced, q)
		} else {
			kept = append(kept, q)
		}
	}

	dk, dt := 1<<len(kept), 1<<len(traced)
	// psi has one row per kept basis state and one column per traced one.
	psi := mat.NewCDense(dk, dt, nil)
	for i, a := range s.Amplitudes {
		if a == 0 {
			continue
		}
		psi.Set(subIndex(i, kept), subIndex(i, traced), a)
	}

	// rho = psi psi^H
	rho := mat.NewCDense(dk, dk, nil)
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, psi.RawCMatrix(), psi.RawCMatrix(), 0, rho.RawCMatrix())
	return &DensityMatrix{Qubits: kept, rho: rho}, nil
}

// subIndex gathers the bits of i at the given qubit positions into a compact
// index, qubits[k] becoming bit k.
func subIndex(i int, qubits []int) int {
	idx := 0
	for k, q := range qubits {
		if i&(1<<q) != 0 {
			idx |= 1 << k
		}
	}
	return idx
}
