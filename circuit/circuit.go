// Package circuit models quantum circuits: gates on numbered qubits, classical
// registers for measurement results, composition of sub-circuits and the
// circuit templates used by phase estimation.
package circuit

import (
	"fmt"
	"math"
	"slices"
)

// Gate represents a single instruction placed on the circuit.
type Gate struct {
	Type     string    // upper-case catalog type: "H", "X", "P", "SWAP", "MEASURE", ...
	Targets  []int     // target qubits; two for SWAP, the spanned qubits for BARRIER
	Controls []int     // control qubits, empty if not a controlled gate
	Params   []float64 // parameters for parameterized gates
	Clbit    int       // classical bit written by MEASURE, -1 otherwise
}

// Qubits returns every qubit the gate acts on, controls first.
func (g Gate) Qubits() []int {
	qs := make([]int, 0, len(g.Controls)+len(g.Targets))
	qs = append(qs, g.Controls...)
	return append(qs, g.Targets...)
}

// IsUnitary reports whether the gate is a reversible operation.
func (g Gate) IsUnitary() bool {
	info, ok := lookupGate(g.Type)
	return ok && info.unitary
}

// references reports whether the gate references the given qubit.
func (g Gate) references(qubit int) bool {
	return slices.Contains(g.Targets, qubit) || slices.Contains(g.Controls, qubit)
}

func (g Gate) clone() Gate {
	g.Targets = slices.Clone(g.Targets)
	g.Controls = slices.Clone(g.Controls)
	g.Params = slices.Clone(g.Params)
	return g
}

// Register is a named block of classical bits.
type Register struct {
	Name   string
	Size   int
	Offset int // index of the register's first classical bit
}

// Circuit holds the quantum circuit state.
type Circuit struct {
	Name        string
	NumQubits   int
	NumClbits   int
	Cregs       []Register
	GlobalPhase float64
	Gates       []Gate
}

// New returns an empty circuit over numQubits qubits.
func New(numQubits int) *Circuit {
	return &Circuit{NumQubits: numQubits}
}

// AddGate appends a gate to the circuit.
func (c *Circuit) AddGate(gateType string, target int, controls ...int) {
	c.Gates = append(c.Gates, Gate{
		Type:     gateType,
		Targets:  []int{target},
		Controls: slices.Clone(controls),
		Clbit:    -1,
	})
}

// AddParameterizedGate appends a parameterized gate to the circuit.
func (c *Circuit) AddParameterizedGate(gateType string, target int, params []float64, controls ...int) {
	c.Gates = append(c.Gates, Gate{
		Type:     gateType,
		Targets:  []int{target},
		Controls: slices.Clone(controls),
		Params:   slices.Clone(params),
		Clbit:    -1,
	})
}

// AddSwap appends a (possibly controlled) swap of qubits a and b.
func (c *Circuit) AddSwap(a, b int, controls ...int) {
	c.Gates = append(c.Gates, Gate{
		Type:     "SWAP",
		Targets:  []int{a, b},
		Controls: slices.Clone(controls),
		Clbit:    -1,
	})
}

// AddBarrier appends a barrier over the given qubits, or over every qubit
// when none are given.
func (c *Circuit) AddBarrier(qubits ...int) {
	if len(qubits) == 0 {
		qubits = make([]int, c.NumQubits)
		for q := range c.NumQubits {
			qubits[q] = q
		}
	}
	c.Gates = append(c.Gates, Gate{
		Type:    "BARRIER",
		Targets: slices.Clone(qubits),
		Clbit:   -1,
	})
}

// AddReset appends a reset of target to |0>.
func (c *Circuit) AddReset(target int) {
	c.Gates = append(c.Gates, Gate{Type: "RESET", Targets: []int{target}, Clbit: -1})
}

// AddClassicalRegister appends a classical register of the given size and
// returns it. Register names are unique within a circuit.
func (c *Circuit) AddClassicalRegister(name string, size int) (Register, error) {
	if _, ok := c.Register(name); ok {
		return Register{}, fmt.Errorf("classical register %q already exists", name)
	}
	r := Register{Name: name, Size: size, Offset: c.NumClbits}
	c.Cregs = append(c.Cregs, r)
	c.NumClbits += size
	return r, nil
}

// Register returns the classical register with the given name.
func (c *Circuit) Register(name string) (Register, bool) {
	for _, r := range c.Cregs {
		if r.Name == name {
			return r, true
		}
	}
	return Register{}, false
}

// Measure appends a measurement of qubit into classical bit clbit.
func (c *Circuit) Measure(qubit, clbit int) {
	c.Gates = append(c.Gates, Gate{Type: "MEASURE", Targets: []int{qubit}, Clbit: clbit})
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	out := *c
	out.Cregs = slices.Clone(c.Cregs)
	out.Gates = make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		out.Gates[i] = g.clone()
	}
	return &out
}

// Validate checks that every gate is known, has the right arity and only
// references qubits and classical bits that exist.
func (c *Circuit) Validate() error {
	for i, g := range c.Gates {
		info, ok := lookupGate(g.Type)
		if !ok {
			return fmt.Errorf("gate %d: unknown gate type %q", i, g.Type)
		}
		if info.numTargets > 0 && len(g.Targets) != info.numTargets {
			return fmt.Errorf("gate %d: %s needs %d targets, got %d", i, g.Type, info.numTargets, len(g.Targets))
		}
		if len(g.Params) != info.numParams {
			return fmt.Errorf("gate %d: %s needs %d params, got %d", i, g.Type, info.numParams, len(g.Params))
		}
		seen := make(map[int]bool)
		for _, q := range g.Qubits() {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("gate %d: qubit %d out of range [0, %d)", i, q, c.NumQubits)
			}
			if seen[q] {
				return fmt.Errorf("gate %d: qubit %d used twice", i, q)
			}
			seen[q] = true
		}
		if g.Type == "MEASURE" && (g.Clbit < 0 || g.Clbit >= c.NumClbits) {
			return fmt.Errorf("gate %d: classical bit %d out of range [0, %d)", i, g.Clbit, c.NumClbits)
		}
	}
	return nil
}

// Compose appends other onto c, mapping other's qubit i to qubits[i]. A nil
// qubits maps qubit i to i. When front is set, other is placed before the
// existing gates instead of after them.
func (c *Circuit) Compose(other *Circuit, qubits []int, front bool) error {
	if qubits == nil {
		qubits = make([]int, other.NumQubits)
		for q := range other.NumQubits {
			qubits[q] = q
		}
	}
	if len(qubits) != other.NumQubits {
		return fmt.Errorf("compose: %d qubits given for a %d qubit circuit", len(qubits), other.NumQubits)
	}
	for _, q := range qubits {
		if q < 0 || q >= c.NumQubits {
			return fmt.Errorf("compose: qubit %d out of range [0, %d)", q, c.NumQubits)
		}
	}
	if other.NumClbits > c.NumClbits {
		return fmt.Errorf("compose: %d classical bits needed, circuit has %d", other.NumClbits, c.NumClbits)
	}

	mapped := make([]Gate, len(other.Gates))
	for i, g := range other.Gates {
		g = g.clone()
		for j, t := range g.Targets {
			g.Targets[j] = qubits[t]
		}
		for j, ctrl := range g.Controls {
			g.Controls[j] = qubits[ctrl]
		}
		mapped[i] = g
	}
	if front {
		c.Gates = append(mapped, c.Gates...)
	} else {
		c.Gates = append(c.Gates, mapped...)
	}
	c.GlobalPhase += other.GlobalPhase
	return nil
}

// Control returns a controlled version of the circuit with numControls new
// control qubits placed before the original qubits. The global phase becomes
// a phase gate on the controls.
func (c *Circuit) Control(numControls int) (*Circuit, error) {
	ctrls := make([]int, numControls)
	for i := range numControls {
		ctrls[i] = i
	}
	out := New(c.NumQubits + numControls)
	out.Name = "c_" + c.Name
	for i, g := range c.Gates {
		if g.Type == "BARRIER" {
			continue
		}
		if !g.IsUnitary() {
			return nil, fmt.Errorf("control: gate %d (%s) is not unitary", i, g.Type)
		}
		g = g.clone()
		for j := range g.Targets {
			g.Targets[j] += numControls
		}
		for j := range g.Controls {
			g.Controls[j] += numControls
		}
		g.Controls = append(slices.Clone(ctrls), g.Controls...)
		out.Gates = append(out.Gates, g)
	}
	if numControls == 0 {
		out.GlobalPhase = c.GlobalPhase
	} else if phase := normalizeAngle(c.GlobalPhase); phase != 0 {
		out.AddParameterizedGate("P", ctrls[numControls-1], []float64{phase}, ctrls[:numControls-1]...)
	}
	return out, nil
}

// Power returns the circuit repeated k times.
func (c *Circuit) Power(k int) (*Circuit, error) {
	if k < 0 {
		return nil, fmt.Errorf("power: negative exponent %d", k)
	}
	out := New(c.NumQubits)
	out.Name = c.Name
	out.NumClbits = c.NumClbits
	out.Cregs = slices.Clone(c.Cregs)
	out.Gates = make([]Gate, 0, len(c.Gates)*k)
	for range k {
		for _, g := range c.Gates {
			out.Gates = append(out.Gates, g.clone())
		}
	}
	out.GlobalPhase = c.GlobalPhase * float64(k)
	return out, nil
}

// CountOps returns the number of gates of each type.
func (c *Circuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, g := range c.Gates {
		counts[g.Type]++
	}
	return counts
}

// Depth returns the length of the critical path through the circuit,
// ignoring barriers.
func (c *Circuit) Depth() int {
	level := make([]int, c.NumQubits)
	depth := 0
	for _, g := range c.Gates {
		qs := g.Qubits()
		top := 0
		for _, q := range qs {
			top = max(top, level[q])
		}
		if g.Type != "BARRIER" {
			top++
		}
		for _, q := range qs {
			level[q] = top
		}
		depth = max(depth, top)
	}
	return depth
}

// HasMeasurements reports whether the circuit contains any measurement.
func (c *Circuit) HasMeasurements() bool {
	return slices.ContainsFunc(c.Gates, func(g Gate) bool { return g.Type == "MEASURE" })
}

// normalizeAngle maps an angle into (-pi, pi], snapping values within 1e-12
// of zero to exactly zero.
func normalizeAngle(theta float64) float64 {
	theta = math.Remainder(theta, 2*math.Pi)
	if math.Abs(theta) < 1e-12 {
		return 0
	}
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
