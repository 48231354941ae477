package circuit

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Pre-compiled regexps for QASM parsing.
var (
	qregRegex        = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	cregRegex        = regexp.MustCompile(`^creg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex     = regexp.MustCompile(`^measure\s+(\w+(?:\s*\[\s*\d+\s*\])?)\s*->\s*(\w+(?:\s*\[\s*\d+\s*\])?)$`)
	gateRegex        = regexp.MustCompile(`^([a-z][a-z0-9_]*)\s*(?:\(([^)]*)\))?\s+(.+)$`)
	argRegex         = regexp.MustCompile(`^(\w+)(?:\s*\[\s*(\d+)\s*\])?$`)
	globalPhaseRegex = regexp.MustCompile(`^//\s*global_phase\s+(\S+)$`)
)

// exportNames is the preferred QASM 2.0 spelling of each (type, controls) pair.
var exportNames = map[qasmGate]string{
	{"I", 0}: "id", {"H", 0}: "h", {"X", 0}: "x", {"Y", 0}: "y", {"Z", 0}: "z",
	{"S", 0}: "s", {"SDG", 0}: "sdg", {"T", 0}: "t", {"TDG", 0}: "tdg",
	{"SX", 0}: "sx", {"SXDG", 0}: "sxdg",
	{"RX", 0}: "rx", {"RY", 0}: "ry", {"RZ", 0}: "rz", {"P", 0}: "p",
	{"U2", 0}: "u2", {"U3", 0}: "u3", {"SWAP", 0}: "swap",
	{"X", 1}: "cx", {"Y", 1}: "cy", {"Z", 1}: "cz", {"H", 1}: "ch", {"SX", 1}: "csx",
	{"P", 1}: "cp", {"RX", 1}: "crx", {"RY", 1}: "cry", {"RZ", 1}: "crz",
	{"U3", 1}: "cu3", {"SWAP", 1}: "cswap", {"X", 2}: "ccx",
}

// diagonalPhase gives the phase-gate angle of the fixed diagonal gates so they
// can be exported as cp when controlled.
var diagonalPhase = map[string]float64{
	"Z":   math.Pi,
	"S":   math.Pi / 2,
	"SDG": -math.Pi / 2,
	"T":   math.Pi / 4,
	"TDG": -math.Pi / 4,
}

type qreg struct {
	offset int
	size   int
}

// qasmParser holds the register tables built while parsing.
type qasmParser struct {
	c     *Circuit
	qregs map[string]qreg
}

// ParseQASM parses OpenQASM 2.0 text into a new circuit.
func ParseQASM(qasm string) (*Circuit, error) {
	p := &qasmParser{c: New(0), qregs: make(map[string]qreg)}

	for lineNo, line := range strings.Split(qasm, "\n") {
		line = strings.TrimSpace(line)
		if m := globalPhaseRegex.FindStringSubmatch(line); m != nil {
			phase, ok := parseParamExpr(m[1])
			if !ok {
				return nil, fmt.Errorf("line %d: invalid global phase %q", lineNo+1, m[1])
			}
			p.c.GlobalPhase = phase
			continue
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
		}
	}
	if err := p.c.Validate(); err != nil {
		return nil, err
	}
	return p.c, nil
}

func (p *qasmParser) statement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "OPENQASM"), strings.HasPrefix(stmt, "include"):
		return nil
	case strings.HasPrefix(stmt, "qreg"):
		m := qregRegex.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("malformed qreg %q", stmt)
		}
		n, _ := strconv.Atoi(m[2])
		p.qregs[m[1]] = qreg{offset: p.c.NumQubits, size: n}
		p.c.NumQubits += n
		return nil
	case strings.HasPrefix(stmt, "creg"):
		m := cregRegex.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("malformed creg %q", stmt)
		}
		n, _ := strconv.Atoi(m[2])
		_, err := p.c.AddClassicalRegister(m[1], n)
		return err
	case strings.HasPrefix(stmt, "measure"):
		return p.measure(stmt)
	case strings.HasPrefix(stmt, "barrier"):
		var qubits []int
		for _, arg := range strings.Split(strings.TrimSpace(strings.TrimPrefix(stmt, "barrier")), ",") {
			qs, err := p.qubits(arg)
			if err != nil {
				return err
			}
			qubits = append(qubits, qs...)
		}
		p.c.AddBarrier(qubits...)
		return nil
	case strings.HasPrefix(stmt, "reset"):
		qs, err := p.qubits(strings.TrimPrefix(stmt, "reset"))
		if err != nil {
			return err
		}
		for _, q := range qs {
			p.c.AddReset(q)
		}
		return nil
	case strings.HasPrefix(stmt, "gate "), strings.HasPrefix(stmt, "if"), strings.HasPrefix(stmt, "opaque"):
		return fmt.Errorf("unsupported statement %q", stmt)
	}
	return p.gate(stmt)
}

func (p *qasmParser) measure(stmt string) error {
	m := measureRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("malformed measure %q", stmt)
	}
	qs, err := p.qubits(m[1])
	if err != nil {
		return err
	}
	cs, err := p.clbits(m[2])
	if err != nil {
		return err
	}
	if len(qs) != len(cs) {
		return fmt.Errorf("measure: %d qubits into %d classical bits", len(qs), len(cs))
	}
	for i := range qs {
		p.c.Measure(qs[i], cs[i])
	}
	return nil
}

func (p *qasmParser) gate(stmt string) error {
	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("unrecognised statement %q", stmt)
	}
	qg, ok := qasmGates[m[1]]
	if !ok {
		return fmt.Errorf("unsupported gate %q", m[1])
	}
	info, _ := lookupGate(qg.gateType)
	params, err := parseParamList(m[2])
	if err != nil {
		return err
	}
	if len(params) != info.numParams {
		return fmt.Errorf("%s takes %d parameters, got %d", m[1], info.numParams, len(params))
	}

	args := strings.Split(m[3], ",")
	want := qg.numControls + info.numTargets
	if len(args) != want {
		return fmt.Errorf("%s takes %d qubit arguments, got %d", m[1], want, len(args))
	}
	resolved := make([][]int, len(args))
	width := 1
	for i, arg := range args {
		qs, err := p.qubits(arg)
		if err != nil {
			return err
		}
		resolved[i] = qs
		if len(qs) > 1 {
			if width > 1 && len(qs) != width {
				return fmt.Errorf("%s: register arguments of different sizes", m[1])
			}
			width = len(qs)
		}
	}

	// Whole-register arguments broadcast the gate over each index.
	for k := range width {
		qubits := make([]int, len(resolved))
		for i, qs := range resolved {
			if len(qs) == 1 {
				qubits[i] = qs[0]
			} else {
				qubits[i] = qs[k]
			}
		}
		p.c.Gates = append(p.c.Gates, Gate{
			Type:     qg.gateType,
			Controls: slices.Clone(qubits[:qg.numControls]),
			Targets:  slices.Clone(qubits[qg.numControls:]),
			Params:   slices.Clone(params),
			Clbit:    -1,
		})
	}
	return nil
}

// qubits resolves "q[3]" to one qubit and "q" to every qubit of register q.
func (p *qasmParser) qubits(arg string) ([]int, error) {
	m := argRegex.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return nil, fmt.Errorf("malformed qubit argument %q", arg)
	}
	r, ok := p.qregs[m[1]]
	if !ok {
		return nil, fmt.Errorf("unknown quantum register %q", m[1])
	}
	return registerRange(r.offset, r.size, m[2])
}

func (p *qasmParser) clbits(arg string) ([]int, error) {
	m := argRegex.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return nil, fmt.Errorf("malformed classical argument %q", arg)
	}
	r, ok := p.c.Register(m[1])
	if !ok {
		return nil, fmt.Errorf("unknown classical register %q", m[1])
	}
	return registerRange(r.Offset, r.Size, m[2])
}

func registerRange(offset, size int, index string) ([]int, error) {
	if index == "" {
		out := make([]int, size)
		for i := range size {
			out[i] = offset + i
		}
		return out, nil
	}
	i, _ := strconv.Atoi(index)
	if i >= size {
		return nil, fmt.Errorf("index %d out of range for register of size %d", i, size)
	}
	return []int{offset + i}, nil
}

// ToQASM generates QASM 2.0 output from the circuit. Gates with more controls
// than qelib1.inc can express are reported as errors.
func (c *Circuit) ToQASM() (string, error) {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	if phase := normalizeAngle(c.GlobalPhase); phase != 0 {
		fmt.Fprintf(&sb, "// global_phase %s\n", formatParam(phase))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", max(c.NumQubits, 1))

	cregs := c.Cregs
	if len(cregs) == 0 && c.NumClbits > 0 {
		cregs = []Register{{Name: "c", Size: c.NumClbits}}
	}
	for _, r := range cregs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", r.Name, r.Size)
	}
	sb.WriteString("\n")

	for i, g := range c.Gates {
		switch g.Type {
		case "BARRIER":
			fmt.Fprintf(&sb, "barrier %s;\n", qubitList(g.Targets))
		case "RESET":
			fmt.Fprintf(&sb, "reset q[%d];\n", g.Targets[0])
		case "MEASURE":
			reg, idx := clbitRef(cregs, g.Clbit)
			fmt.Fprintf(&sb, "measure q[%d] -> %s[%d];\n", g.Targets[0], reg, idx)
		default:
			name, params, err := exportName(g)
			if err != nil {
				return "", fmt.Errorf("gate %d: %w", i, err)
			}
			if len(params) > 0 {
				parts := make([]string, len(params))
				for j, v := range params {
					parts[j] = formatParam(v)
				}
				fmt.Fprintf(&sb, "%s(%s) %s;\n", name, strings.Join(parts, ", "), qubitList(g.Qubits()))
			} else {
				fmt.Fprintf(&sb, "%s %s;\n", name, qubitList(g.Qubits()))
			}
		}
	}

	return sb.String(), nil
}

func exportName(g Gate) (string, []float64, error) {
	if name, ok := exportNames[qasmGate{g.Type, len(g.Controls)}]; ok {
		return name, g.Params, nil
	}
	if phase, ok := diagonalPhase[g.Type]; ok && len(g.Controls) == 1 {
		return "cp", []float64{phase}, nil
	}
	return "", nil, fmt.Errorf("%s with %d controls has no QASM 2.0 form", g.Type, len(g.Controls))
}

func qubitList(qubits []int) string {
	parts := make([]string, len(qubits))
	for i, q := range qubits {
		parts[i] = fmt.Sprintf("q[%d]", q)
	}
	return strings.Join(parts, ", ")
}

func clbitRef(cregs []Register, clbit int) (string, int) {
	for _, r := range cregs {
		if clbit >= r.Offset && clbit < r.Offset+r.Size {
			return r.Name, clbit - r.Offset
		}
	}
	return "c", clbit
}
