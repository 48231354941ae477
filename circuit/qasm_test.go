package circuit

import (
	"math"
	"strings"
	"testing"
)

func TestParseNamedCregs(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c0[1];
creg c1[1];

h q[1];
cx q[1], q[2];
cx q[0], q[1];
h q[0];
measure q[0] -> c0[0];
measure q[1] -> c1[0];`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}

	for _, g := range c.Gates {
		t.Logf("Type=%s Targets=%v Controls=%v Clbit=%d", g.Type, g.Targets, g.Controls, g.Clbit)
	}

	if len(c.Gates) != 6 {
		t.Fatalf("expected 6 gates, got %d", len(c.Gates))
	}
	if c.NumQubits != 3 || c.NumClbits != 2 {
		t.Fatalf("expected 3 qubits and 2 clbits, got %d and %d", c.NumQubits, c.NumClbits)
	}

	g1 := c.Gates[1]
	if g1.Type != "X" || g1.Targets[0] != 2 || len(g1.Controls) != 1 || g1.Controls[0] != 1 {
		t.Errorf("gate 1: expected X on q[2] controlled by q[1], got Type=%s Targets=%v Controls=%v",
			g1.Type, g1.Targets, g1.Controls)
	}

	// c1 is the second register, so its bit 0 is classical bit 1.
	g5 := c.Gates[5]
	if g5.Type != "MEASURE" || g5.Targets[0] != 1 || g5.Clbit != 1 {
		t.Errorf("gate 5: expected measure q[1] -> clbit 1, got Type=%s Targets=%v Clbit=%d",
			g5.Type, g5.Targets, g5.Clbit)
	}
}

func TestParseParameterizedGates(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
rx(pi/2) q[0];
cp(-3*pi/4) q[0], q[1];
u3(pi, 0, pi) q[1];
u1(0.25) q[0];`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	tests := []struct {
		typ    string
		params []float64
		ctrls  int
	}{
		{"RX", []float64{math.Pi / 2}, 0},
		{"P", []float64{-3 * math.Pi / 4}, 1},
		{"U3", []float64{math.Pi, 0, math.Pi}, 0},
		{"P", []float64{0.25}, 0},
	}
	if len(c.Gates) != len(tests) {
		t.Fatalf("expected %d gates, got %d", len(tests), len(c.Gates))
	}
	for i, tt := range tests {
		g := c.Gates[i]
		if g.Type != tt.typ || len(g.Controls) != tt.ctrls {
			t.Errorf("gate %d: expected %s with %d controls, got %s with %d", i, tt.typ, tt.ctrls, g.Type, len(g.Controls))
		}
		for j, p := range tt.params {
			if math.Abs(g.Params[j]-p) > 1e-12 {
				t.Errorf("gate %d param %d: expected %v, got %v", i, j, p, g.Params[j])
			}
		}
	}
}

func TestParseBroadcastAndMultiStatementLines(t *testing.T) {
	qasm := `qreg q[3]; creg meas[3];
h q; barrier q;
measure q -> meas;`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	ops := c.CountOps()
	if ops["H"] != 3 || ops["BARRIER"] != 1 || ops["MEASURE"] != 3 {
		t.Errorf("unexpected op counts: %v", ops)
	}
	if got := c.Gates[3].Targets; len(got) != 3 {
		t.Errorf("barrier should span 3 qubits, got %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		qasm string
		want string
	}{
		{"unknown gate", "qreg q[1];\nfoo q[0];", "line 2"},
		{"unknown register", "qreg q[1];\nh r[0];", "unknown quantum register"},
		{"out of range", "qreg q[1];\nh q[1];", "out of range"},
		{"missing param", "qreg q[1];\nrx q[0];", "parameters"},
		{"bad param", "qreg q[1];\nrx(tau) q[0];", "invalid parameter"},
		{"arity", "qreg q[2];\ncx q[0];", "qubit arguments"},
		{"conditional", "qreg q[1];\ncreg c[1];\nif(c==1) x q[0];", "unsupported"},
		{"same qubit twice", "qreg q[2];\ncx q[0], q[0];", "used twice"},
		{"duplicate creg", "qreg q[1];\ncreg c[1];\ncreg c[2];", "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQASM(tt.qasm)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRoundTripQASM(t *testing.T) {
	c := New(3)
	c.GlobalPhase = math.Pi / 4
	c.AddGate("H", 0)
	c.AddGate("X", 2, 0)
	c.AddParameterizedGate("P", 1, []float64{math.Pi / 8}, 0)
	c.AddGate("S", 2, 1)
	c.AddSwap(0, 1)
	c.AddGate("X", 2, 0, 1)
	c.AddClassicalRegister("meas", 2)
	c.AddBarrier()
	c.Measure(0, 0)
	c.Measure(1, 1)

	qasm, err := c.ToQASM()
	if err != nil {
		t.Fatalf("ToQASM error: %v", err)
	}
	t.Logf("Round-trip QASM output:\n%s", qasm)

	for _, want := range []string{"// global_phase pi/4", "cx q[0], q[2];", "cp(pi/8) q[0], q[1];",
		"cp(pi/2) q[1], q[2];", "ccx q[0], q[1], q[2];", "creg meas[2];", "measure q[1] -> meas[1];"} {
		if !strings.Contains(qasm, want) {
			t.Errorf("QASM output missing %q", want)
		}
	}

	c2, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("re-parse error: %v", err)
	}
	if len(c2.Gates) != len(c.Gates) {
		t.Fatalf("round trip: expected %d gates, got %d", len(c.Gates), len(c2.Gates))
	}
	if math.Abs(c2.GlobalPhase-c.GlobalPhase) > 1e-12 {
		t.Errorf("round trip: global phase %v, want %v", c2.GlobalPhase, c.GlobalPhase)
	}
}

func TestToQASMRejectsInexpressibleGates(t *testing.T) {
	c := New(3)
	c.AddParameterizedGate("RY", 2, []float64{0.3}, 0, 1)
	if _, err := c.ToQASM(); err == nil {
		t.Fatal("expected error for doubly controlled RY")
	}
}

func TestParamExpressions(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"pi", math.Pi},
		{"-pi/2", -math.Pi / 2},
		{"3*pi/4", 3 * math.Pi / 4},
		{"2pi", 2 * math.Pi},
		{"1.5e-1", 0.15},
	}
	for _, tt := range tests {
		got, ok := parseParamExpr(tt.in)
		if !ok || math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("parseParamExpr(%q) = %v, %v; want %v", tt.in, got, ok, tt.want)
		}
	}

	formats := map[float64]string{
		math.Pi:            "pi",
		-math.Pi / 2:       "-pi/2",
		3 * math.Pi / 4:    "3*pi/4",
		2 * math.Pi:        "2*pi",
		math.Pi / 1024:     "pi/1024",
		0.3:                "0.3",
		0:                  "0",
		2 * math.Pi / 3:    "2*pi/3",
		-15 * math.Pi / 16: "-15*pi/16",
	}
	for in, want := range formats {
		if got := formatParam(in); got != want {
			t.Errorf("formatParam(%v) = %q, want %q", in, got, want)
		}
	}
}
