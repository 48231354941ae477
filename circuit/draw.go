package circuit

import (
	"fmt"
	"slices"
	"strings"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width, filling with fill.
func padCenter(s string, width int, fill string) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	total := width - n
	left := total / 2
	right := total - left
	return strings.Repeat(fill, left) + s + strings.Repeat(fill, right)
}

// gateDisplayName returns a short display name for a gate.
func gateDisplayName(g Gate) string {
	info, ok := lookupGate(g.Type)
	if !ok {
		return g.Type
	}
	if len(g.Params) == 1 {
		return fmt.Sprintf("%s(%s)", info.symbol, formatParam(g.Params[0]))
	}
	return info.symbol
}

// controlSymbol returns the wire symbol for a control qubit.
func controlSymbol() string {
	return "■"
}

// targetSymbol returns the wire symbol for the target qubit of a controlled gate.
func targetSymbol(g Gate) string {
	switch g.Type {
	case "X":
		return "⊕"
	case "SWAP":
		return "×"
	default:
		return "[" + gateDisplayName(g) + "]"
	}
}

// ──────────────────────────── Layout ────────────────────────────

// layers packs gates into columns: each gate goes into the first column after
// the last one occupied on any wire between its lowest and highest qubit, so
// vertical connectors never cross another gate.
func (c *Circuit) layers() [][]Gate {
	next := make([]int, c.NumQubits)
	var cols [][]Gate
	for _, g := range c.Gates {
		if len(g.Qubits()) == 0 {
			continue
		}
		lo, hi := span(g)
		col := 0
		for q := lo; q <= hi; q++ {
			col = max(col, next[q])
		}
		for len(cols) <= col {
			cols = append(cols, nil)
		}
		cols[col] = append(cols[col], g)
		for q := lo; q <= hi; q++ {
			next[q] = col + 1
		}
	}
	return cols
}

func span(g Gate) (int, int) {
	qs := g.Qubits()
	return slices.Min(qs), slices.Max(qs)
}

// cellFor returns the text of qubit's cell in a column.
func cellFor(col []Gate, qubit int) string {
	for _, g := range col {
		lo, hi := span(g)
		if qubit < lo || qubit > hi {
			continue
		}
		switch {
		case g.Type == "BARRIER":
			if slices.Contains(g.Targets, qubit) {
				return "░"
			}
			return ""
		case g.Type == "MEASURE":
			return fmt.Sprintf("M%d", g.Clbit)
		case slices.Contains(g.Controls, qubit):
			return controlSymbol()
		case slices.Contains(g.Targets, qubit):
			if len(g.Controls) > 0 || g.Type == "SWAP" {
				return targetSymbol(g)
			}
			return "[" + gateDisplayName(g) + "]"
		default:
			return "│"
		}
	}
	return ""
}

// Draw renders the circuit as text, one line per qubit.
func (c *Circuit) Draw() string {
	cols := c.layers()
	label := len(fmt.Sprintf("q%d: ", max(c.NumQubits-1, 0)))
	lines := make([]strings.Builder, c.NumQubits)
	for q := range c.NumQubits {
		fmt.Fprintf(&lines[q], "%-*s", label, fmt.Sprintf("q%d: ", q))
		lines[q].WriteString("─")
	}

	for _, col := range cols {
		cells := make([]string, c.NumQubits)
		width := 1
		for q := range c.NumQubits {
			cells[q] = cellFor(col, q)
			width = max(width, len([]rune(cells[q])))
		}
		for q := range c.NumQubits {
			lines[q].WriteString(padCenter(cells[q], width, "─"))
			lines[q].WriteString("─")
		}
	}

	var sb strings.Builder
	if phase := normalizeAngle(c.GlobalPhase); phase != 0 {
		fmt.Fprintf(&sb, "global phase: %s\n", formatParam(phase))
	}
	for q := range lines {
		sb.WriteString(lines[q].String())
		sb.WriteString("\n")
	}
	return sb.String()
}
