package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/jorconnor/qphase/phase"
)

// summary describes an estimation run for display.
type summary struct {
	backend         string
	evalQubits      int
	shots           int
	mostLikelyPhase float64
}

func (s summary) title() string {
	t := fmt.Sprintf("Phase estimation · %s · %d evaluation qubits", s.backend, s.evalQubits)
	if s.shots > 0 {
		t += fmt.Sprintf(" · %d shots", s.shots)
	}
	return t
}

// renderHistogram draws one bar per phase, scaled so the largest frequency
// fills barWidth.
func renderHistogram(s summary, phases []phase.Phase, barWidth int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(s.title()))
	sb.WriteString("\n\n")

	if len(phases) == 0 {
		sb.WriteString(dimStyle.Render("no phases above the cutoff"))
		return histogramStyle.Render(sb.String())
	}

	peak := 0.0
	for _, p := range phases {
		peak = max(peak, p.Frequency)
	}
	barWidth = max(barWidth, minBar)
	for _, p := range phases {
		n := int(math.Round(p.Frequency / peak * float64(barWidth)))
		bar := barStyle
		if p.Value == s.mostLikelyPhase {
			bar = peakStyle
		}
		fmt.Fprintf(&sb, "%s %s %s %s\n",
			bitsStyle.Render(fmt.Sprintf("%-*s", bitsW, p.Bits)),
			fmt.Sprintf("%*.4f", valueW, p.Value),
			bar.Render(strings.Repeat("█", n)+strings.Repeat(" ", barWidth-n)),
			fmt.Sprintf("%*.2f%%", freqW-1, 100*p.Frequency))
	}
	sb.WriteString("\n")
	sb.WriteString(keyStyle.Render("most likely phase: "))
	sb.WriteString(fmt.Sprintf("%.6f", s.mostLikelyPhase))
	return histogramStyle.Render(sb.String())
}
