package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jorconnor/qphase/phase"
)

// browser is the interactive histogram view.
type browser struct {
	summary     summary
	phases      []phase.Phase
	cursor      int
	offset      int // first visible row
	bar         progress.Model
	circuit     viewport.Model
	showCircuit bool
	width       int
	height      int
}

func newBrowser(s summary, phases []phase.Phase, drawing string) browser {
	vp := viewport.New(80, 8)
	vp.SetContent(drawing)
	return browser{
		summary: s,
		phases:  phases,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		circuit: vp,
	}
}

func (m browser) Init() tea.Cmd {
	return nil
}

// rows returns how many phase rows fit on screen.
func (m browser) rows() int {
	used := 10 // title, borders, controls panel
	if m.showCircuit {
		used += m.circuit.Height + 2
	}
	return max(m.height-used, 1)
}

func (m browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-bitsW-valueW-freqW-16, minBar)
		m.circuit.Width = max(msg.Width-6, 20)
		m.circuit.Height = max(msg.Height/3, 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.phases)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.phases)-1, 0)
		case "c":
			m.showCircuit = !m.showCircuit
		default:
			if m.showCircuit {
				var cmd tea.Cmd
				m.circuit, cmd = m.circuit.Update(msg)
				return m, cmd
			}
		}
	}

	rows := m.rows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	return m, nil
}

// View renders the UI.
func (m browser) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.summary.title()))
	sb.WriteString("\n\n")
	if len(m.phases) == 0 {
		sb.WriteString(dimStyle.Render("no phases above the cutoff"))
	}
	end := min(m.offset+m.rows(), len(m.phases))
	for i := m.offset; i < end; i++ {
		p := m.phases[i]
		marker := "  "
		bits := bitsStyle.Render(fmt.Sprintf("%-*s", bitsW, p.Bits))
		if i == m.cursor {
			marker = selectedStyle.Render("▸ ")
			bits = selectedStyle.Render(fmt.Sprintf("%-*s", bitsW, p.Bits))
		}
		fmt.Fprintf(&sb, "%s%s %*.4f %s %*.2f%%\n",
			marker, bits, valueW, p.Value, m.bar.ViewAs(p.Frequency), freqW-1, 100*p.Frequency)
	}
	panelW := max(m.width-4, 20)
	panels := []string{histogramStyle.Width(panelW).Render(sb.String())}

	if m.showCircuit {
		panels = append(panels, circuitStyle.Width(panelW).Render(m.circuit.View()))
	}
	panels = append(panels, m.renderControlsPanel(panelW))
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

// renderControlsPanel renders the bottom help bar.
func (m browser) renderControlsPanel(width int) string {
	var sb strings.Builder

	sb.WriteString(keyStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Move  g/G First/last")
	if m.showCircuit {
		sb.WriteString("  PgUp/PgDn Scroll circuit")
	}
	sb.WriteString("\n")
	sb.WriteString(keyStyle.Render("Actions:  "))
	sb.WriteString("c Toggle circuit  q/^C Quit")
	if len(m.phases) > 0 {
		p := m.phases[m.cursor]
		sb.WriteString(dimStyle.Render(fmt.Sprintf("    selected: %s = %.6f", p.Bits, p.Value)))
	}

	return controlsStyle.Width(width).Render(sb.String())
}
