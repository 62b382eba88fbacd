// Package tui provides an interactive terminal browser over the stages of a
// continuation run.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/objective"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	sub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	key    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

type Model struct {
	title     string
	res       *continuation.Result
	residual  func(objective.Point) float64
	cursor    int
	showTrace bool
	width     int
	height    int
}

// NewBrowser builds the browser model; residual may be nil.
func NewBrowser(title string, res *continuation.Result, residual func(objective.Point) float64) Model {
	return Model{title: title, res: res, residual: residual, width: 80, height: 24}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.res.Stages)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if n := len(m.res.Stages); n > 0 {
			m.cursor = n - 1
		}
	case "enter", " ", "t":
		m.showTrace = !m.showTrace
	}
	return m, nil
}

// Cursor returns the selected stage index.
func (m Model) Cursor() int { return m.cursor }

func (m Model) ShowTrace() bool { return m.showTrace }

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString("  " + sub.Render("x0 = "+m.res.Initial.String()) + "\n")
	b.WriteString("  " + sub.Render(strings.Repeat("─", max(min(40, m.width-4), 10))) + "\n\n")

	if len(m.res.Stages) == 0 {
		b.WriteString("  " + dim.Render("no stages") + "\n")
		return b.String() + m.help()
	}

	for i, st := range m.res.Stages {
		line := fmt.Sprintf("%2d  R=%-8g %s", st.Index+1, st.R, st.Result.Point)
		if i == m.cursor {
			b.WriteString("  " + cyan.Render("▸ ") + white.Render(line) + "  " + statusBadge(st) + "\n")
		} else {
			b.WriteString("    " + dim.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + m.detail(m.res.Stages[m.cursor]))
	return b.String() + m.help()
}

func (m Model) detail(st continuation.Stage) string {
	var b strings.Builder
	sr := st.Result
	fmt.Fprintf(&b, "  start      %s\n", st.Start)
	fmt.Fprintf(&b, "  result     %s\n", sr.Point)
	fmt.Fprintf(&b, "  iterations %d  halvings %d  damping %g\n", sr.Iterations, sr.Halvings, sr.Damping)
	fmt.Fprintf(&b, "  |grad|     %.3e  value %.6f\n", sr.GradNorm, sr.Value)
	if m.residual != nil {
		fmt.Fprintf(&b, "  residual   %.3e\n", m.residual(sr.Point))
	}
	if ref := st.Reference; ref != nil {
		if ref.Converged {
			fmt.Fprintf(&b, "  reference  %s %s  Δ=%.2e\n", ref.Method, ref.Point, ref.Distance)
		} else {
			fmt.Fprintf(&b, "  reference  %s\n", red.Render(ref.Method+" failed: "+ref.Message))
		}
	}

	if m.showTrace {
		b.WriteString("\n  " + sub.Render("iter  x                          |grad|     damping") + "\n")
		trace := sr.Trace
		if limit := m.traceRows(); len(trace) > limit {
			trace = trace[:limit]
		}
		for _, it := range trace {
			mark := " "
			if !it.Improved {
				mark = yellow.Render("↓")
			}
			fmt.Fprintf(&b, "  %4d  %-26s %.3e  %-8g %s\n", it.Index, it.Point, it.GradNorm, it.Damping, mark)
		}
		if hidden := len(sr.Trace) - len(trace); hidden > 0 {
			b.WriteString("  " + dim.Render(fmt.Sprintf("… %d more", hidden)) + "\n")
		}
	}
	return b.String()
}

// traceRows is how many trace lines fit below the stage list.
func (m Model) traceRows() int {
	return max(m.height-len(m.res.Stages)-16, 3)
}

func (m Model) help() string {
	return "\n  " + key.Render("j/k") + dim.Render(" navigate  ") +
		key.Render("enter") + dim.Render(" trace  ") +
		key.Render("q") + dim.Render(" quit") + "\n"
}

func statusBadge(st continuation.Stage) string {
	badge := green.Render(st.Result.Status.String())
	if !st.Result.Converged() {
		badge = yellow.Render(st.Result.Status.String())
	}
	if st.Reference != nil && !st.Reference.Converged {
		badge += " " + red.Render("ref failed")
	}
	return badge
}

// Run opens the browser on the alternate screen.
func Run(title string, res *continuation.Result, residual func(objective.Point) float64) error {
	_, err := tea.NewProgram(NewBrowser(title, res, residual), tea.WithAltScreen()).Run()
	return err
}
