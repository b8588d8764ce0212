// Package tui is an interactive viewer that steps through one stream.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/threadlink/rng"
)

// Draw is one row of the viewer
type Draw struct {
	Counter uint64
	Raw     uint64
	Range   int
	Float   float64
}

// Model is the bubbletea model for the stream viewer
type Model struct {
	session *rng.Session
	domain  rng.Domain
	label   string
	context rng.Components
	stream  rng.Stream
	draws   []Draw
	table   table.Model
	logger  *log.Logger
	width   int
	resets  int
}

// NewModel creates a viewer for the stream selected by domain and context
func NewModel(session *rng.Session, domain rng.Domain, label string, context rng.Components, logger *log.Logger) *Model {
	columns := []table.Column{
		{Title: "#", Width: 8},
		{Title: "Raw", Width: 20},
		{Title: "Range(0,100)", Width: 12},
		{Title: "Float01", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(styles)

	return &Model{
		session: session,
		domain:  domain,
		label:   label,
		context: context,
		stream:  session.SourceFrom(domain, context),
		table:   t,
		logger:  logger.WithPrefix("tui"),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "n", " ":
			m.Step()
			return m, nil
		case "r":
			m.Reset()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Step draws the next value and appends it to the table
func (m *Model) Step() Draw {
	counter := m.stream.Counter()
	raw := m.stream.Next()

	// derived values read the same draw from a copy
	fork := m.stream
	fork.Seek(counter)
	r := fork.Range(0, 100)
	fork.Seek(counter)
	f := fork.Float01()

	d := Draw{Counter: counter, Raw: raw, Range: r, Float: f}
	m.draws = append(m.draws, d)
	m.table.SetRows(m.rows())
	m.table.GotoBottom()

	m.logger.Debug("Draw", "domain", m.label, "counter", counter, "raw", raw)
	return d
}

// Reset rebuilds the stream from the session. The sequence restarts at
// counter zero and replays identically.
func (m *Model) Reset() {
	m.stream = m.session.SourceFrom(m.domain, m.context)
	m.draws = nil
	m.resets++
	m.table.SetRows(nil)
	m.logger.Debug("Reset stream", "domain", m.label, "resets", m.resets)
}

// Draws returns the values drawn since the last reset
func (m *Model) Draws() []Draw {
	return m.draws
}

func (m *Model) rows() []table.Row {
	rows := make([]table.Row, len(m.draws))
	for i, d := range m.draws {
		rows[i] = table.Row{
			fmt.Sprintf("%d", d.Counter),
			fmt.Sprintf("%#016x", d.Raw),
			fmt.Sprintf("%d", d.Range),
			fmt.Sprintf("%.12f", d.Float),
		}
	}
	return rows
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("threadlink"))
	b.WriteString(" ")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("seed %#x", m.session.Seed())))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("domain %s  context %v  counter %s\n",
		ValueStyle.Render(m.label),
		[]uint64(m.context),
		ValueStyle.Render(fmt.Sprintf("%d", m.stream.Counter()))))

	if !m.session.Booted() {
		b.WriteString(WarningStyle.Render("session not booted: seed is 0"))
		b.WriteString("\n")
	}

	b.WriteString(tableBorder.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("n/space: draw • r: reset • q: quit"))
	b.WriteString("\n")

	return b.String()
}

// Run starts the viewer and blocks until the user quits
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
