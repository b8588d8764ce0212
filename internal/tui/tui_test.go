package tui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/threadlink/rng"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	return NewModel(rng.NewSession(42), rng.Combat, "combat", nil, logger)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestStepShowsGoldenValues(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < 3; i++ {
		m.Step()
	}

	draws := m.Draws()
	require.Len(t, draws, 3)
	assert.Equal(t, uint64(0xc2a6eebdf3976ad0), draws[0].Raw)
	assert.Equal(t, uint64(0xa759ea27d4727622), draws[1].Raw)
	assert.Equal(t, []int{80, 62, 12}, []int{draws[0].Range, draws[1].Range, draws[2].Range})
	for i, d := range draws {
		assert.Equal(t, uint64(i), d.Counter)
		assert.GreaterOrEqual(t, d.Float, 0.0)
		assert.Less(t, d.Float, 1.0)
	}
}

func TestKeysDrawAndReset(t *testing.T) {
	m := newTestModel(t)

	m.Update(key('n'))
	m.Update(key(' '))
	m.Update(key('n'))
	first := append([]Draw(nil), m.Draws()...)
	require.Len(t, first, 3)

	m.Update(key('r'))
	assert.Empty(t, m.Draws())
	assert.Equal(t, uint64(0), m.stream.Counter())

	for i := 0; i < 3; i++ {
		m.Update(key('n'))
	}
	assert.Equal(t, first, m.Draws(), "reset must replay the identical sequence")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(key('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Step()

	view := m.View()
	assert.Contains(t, view, "combat")
	assert.Contains(t, view, "0xc2a6eebdf3976ad0")
	assert.Contains(t, view, "n/space: draw")
	assert.NotContains(t, view, "not booted")
}

func TestViewWarnsWhenUnbooted(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	m := NewModel(&rng.Session{}, rng.Loot, "loot", rng.Of(1, 2), logger)

	assert.Contains(t, m.View(), "not booted")
}
