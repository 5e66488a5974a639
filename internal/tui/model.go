// Package tui is the terminal front end of the playground.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/danielpatrickdp/rlhf-playground/internal/playground"
	"github.com/danielpatrickdp/rlhf-playground/internal/prefs"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
)

// Config configures the terminal model.
type Config struct {
	ExportDir string      // where exported files are written
	Theme     prefs.Theme // color scheme
}

// #region model
// Model is the bubbletea model driving one playground session.
type Model struct {
	ctx    context.Context
	pg     *playground.Playground
	ids    []string
	tab    int
	cursor int

	exportDir string
	writeFile func(name string, data []byte) error

	styles Styles
	keys   keyMap
	help   help.Model

	width    int
	status   string
	quitting bool
}

// New creates a model over pg. The active scenario becomes the selected tab.
func New(ctx context.Context, pg *playground.Playground, cfg Config) Model {
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	ids := pg.Registry().IDs()
	tab := 0
	for i, id := range ids {
		if id == pg.Active().ID {
			tab = i
		}
	}
	return Model{
		ctx:       ctx,
		pg:        pg,
		ids:       ids,
		tab:       tab,
		exportDir: cfg.ExportDir,
		writeFile: func(name string, data []byte) error {
			return os.WriteFile(name, data, 0o644)
		},
		styles: NewStyles(cfg.Theme),
		keys:   defaultKeys(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.pg.View().Controls

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(controls)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Left):
		m.nudge(controls, -1)
	case key.Matches(msg, m.keys.Right):
		m.nudge(controls, 1)
	case key.Matches(msg, m.keys.Next):
		m.selectTab(m.tab + 1)
	case key.Matches(msg, m.keys.Prev):
		m.selectTab(m.tab - 1)
	case key.Matches(msg, m.keys.Reset):
		m.pg.Reset()
		m.status = "Controls reset."
	case key.Matches(msg, m.keys.Record):
		if _, ok := m.pg.Record(""); ok {
			m.status = fmt.Sprintf("Recorded run %d of %d.", len(m.pg.Entries()), m.pg.View().LogCapacity)
		} else {
			m.status = m.pg.Status()
		}
	case key.Matches(msg, m.keys.Clear):
		m.pg.ClearLog()
		m.status = m.pg.Status()
	case key.Matches(msg, m.keys.CSV):
		m.export(m.pg.ExportCSV)
	case key.Matches(msg, m.keys.XLSX):
		m.export(m.pg.ExportXLSX)
	case key.Matches(msg, m.keys.PNG):
		m.export(func(w io.Writer) present.Status { return m.pg.ExportChart(present.PNG, w) })
	case key.Matches(msg, m.keys.SVG):
		m.export(func(w io.Writer) present.Status { return m.pg.ExportChart(present.SVG, w) })
	case key.Matches(msg, m.keys.Analogy):
		m.pg.CycleAnalogy(m.ctx)
		m.status = m.pg.Status()
	}
	return m, nil
}

// #endregion model

// #region actions
func (m *Model) nudge(controls []present.Control, delta int) {
	if m.cursor >= len(controls) {
		return
	}
	m.pg.Nudge(controls[m.cursor].ID, delta)
	m.status = ""
}

func (m *Model) selectTab(i int) {
	n := len(m.ids)
	i = ((i % n) + n) % n
	if err := m.pg.Select(m.ids[i]); err != nil {
		m.status = err.Error()
		return
	}
	m.tab = i
	m.cursor = 0
	m.status = ""
}

// export runs fn into a buffer and writes the file only when the export succeeded.
func (m *Model) export(fn func(io.Writer) present.Status) {
	var buf bytes.Buffer
	st := fn(&buf)
	if !st.OK {
		m.status = st.Message
		return
	}
	path := filepath.Join(m.exportDir, st.Filename)
	if err := m.writeFile(path, buf.Bytes()); err != nil {
		m.status = fmt.Sprintf("Could not write %s: %v", path, err)
		return
	}
	m.status = fmt.Sprintf("%s Saved %s", st.Message, path)
}

// #endregion actions
