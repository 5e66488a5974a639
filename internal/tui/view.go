package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danielpatrickdp/rlhf-playground/internal/present"
)

const gaugeWidth = 20

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.pg.View()
	_, result := m.pg.Current()

	var b strings.Builder
	b.WriteString(m.tabs())
	b.WriteString("\n\n")
	b.WriteString(m.styles.Title.Render(v.Label))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(v.Chapter))
	b.WriteString("\n\n")

	left := m.controls(v.Controls)
	right := m.table(v.Table)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Panel.Render(left),
		" ",
		m.styles.Panel.Render(right),
	))
	b.WriteString("\n")

	for _, s := range result.Series {
		b.WriteString(fmt.Sprintf("%-16s %s\n", s.Name, m.styles.Spark.Render(Sparkline(s.Y, 40))))
	}
	if v.Annotation != "" {
		b.WriteString("\n")
		b.WriteString(v.Annotation)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Runs %d/%d  Analogy %s", v.LogLen, v.LogCapacity, m.pg.Analogy(m.ctx))))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.statusStyle().Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) tabs() string {
	parts := make([]string, 0, len(m.ids))
	for i, id := range m.ids {
		s, err := m.pg.Registry().Lookup(id)
		if err != nil {
			continue
		}
		style := m.styles.Tab
		if i == m.tab {
			style = m.styles.ActiveTab
		}
		parts = append(parts, style.Render(s.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) controls(cs []present.Control) string {
	var b strings.Builder
	for i, c := range cs {
		label, marker := m.styles.Label, "  "
		if i == m.cursor {
			label, marker = m.styles.Selected, "› "
		}
		b.WriteString(marker)
		b.WriteString(label.Render(c.Label))
		if c.Widget == present.WidgetSlider || c.Widget == present.WidgetStepper {
			b.WriteString(gauge(c))
			b.WriteString(" ")
		}
		b.WriteString(m.styles.Value.Render(c.Display))
		if i < len(cs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) table(rows []present.Row) string {
	var b strings.Builder
	for i, r := range rows {
		label := r.Label
		if label == "" {
			label = r.Name
		}
		b.WriteString(m.styles.Label.Render(label))
		b.WriteString(m.styles.Value.Render(r.Display))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) statusStyle() lipgloss.Style {
	if strings.HasPrefix(m.status, "Exported") || strings.HasPrefix(m.status, "Recorded") {
		return m.styles.StatusOK
	}
	return m.styles.Status
}

// gauge draws where a numeric control sits within its range.
func gauge(c present.Control) string {
	filled := 0
	if span := c.Max - c.Min; span > 0 {
		v, _ := strconv.ParseFloat(c.Value, 64)
		filled = int(math.Round((v - c.Min) / span * gaugeWidth))
		filled = max(0, min(filled, gaugeWidth))
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", gaugeWidth-filled) + "]"
}

// Sparkline renders ys as block characters, resampled to at most width
// columns. Non-finite values are drawn as spaces.
func Sparkline(ys []float64, width int) string {
	if len(ys) == 0 || width <= 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		lo, hi = math.Min(lo, y), math.Max(hi, y)
	}
	n := min(len(ys), width)
	out := make([]rune, n)
	for i := range n {
		y := ys[i*len(ys)/n]
		switch {
		case math.IsNaN(y) || math.IsInf(y, 0):
			out[i] = ' '
		case hi-lo < 1e-12:
			out[i] = sparkRunes[len(sparkRunes)/2]
		default:
			level := int(math.Round((y - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
			out[i] = sparkRunes[level]
		}
	}
	return string(out)
}
