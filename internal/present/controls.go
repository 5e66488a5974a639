package present

import (
	"math"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// Display precision bounds for metric tables.
const (
	MinPlaces = 2
	MaxPlaces = 3
)

// #region controls
// Controls describes every parameter of schema at the values held in snap.
// Parameters missing from snap are shown at their defaults.
func Controls(schema param.Schema, snap param.Snapshot) []Control {
	defaults := schema.Defaults()
	out := make([]Control, 0, schema.Len())
	for _, spec := range schema.Specs() {
		v, ok := snap.Get(spec.ID)
		if !ok {
			v, _ = defaults.Get(spec.ID)
		}
		c := Control{
			ID:    spec.ID,
			Label: spec.Label,
			Value: v.String(),
		}
		switch spec.Kind {
		case param.Continuous:
			c.Widget = WidgetSlider
			c.Min, c.Max, c.Step = spec.Min, spec.Max, spec.Step
			c.Display = strconv.FormatFloat(v.Number, 'f', stepPlaces(spec.Step), 64)
		case param.Integer:
			c.Widget = WidgetStepper
			c.Min, c.Max, c.Step = spec.Min, spec.Max, spec.Step
			c.Display = v.String()
		case param.Boolean:
			c.Widget = WidgetToggle
			c.Display = onOff(v.Flag)
		case param.Enum:
			c.Widget = WidgetSelect
			c.Options = append([]string(nil), spec.Options...)
			c.Display = v.Option
		}
		out = append(out, c)
	}
	return out
}

// stepPlaces is the number of decimals needed to show values on a step grid.
func stepPlaces(step float64) int {
	if step <= 0 || step >= 1 {
		return 0
	}
	s := strconv.FormatFloat(step, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return min(len(s)-i-1, MaxPlaces)
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

// #endregion controls

// #region table
// Table formats the metrics of r. Text readings are shown verbatim; numbers are
// rounded to places decimals, clamped to [MinPlaces, MaxPlaces].
func Table(r derive.Result, places int) []Row {
	places = max(MinPlaces, min(places, MaxPlaces))
	out := make([]Row, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		out = append(out, Row{
			Name:    m.Name,
			Label:   m.Label,
			Value:   m.Value,
			Display: FormatMetric(m, places),
		})
	}
	return out
}

// FormatMetric renders one metric for display.
func FormatMetric(m derive.Metric, places int) string {
	if m.Text != "" {
		return m.Text
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(m.Value, 'f', places, 64)
}

// #endregion table

// #region slug
// Slug lowercases title and joins its alphanumeric runs with dashes.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range lower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "chart"
	}
	return b.String()
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// #endregion slug
