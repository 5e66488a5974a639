package present

import "errors"

// ErrRender wraps failures raised while drawing a chart.
var ErrRender = errors.New("chart render failed")

// #region widget
// Widget is the control family a parameter is presented with.
type Widget string

const (
	WidgetSlider  Widget = "slider"
	WidgetStepper Widget = "stepper"
	WidgetToggle  Widget = "toggle"
	WidgetSelect  Widget = "select"
)

// #endregion widget

// #region control
// Control is a read-only description of one input, enough for any front end to draw it.
type Control struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Widget  Widget   `json:"widget"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Value   string   `json:"value"`
	Options []string `json:"options,omitempty"`
	Display string   `json:"display"`
}

// #endregion control

// #region row
// Row is one metric formatted for display.
type Row struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// #endregion row

// #region format
// Format is an image encoding supported by the chart exporter.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, bool) {
	switch Format(lower(s)) {
	case PNG:
		return PNG, true
	case SVG:
		return SVG, true
	}
	return "", false
}

// #endregion format

// #region status
// Status is the outcome of an export, shown in the status line.
type Status struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
}

// #endregion status
