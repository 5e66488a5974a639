package present

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
)

// Default canvas size for exported charts.
const (
	ChartWidth  = 960
	ChartHeight = 540
)

// Renderable is a chart ready to be drawn with a go-chart renderer.
type Renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

var palette = []chart.Style{
	lineStyle(chart.ColorBlue),
	lineStyle(chart.ColorRed),
	lineStyle(chart.ColorGreen),
	lineStyle(chart.ColorAlternateGray),
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeColor: col, StrokeWidth: 2}
}

// #region chart
// Chart builds a line chart from the series of r, or a bar chart of its numeric
// metrics when r carries no drawable series. r is not modified.
func Chart(title string, r derive.Result) (Renderable, error) {
	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range r.Series {
		xs, ys := finitePoints(s)
		if len(xs) == 0 {
			continue
		}
		// go-chart needs two x values to build a range
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		for _, y := range ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   palette[i%len(palette)],
		})
	}
	if len(series) > 0 {
		ch := chart.Chart{
			Title:      title,
			Width:      ChartWidth,
			Height:     ChartHeight,
			Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
			YAxis:      chart.YAxis{Range: padRange(lo, hi)},
			Series:     series,
		}
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
		return ch, nil
	}
	return barChart(title, r)
}

func barChart(title string, r derive.Result) (Renderable, error) {
	var bars []chart.Value
	lo, hi := 0.0, 0.0
	for _, m := range r.Metrics {
		if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			continue
		}
		label := m.Label
		if label == "" {
			label = m.Name
		}
		bars = append(bars, chart.Value{Label: label, Value: m.Value})
		lo, hi = math.Min(lo, m.Value), math.Max(hi, m.Value)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no finite metrics", ErrRender)
	}
	return chart.BarChart{
		Title:      title,
		Width:      max(ChartWidth, len(bars)*170),
		Height:     ChartHeight,
		BarWidth:   60,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Range: padRange(lo, hi)},
		Bars:       bars,
	}, nil
}

// finitePoints copies the paired points of s, dropping non-finite ones.
func finitePoints(s derive.Series) ([]float64, []float64) {
	n := min(len(s.X), len(s.Y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x, y := s.X[i], s.Y[i]
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

// padRange widens [lo, hi] by 5%, or by 1 when the range is flat.
func padRange(lo, hi float64) *chart.ContinuousRange {
	if hi-lo < 1e-9 {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// #endregion chart
