package present

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/gate"
)

// #region exporter
// Exporter renders chart images behind the export gate. Only one export runs
// at a time; concurrent requests are rejected with a status message.
type Exporter struct {
	gate   *gate.Gate
	logger *zap.Logger

	render func(Renderable, chart.RendererProvider, io.Writer) error
}

// NewExporter creates an exporter. A nil gate gets a private one.
func NewExporter(g *gate.Gate, logger *zap.Logger) *Exporter {
	if g == nil {
		g = gate.NewGate()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		gate:   g,
		logger: logger,
		render: func(r Renderable, rp chart.RendererProvider, w io.Writer) error {
			return r.Render(rp, w)
		},
	}
}

// Export draws result as format and writes the image to w. The image is
// buffered so w receives nothing when drawing fails.
func (e *Exporter) Export(format Format, title string, result derive.Result, w io.Writer) Status {
	rp, ext, ok := provider(format)
	if !ok {
		return Status{Message: fmt.Sprintf("Unsupported chart format %q.", format)}
	}
	filename := Slug(title) + "." + ext

	req := gate.Request{Action: gate.ActionExportChart, HasResult: !result.Empty()}
	d, err := e.gate.Run(req, func() error {
		var buf bytes.Buffer
		if err := e.draw(title, result.Clone(), rp, &buf); err != nil {
			return err
		}
		if _, err := buf.WriteTo(w); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		return nil
	})
	switch {
	case errors.Is(err, gate.ErrBusy):
		return Status{Message: gate.ReasonBusy}
	case err != nil:
		e.logger.Warn("chart export failed",
			zap.String("title", title),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return Status{Message: "Chart export failed: " + err.Error()}
	case !d.Allowed():
		return Status{Message: d.Reason}
	}
	return Status{
		OK:       true,
		Message:  fmt.Sprintf("Exported chart as %s.", strings.ToUpper(ext)),
		Filename: filename,
	}
}

// draw renders the chart, turning panics from the chart library into errors.
func (e *Exporter) draw(title string, result derive.Result, rp chart.RendererProvider, w io.Writer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRender, rec)
		}
	}()
	c, err := Chart(title, result)
	if err != nil {
		return err
	}
	if err := e.render(c, rp, w); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

func provider(f Format) (chart.RendererProvider, string, bool) {
	switch f {
	case PNG:
		return chart.PNG, "png", true
	case SVG:
		return chart.SVG, "svg", true
	}
	return nil, "", false
}

// #endregion exporter
