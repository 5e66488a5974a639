package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
)

// #region eval-harness
// Harness validates derived results: every value must be finite and every
// metric with declared bounds must lie inside them.
type Harness struct {
	config Config
}

// NewHarness creates a harness with the given configuration.
func NewHarness(config Config) *Harness {
	if config.Bounds == nil {
		config.Bounds = map[string]Bounds{}
	}
	return &Harness{config: config}
}

// Run checks every metric and series point of r.
func (h *Harness) Run(r derive.Result) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	// 1. Metrics: finite and within declared bounds
	for _, m := range r.Metrics {
		pass := finite(m.Value)
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf("metric %s is %v", m.Name, m.Value))
		} else if b, ok := h.config.Bounds[m.Name]; ok && !b.Contains(m.Value) {
			pass = false
			failReasons = append(failReasons, fmt.Sprintf("metric %s %.4f outside [%.4f, %.4f]", m.Name, m.Value, b.Min, b.Max))
		}
		metrics = append(metrics, EvalMetric{Name: m.Name, Value: m.Value, Pass: pass})
	}

	// 2. Series: every point finite
	for _, s := range r.Series {
		bad := 0
		for i := range s.Y {
			if !finite(s.Y[i]) || (i < len(s.X) && !finite(s.X[i])) {
				bad++
			}
		}
		pass := bad == 0 && len(s.X) == len(s.Y)
		if bad > 0 {
			failReasons = append(failReasons, fmt.Sprintf("series %s has %d non-finite points", s.Name, bad))
		} else if !pass {
			failReasons = append(failReasons, fmt.Sprintf("series %s has %d x values for %d y values", s.Name, len(s.X), len(s.Y)))
		}
		metrics = append(metrics, EvalMetric{Name: "series_" + s.Name, Value: float64(bad), Pass: pass})
	}

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// Sanitize replaces non-finite values with sentinels: NaN and -Inf become the
// metric's lower bound, +Inf its upper bound (0 when undeclared). Returns the
// repaired copy and the number of values replaced. r is not modified.
func (h *Harness) Sanitize(r derive.Result) (derive.Result, int) {
	out := r.Clone()
	repaired := 0
	for i := range out.Metrics {
		m := &out.Metrics[i]
		if finite(m.Value) {
			continue
		}
		m.Value = h.sentinel(m.Name, m.Value)
		repaired++
	}
	for i := range out.Series {
		s := &out.Series[i]
		for j := range s.Y {
			if !finite(s.Y[j]) {
				s.Y[j] = 0
				repaired++
			}
		}
		for j := range s.X {
			if !finite(s.X[j]) {
				s.X[j] = 0
				repaired++
			}
		}
	}
	return out, repaired
}

// Bounds returns the declared range for a metric.
func (h *Harness) Bounds(name string) (Bounds, bool) {
	b, ok := h.config.Bounds[name]
	return b, ok
}

// #endregion eval-harness

// #region helpers
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func (h *Harness) sentinel(name string, v float64) float64 {
	b, ok := h.config.Bounds[name]
	if !ok {
		return 0
	}
	if math.IsInf(v, 1) {
		return b.Max
	}
	return b.Min
}

// #endregion helpers
