package derive

import "github.com/danielpatrickdp/rlhf-playground/internal/param"

// #region result
// Metric is one named output of a derivation. Text carries short categorical
// readings ("yes", "Safety") alongside the numeric value.
type Metric struct {
	Name  string
	Label string
	Value float64
	Text  string
}

// Series is an ordered (x, y) sequence, e.g. a trajectory or a curve.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Result is the full output of one derivation.
type Result struct {
	Metrics    []Metric
	Series     []Series
	Annotation string
}

// Metric looks up a metric by name.
func (r Result) Metric(name string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Value returns the named metric's value, 0 when absent.
func (r Result) Value(name string) float64 {
	m, _ := r.Metric(name)
	return m.Value
}

// Empty reports whether the result carries neither metrics nor series.
func (r Result) Empty() bool {
	return len(r.Metrics) == 0 && len(r.Series) == 0
}

// Clone returns a deep copy so callers never share backing arrays.
func (r Result) Clone() Result {
	out := Result{Annotation: r.Annotation}
	if r.Metrics != nil {
		out.Metrics = make([]Metric, len(r.Metrics))
		copy(out.Metrics, r.Metrics)
	}
	if r.Series != nil {
		out.Series = make([]Series, len(r.Series))
		for i, s := range r.Series {
			out.Series[i] = Series{
				Name: s.Name,
				X:    append([]float64(nil), s.X...),
				Y:    append([]float64(nil), s.Y...),
			}
		}
	}
	return out
}

// #endregion result

// #region func
// Func derives a Result from a parameter snapshot. Implementations must be pure.
type Func func(param.Snapshot) Result

// Sanitizer repairs non-finite values in a result and reports how many it fixed.
type Sanitizer interface {
	Sanitize(Result) (Result, int)
}

// Listener is notified after every recomputation that changed the parameters.
type Listener func(param.Snapshot, Result)

// #endregion func
