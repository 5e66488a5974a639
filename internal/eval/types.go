package eval

// #region eval-config
// Bounds is the declared closed range of a metric.
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range, with a small tolerance for
// accumulated floating point error.
func (b Bounds) Contains(v float64) bool {
	const tol = 1e-9
	return v >= b.Min-tol && v <= b.Max+tol
}

// Config holds the declared metric ranges for one scenario.
// Metrics without an entry are only checked for finiteness.
type Config struct {
	Bounds map[string]Bounds
}

// DefaultConfig returns a config with no declared ranges.
func DefaultConfig() Config {
	return Config{Bounds: map[string]Bounds{}}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of a validation run.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
