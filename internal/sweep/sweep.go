package sweep

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

// MaxPoints caps the number of grid points a numeric sweep visits.
const MaxPoints = 400

var (
	// ErrUnknownParam is returned when the swept parameter is not in the schema.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrNoValues is returned by Stats when no point carries the metric.
	ErrNoValues = errors.New("no finite values")
)

// #region types
// Point is one sweep sample: the swept value and the derived metrics there.
type Point struct {
	X       float64            `json:"x"`
	Label   string             `json:"label"`
	Metrics map[string]float64 `json:"metrics"`
}

// Stat summarizes one metric across a sweep.
type Stat struct {
	Metric string  `json:"metric"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
}

// Report is the outcome of a random totality check.
type Report struct {
	Scenario   string   `json:"scenario"`
	Samples    int      `json:"samples"`
	Violations []string `json:"violations,omitempty"`
}

// #endregion types

// #region sweep
// Sweep derives s at every value of paramID while holding the other parameters
// at base. Numeric parameters walk their step grid (at most MaxPoints values,
// evenly thinned); booleans visit false then true; enums visit every option.
// A zero base uses the scenario defaults.
func Sweep(s scenario.Scenario, paramID string, base param.Snapshot) ([]Point, error) {
	spec, ok := s.Schema.Spec(paramID)
	if !ok {
		return nil, fmt.Errorf("%w %q in %s", ErrUnknownParam, paramID, s.ID)
	}
	engine := derive.NewEngine(s.Schema, s.Derive, derive.WithSanitizer(eval.NewHarness(s.Bounds)))
	if base.Len() > 0 {
		engine.Load(base)
	}

	var points []Point
	for _, v := range values(spec) {
		engine.SetText(paramID, v)
		snap := engine.Snapshot()
		val, _ := snap.Get(paramID)
		points = append(points, Point{
			X:       val.Float(),
			Label:   val.String(),
			Metrics: metricMap(engine.Current()),
		})
	}
	return points, nil
}

// values lists the settings a sweep visits, as SetText input.
func values(spec param.Spec) []string {
	switch spec.Kind {
	case param.Boolean:
		return []string{"false", "true"}
	case param.Enum:
		return append([]string(nil), spec.Options...)
	}
	n := 1
	if spec.Step > 0 {
		n = int(math.Floor((spec.Max-spec.Min)/spec.Step+1e-9)) + 1
	}
	stride := 1
	if n > MaxPoints {
		stride = int(math.Ceil(float64(n-1) / (MaxPoints - 1)))
	}
	var out []string
	for i := 0; i < n; i += stride {
		out = append(out, fmt.Sprint(spec.Min+float64(i)*spec.Step))
	}
	// thinned grids still end on Max
	if (n-1)%stride != 0 {
		out = append(out, fmt.Sprint(spec.Min+float64(n-1)*spec.Step))
	}
	return out
}

func metricMap(r derive.Result) map[string]float64 {
	out := make(map[string]float64, len(r.Metrics))
	for _, m := range r.Metrics {
		out[m.Name] = m.Value
	}
	return out
}

// #endregion sweep

// #region stats
// Stats summarizes metric over points. Points missing the metric or holding a
// non-finite value are skipped.
func Stats(points []Point, metric string) (Stat, error) {
	var data stats.Float64Data
	for _, p := range points {
		v, ok := p.Metrics[metric]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		data = append(data, v)
	}
	if len(data) == 0 {
		return Stat{}, fmt.Errorf("%w for %s", ErrNoValues, metric)
	}

	st := Stat{Metric: metric}
	var err error
	if st.Min, err = data.Min(); err != nil {
		return Stat{}, fmt.Errorf("min: %w", err)
	}
	if st.Max, err = data.Max(); err != nil {
		return Stat{}, fmt.Errorf("max: %w", err)
	}
	if st.Mean, err = data.Mean(); err != nil {
		return Stat{}, fmt.Errorf("mean: %w", err)
	}
	if st.StdDev, err = data.StandardDeviation(); err != nil {
		return Stat{}, fmt.Errorf("stddev: %w", err)
	}
	if st.Median, err = data.Median(); err != nil {
		return Stat{}, fmt.Errorf("median: %w", err)
	}
	return st, nil
}

// #endregion stats

// #region totality
// Totality derives n random snapshots of s, without sanitizing, and reports
// every one the eval harness rejects. The same seed gives the same samples.
func Totality(s scenario.Scenario, n int, seed uint64) Report {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	h := eval.NewHarness(s.Bounds)
	rep := Report{Scenario: s.ID, Samples: n}
	for i := 0; i < n; i++ {
		snap := param.Random(s.Schema, r)
		if ev := h.Run(s.Derive(snap)); !ev.Passed {
			rep.Violations = append(rep.Violations, fmt.Sprintf("%s: %s", snap.Key(), ev.Reason))
		}
	}
	return rep
}

// #endregion totality
