package scenario

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region builders
func metric(name, label string, v float64) derive.Metric {
	return derive.Metric{Name: name, Label: label, Value: v}
}

func textMetric(name, label string, v float64, text string) derive.Metric {
	return derive.Metric{Name: name, Label: label, Value: v, Text: text}
}

func flag(name, label string, b bool) derive.Metric {
	if b {
		return textMetric(name, label, 1, "yes")
	}
	return textMetric(name, label, 0, "no")
}

type bound struct {
	name     string
	min, max float64
}

func bounds(bs ...bound) eval.Config {
	cfg := eval.DefaultConfig()
	for _, b := range bs {
		cfg.Bounds[b.name] = eval.Bounds{Min: b.min, Max: b.max}
	}
	return cfg
}

func slider(id, label string, min, max, step, def float64) param.Spec {
	return param.Spec{ID: id, Label: label, Kind: param.Continuous, Min: min, Max: max, Step: step, Default: def}
}

func stepper(id, label string, min, max, step, def float64) param.Spec {
	return param.Spec{ID: id, Label: label, Kind: param.Integer, Min: min, Max: max, Step: step, Default: def}
}

func toggle(id, label string, def bool) param.Spec {
	return param.Spec{ID: id, Label: label, Kind: param.Boolean, DefaultFlag: def}
}

func choice(id, label string, def string, options ...string) param.Spec {
	return param.Spec{ID: id, Label: label, Kind: param.Enum, Options: options, DefaultOption: def}
}

// #endregion builders

// #region series
// grid returns start, start+step, ... up to and including stop (within half a step),
// computing each point as start + i*step so no error accumulates.
func grid(start, stop, step float64) []float64 {
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = start + float64(i)*step
	}
	return xs
}

// steps returns 0..n-1 as floats.
func steps(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func curve(name string, xs []float64, f func(float64) float64) derive.Series {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}
	return derive.Series{Name: name, X: xs, Y: ys}
}

// #endregion series

// #region seeding
// seeded returns a PRNG whose stream depends only on the snapshot, so
// stochastic scenarios stay deterministic per parameter set.
func seeded(snap param.Snapshot) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(snap.Key()))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))
}

// #endregion seeding
