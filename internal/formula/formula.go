package formula

import (
	"math"

	"github.com/montanaflynn/stats"
)

// #region scalar-helpers
// Clamp bounds x into [lo, hi]. NaN collapses to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Clip bounds a policy ratio into [1-eps, 1+eps].
func Clip(ratio, eps float64) float64 {
	return Clamp(ratio, 1-eps, 1+eps)
}

// Finite reports whether x is neither NaN nor ±Inf.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// OrSentinel returns x when finite, otherwise sentinel.
func OrSentinel(x, sentinel float64) float64 {
	if Finite(x) {
		return x
	}
	return sentinel
}

// SafeDiv divides num by max(eps, den).
func SafeDiv(num, den, eps float64) float64 {
	return num / math.Max(eps, den)
}

// SafeLog is ln(max(Epsilon, x)).
func SafeLog(x float64) float64 {
	return math.Log(math.Max(Epsilon, x))
}

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

// #endregion scalar-helpers

// #region bradley-terry
// Sigmoid is 1/(1+exp(-x)), evaluated on the branch that cannot overflow.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Softplus is ln(1+exp(x)) without overflow for large x.
func Softplus(x float64) float64 {
	if x > 30 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// BradleyTerry returns P(chosen) = sigmoid(delta) and the negative log-likelihood.
// The loss is -ln(sigmoid(delta)) = softplus(-delta), finite for any finite delta.
func BradleyTerry(delta float64) (prob, loss float64) {
	return Sigmoid(delta), Softplus(-delta)
}

// DPOLoss is log(1 + exp(-beta*delta)).
func DPOLoss(delta, beta float64) float64 {
	return Softplus(-beta * delta)
}

// #endregion bradley-terry

// #region trajectory
// SimulateTrajectory runs the clipped policy-ratio update over the advantage sequence.
// Each step starts from the previous clipped ratio; the unclipped value is what the
// step would have produced without the clip window (floored at MinRatio).
func SimulateTrajectory(learningRate, clip, klPenalty float64, advantages []float64) []TrajectoryPoint {
	ratio := 1.0
	points := make([]TrajectoryPoint, 0, len(advantages))
	for i, adv := range advantages {
		unclipped := math.Max(MinRatio, ratio*math.Exp(learningRate*(adv-klPenalty*(ratio-1))))
		clipped := Clip(unclipped, clip)
		points = append(points, TrajectoryPoint{
			Step:      i,
			Advantage: adv,
			Unclipped: unclipped,
			Clipped:   clipped,
		})
		ratio = clipped
	}
	return points
}

// ClippedObjective returns the surrogate objective r*A and its clipped variant.
func ClippedObjective(ratio, advantage, eps float64) (unclipped, clipped float64) {
	return ratio * advantage, Clip(ratio, eps) * advantage
}

// #endregion trajectory

// #region preference-weights
// PreferenceWeights computes exp(beta*(policy - reference - margin)) per candidate,
// normalized to sum to 1. Exponents are shifted by their max so the sum never overflows.
func PreferenceWeights(policy, reference []float64, beta, margin float64) []float64 {
	n := len(policy)
	if n == 0 || len(reference) != n {
		return nil
	}
	exps := make([]float64, n)
	maxExp := math.Inf(-1)
	for i := range policy {
		exps[i] = beta * (policy[i] - reference[i] - margin)
		if exps[i] > maxExp {
			maxExp = exps[i]
		}
	}
	var total float64
	for i := range exps {
		exps[i] = math.Exp(exps[i] - maxExp)
		total += exps[i]
	}
	for i := range exps {
		exps[i] = SafeDiv(exps[i], total, Epsilon)
	}
	return exps
}

// RawWeight is the unnormalized DPO weight exp(beta*(logprob - reference - margin)).
func RawWeight(logprob, reference, beta, margin float64) float64 {
	return math.Exp(beta * (logprob - reference - margin))
}

// #endregion preference-weights

// #region blend
// BlendWeights clamps each weight into [0,1] and forces the set to sum to 1.
// Categories are visited in order; once the running total would exceed 1 the
// remaining budget is given instead, and whatever is left over goes to the
// default category.
func BlendWeights(weights []Weighted, defaultName string) []Weighted {
	out := make([]Weighted, len(weights))
	budget := 1.0
	defaultIdx := -1
	for i, w := range weights {
		out[i].Name = w.Name
		if w.Name == defaultName {
			defaultIdx = i
			continue
		}
		v := Clamp(w.Weight, 0, 1)
		if v > budget {
			v = budget
		}
		out[i].Weight = v
		budget -= v
	}
	if defaultIdx >= 0 {
		out[defaultIdx].Weight = math.Max(0, budget)
	}
	return out
}

// BlendScore is the weighted sum of values by name.
func BlendScore(values map[string]float64, weights []Weighted) float64 {
	var score float64
	for _, w := range weights {
		score += values[w.Name] * w.Weight
	}
	return score
}

// #endregion blend
