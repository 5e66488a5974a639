package scenario

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/formula"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

const trainingSteps = 30

// #region kl-penalty
// KLPenalty subtracts λ·KL from a fixed reward trajectory.
func KLPenalty() Scenario {
	return Scenario{
		ID:      "kl-penalty",
		Label:   "KL Penalty Playground",
		Chapter: "Chapter 8",
		Summary: "Tune λ so the model learns without drifting into degenerate behaviour; the dashed line marks the KL target.",
		Schema: param.MustSchema(
			slider("lambda", "KL weight λ", 0, 0.08, 0.005, 0.03),
			slider("targetKl", "Target KL", 0.3, 1.0, 0.05, 0.6),
		),
		Derive: deriveKLPenalty,
		Bounds: bounds(
			bound{"averageReward", 2, 3.5},
			bound{"averageKl", 0, 1},
			bound{"stepsOverTarget", 0, trainingSteps},
		),
	}
}

func klBaseline(step float64) (reward, kl float64) {
	reward = 2.0 + 0.3*math.Log(step+1)
	kl = 0.3 + 0.05*math.Sin(step/2) + step*0.01
	return reward, kl
}

func deriveKLPenalty(s param.Snapshot) derive.Result {
	lambda := s.Float("lambda")
	target := s.Float("targetKl")
	xs := steps(trainingSteps)
	rewards := make([]float64, len(xs))
	adjusted := make([]float64, len(xs))
	kls := make([]float64, len(xs))
	over := 0
	for i, step := range xs {
		rewards[i], kls[i] = klBaseline(step)
		adjusted[i] = rewards[i] - lambda*kls[i]
		if kls[i] > target {
			over++
		}
	}
	avgReward := formula.Mean(adjusted)
	avgKl := formula.Mean(kls)

	annotation := "The KL trajectory stays under target; λ can be relaxed if learning stalls."
	if over > 0 {
		annotation = fmt.Sprintf("KL exceeds the target on %d of %d steps; raise λ to keep the policy near its reference.", over, trainingSteps)
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("averageReward", "Effective reward", avgReward),
			metric("averageKl", "Average KL", avgKl),
			metric("stepsOverTarget", "Steps over target", float64(over)),
		},
		Series: []derive.Series{
			{Name: "reward", X: xs, Y: rewards},
			{Name: "penalized", X: append([]float64(nil), xs...), Y: adjusted},
			{Name: "kl", X: append([]float64(nil), xs...), Y: kls},
		},
		Annotation: annotation,
	}
}

// #endregion kl-penalty

// #region regularization
// Regularization trades stability against exploration.
func Regularization() Scenario {
	return Scenario{
		ID:      "regularization",
		Label:   "Regularization Trade-off",
		Chapter: "Chapter 8",
		Summary: "KL penalties, entropy bonuses, and auxiliary NLL terms work in concert; reason about their qualitative effects.",
		Schema: param.MustSchema(
			slider("lambda", "KL weight λ", 0, 0.08, 0.005, 0.03),
			slider("entropyBonus", "Entropy bonus", 0, 0.05, 0.005, 0.02),
		),
		Derive: deriveRegularization,
		Bounds: bounds(
			bound{"stability", 0.3, 1},
			bound{"exploration", 0, 1},
			bound{"overfitRisk", 0, 0.7},
		),
	}
}

func deriveRegularization(s param.Snapshot) derive.Result {
	lambda := s.Float("lambda")
	entropy := s.Float("entropyBonus")
	stability := math.Min(1, lambda*12+0.3)
	exploration := math.Max(0, 0.9-lambda*8+entropy*0.4)
	overfit := math.Max(0, 0.7-stability*0.6-entropy*0.2)

	annotation := "Regularization is balanced between stability and exploration."
	switch {
	case overfit > 0.4:
		annotation = "Weak regularization leaves room for over-optimisation; raise λ."
	case exploration < 0.5:
		annotation = "Strong KL anchoring suppresses exploration; add an entropy bonus."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("stability", "Stability", stability),
			metric("exploration", "Exploration", exploration),
			metric("overfitRisk", "Over-optimisation risk", overfit),
		},
		Annotation: annotation,
	}
}

// #endregion regularization

// #region policy-improvement
// PolicyImprovement compares a reward trajectory with and without KL damping.
func PolicyImprovement() Scenario {
	return Scenario{
		ID:      "policy-improvement",
		Label:   "Policy Improvement",
		Chapter: "Chapter 4",
		Summary: "A KL penalty damps the exploratory swings of the reward curve around its logarithmic baseline.",
		Schema: param.MustSchema(
			slider("klPenalty", "KL penalty", 0.1, 0.8, 0.05, 0.3),
			toggle("showBaseline", "Show baseline", true),
		),
		Derive: derivePolicyImprovement,
		Bounds: bounds(
			bound{"finalReward", -1, 3},
			bound{"peakReward", 0, 3},
			bound{"meanLift", -1, 1},
		),
	}
}

func improvementBaseline(step float64) float64 {
	return 0.4*math.Log(step+1) + 0.5
}

func derivePolicyImprovement(s param.Snapshot) derive.Result {
	kl := s.Float("klPenalty")
	xs := steps(trainingSteps)
	base := curve("baseline", xs, improvementBaseline)
	reward := curve("reward", append([]float64(nil), xs...), func(step float64) float64 {
		return improvementBaseline(step) + math.Sin(step/4)*(1-kl)
	})

	peak := math.Inf(-1)
	lifts := make([]float64, len(xs))
	for i := range xs {
		peak = math.Max(peak, reward.Y[i])
		lifts[i] = reward.Y[i] - base.Y[i]
	}
	series := []derive.Series{reward}
	if s.Bool("showBaseline") {
		series = append(series, base)
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("finalReward", "Final reward", reward.Y[len(xs)-1]),
			metric("peakReward", "Peak reward", peak),
			metric("meanLift", "Mean lift over baseline", formula.Mean(lifts)),
		},
		Series:     series,
		Annotation: fmt.Sprintf("Exploration swings are scaled by %.2f; a larger KL penalty keeps the policy closer to the baseline.", 1-kl),
	}
}

// #endregion policy-improvement

// #region ppo-clip
// PPOClip contrasts the plain and clipped surrogate objectives for one ratio.
func PPOClip() Scenario {
	return Scenario{
		ID:      "ppo-clip",
		Label:   "PPO Clip Visualizer",
		Chapter: "Chapter 11",
		Summary: "PPO flattens the objective near large ratios, avoiding steps that would irreversibly warp the policy.",
		Schema: param.MustSchema(
			slider("ratio", "Policy ratio", 0.5, 1.8, 0.02, 1.3),
			slider("advantage", "Advantage", -1, 1.2, 0.05, 0.8),
			slider("epsilon", "Clip ε", 0.05, 0.4, 0.01, 0.2),
		),
		Derive: derivePPOClip,
		Bounds: bounds(
			bound{"unclippedObjective", -1.8, 2.16},
			bound{"clippedObjective", -1.4, 1.68},
			bound{"clippedRatio", 0.6, 1.4},
		),
	}
}

func derivePPOClip(s param.Snapshot) derive.Result {
	ratio := s.Float("ratio")
	adv := s.Float("advantage")
	eps := s.Float("epsilon")
	unclipped, clipped := formula.ClippedObjective(ratio, adv, eps)

	xs := grid(0.5, 1.8, 0.02)
	plain := curve("objective", xs, func(r float64) float64 { return r * adv })
	held := curve("clipped", append([]float64(nil), xs...), func(r float64) float64 {
		_, c := formula.ClippedObjective(r, adv, eps)
		return c
	})

	annotation := "The ratio sits inside the clip window, so both objectives agree."
	if formula.Clip(ratio, eps) != ratio {
		annotation = fmt.Sprintf("The clip holds the update at the %.2f boundary.", formula.Clip(ratio, eps))
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("unclippedObjective", "Objective r·A", unclipped),
			metric("clippedObjective", "Clipped objective", clipped),
			metric("clippedRatio", "Clipped ratio", formula.Clip(ratio, eps)),
		},
		Series:     []derive.Series{plain, held},
		Annotation: annotation,
	}
}

// #endregion ppo-clip

// #region overoptimization
// Overoptimization monitors the gap between a proxy reward and held-out evals.
func Overoptimization() Scenario {
	return Scenario{
		ID:      "overoptimization",
		Label:   "Over-optimisation Monitor",
		Chapter: "Chapter 17",
		Summary: "Close gaps indicate aligned objectives; wide gaps signal Goodhart risk.",
		Schema: param.MustSchema(
			slider("proxyScore", "Proxy reward score", 0.5, 1, 0.01, 0.88),
			slider("evalScore", "Evaluation score", 0.5, 1, 0.01, 0.74),
			stepper("ensembleSize", "Reward model ensemble", 1, 6, 1, 3),
		),
		Derive: deriveOveroptimization,
		Bounds: bounds(
			bound{"gap", -0.5, 0.5},
			bound{"risk", 0, 0.3},
		),
	}
}

func deriveOveroptimization(s param.Snapshot) derive.Result {
	gap := s.Float("proxyScore") - s.Float("evalScore")
	risk := math.Max(0, gap*0.6-s.Float("ensembleSize")*0.05)
	recommendation := "Proxy is aligned with evals."
	if risk > 0.2 {
		recommendation = "Rotate reward models or add constraints."
	}
	return derive.Result{
		Metrics: []derive.Metric{
			metric("gap", "Proxy vs evaluation gap", gap),
			metric("risk", "Over-optimisation risk", risk),
			flag("auditRecommended", "Audit recommended", risk > 0.2),
		},
		Annotation: recommendation,
	}
}

// #endregion overoptimization
