package scenario

import (
	"math"
	"sort"
	"strings"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/formula"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region rejection-sampling
var samplingPrompts = []string{
	"Summarise the RLHF training loop.",
	"Draft a polite refusal for a malicious request.",
	"Explain KL regularisation to a new engineer.",
	"List post-training stages used in Tulu 3.",
}

var samplingCompletions = []string{
	"RLHF combines SFT, reward modelling, and an RL optimiser to align behaviour.",
	"I am sorry, but I cannot help with that request because it violates policy.",
	"KL control keeps the policy near its reference by subtracting λ times the divergence.",
	"Tulu 3 iterates instruction tuning, reward updates, small RL loops, and evaluation.",
}

// completionBaseScore is the reward model's prior for a completion before sampling noise.
func completionBaseScore(completion string) float64 {
	switch {
	case strings.Contains(completion, "KL"):
		return 0.82
	case strings.Contains(completion, "policy"):
		return 0.76
	default:
		return 0.7
	}
}

type sampledRow struct {
	prompt   int
	reward   float64
	selected bool
}

// RejectionSampling is the sample, score and select pipeline.
func RejectionSampling() Scenario {
	return Scenario{
		ID:      "rejection-sampling",
		Label:   "Rejection Sampling Baseline",
		Chapter: "Chapter 10",
		Summary: "Sample -> score -> select pipeline highlighted in Chapter 10. Track how dataset quality and compute budget interact when filtering completions.",
		Objectives: []string{
			"Compare per-prompt vs. global Top-K filtering for diversity versus reward.",
			"Observe how completions-per-prompt budgets shape the filtered dataset quality.",
			"Connect temperature control to reward variance and selection outcomes.",
		},
		ExperimentSteps: []string{
			"Start with 6 completions per prompt, Top-K = 1, and per-prompt selection (baseline recommended in Chapter 10.1).",
			"Increase completions to 14 while keeping Top-K = 1 to see quality gains versus added inference cost.",
			"Switch to global selection to mimic Best-of-N and note the reward lift alongside reduced diversity.",
		},
		ExpectedSignals: []string{
			"Mean reward climbs as completions-per-prompt increases, but selected count grows slowly.",
			"Per-prompt selection keeps a higher diversity index than global Top-K.",
			"High temperatures (>0.9) widen reward variance and can push lower average reward despite more exploration.",
		},
		Schema: param.MustSchema(
			stepper("completionsPerPrompt", "Completions per prompt", 2, 20, 1, 8),
			slider("temperature", "Sampling temperature", 0.2, 1.2, 0.05, 0.6),
			stepper("topK", "Top-K kept", 1, 5, 1, 1),
			choice("strategy", "Selection strategy", "per-prompt", "per-prompt", "global"),
		),
		Derive: deriveRejectionSampling,
		Bounds: bounds(
			bound{"meanReward", 0, 1},
			bound{"diversityIndex", -1.5, 1},
			bound{"selectedCount", 4, 20},
			bound{"candidateCount", 8, 80},
			bound{"rewardSpread", 0, 1},
		),
		Compare: func(s param.Snapshot, r derive.Result) Comparison {
			return Comparison{
				Quality:   r.Value("meanReward"),
				Cost:      s.Float("completionsPerPrompt") / 20,
				Stability: r.Value("diversityIndex"),
			}
		},
	}
}

func deriveRejectionSampling(s param.Snapshot) derive.Result {
	n := s.Int("completionsPerPrompt")
	temperature := s.Float("temperature")
	topK := s.Int("topK")
	strategy := s.Option("strategy")

	// 1. Generate synthetic completions
	r := seeded(s)
	rows := make([]sampledRow, 0, n*len(samplingPrompts))
	for p := range samplingPrompts {
		for i := 0; i < n; i++ {
			completion := samplingCompletions[r.IntN(len(samplingCompletions))]
			noise := (r.Float64() - 0.5) * temperature
			rows = append(rows, sampledRow{
				prompt: p,
				reward: formula.Clamp(completionBaseScore(completion)+noise, 0, 1),
			})
		}
	}

	// 2. Select
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rows[order[a]].reward > rows[order[b]].reward })
	if strategy == "global" {
		limit := min(topK*len(samplingPrompts), len(order))
		for _, idx := range order[:limit] {
			rows[idx].selected = true
		}
	} else {
		taken := make([]int, len(samplingPrompts))
		for _, idx := range order {
			p := rows[idx].prompt
			if taken[p] < max(1, topK) {
				rows[idx].selected = true
				taken[p]++
			}
		}
	}

	// 3. Aggregate
	var total float64
	var selected []float64
	lo, hi := 1.0, 0.0
	for _, row := range rows {
		lo = math.Min(lo, row.reward)
		hi = math.Max(hi, row.reward)
		if row.selected {
			total += row.reward
			selected = append(selected, row.reward)
		}
	}
	selectedCount := max(len(selected), 1)
	meanReward := total / float64(selectedCount)

	var diversity float64
	if strategy == "global" {
		diversity = 1 - math.Min(1, float64(topK*selectedCount)/float64(n*4))
	} else {
		diversity = 1 - float64(topK)/math.Max(float64(n), 1)
	}

	annotation := "Per-prompt filtering keeps each prompt represented, matching Chapter 10.1 guidance on diversity."
	if strategy == "global" {
		annotation = "Global Top-K mirrors Best-of-N; Chapter 10.2 warns it can drop coverage even as mean reward rises."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("meanReward", "Mean selected reward", meanReward),
			metric("diversityIndex", "Diversity index", diversity),
			metric("selectedCount", "Selected completions", float64(selectedCount)),
			metric("candidateCount", "Sampled completions", float64(len(rows))),
			metric("rewardSpread", "Reward spread", hi-lo),
		},
		Series: []derive.Series{{
			Name: "selected reward",
			X:    steps(len(selected)),
			Y:    selected,
		}},
		Annotation: annotation,
	}
}

// #endregion rejection-sampling

// #region ppo
// PPO is the clipped policy-ratio trajectory.
func PPO() Scenario {
	return Scenario{
		ID:      "ppo",
		Label:   "PPO Policy Update",
		Chapter: "Chapter 11",
		Summary: "Inspect clipped versus unclipped policy ratios from Chapter 11 and how learning rate, clipping range, and KL penalty stabilise updates.",
		Objectives: []string{
			"Link larger learning rates to overshooting policy ratios before clipping.",
			"Watch KL penalties rein in the ratio trajectory toward 1.0.",
			"Tune the clip range epsilon to balance improvement and stability.",
		},
		ExperimentSteps: []string{
			`Begin with learning rate 0.08, clip epsilon = 0.2, and beta = 0.008 as the "safe" setting discussed in Chapter 11.`,
			"Raise learning rate above 0.14 without changing epsilon to see unclipped ratios surge while clipped ratios stay bounded.",
			"Increase beta to 0.014 and observe how both curves converge toward 1.0, signalling stronger KL anchoring.",
		},
		ExpectedSignals: []string{
			"High learning rates widen the gap between unclipped and clipped ratios.",
			"Larger beta values bring the clipped curve closer to 1.0 at the cost of slower policy shifts.",
			"Tight clip ranges (<0.12) flatten progress but keep the policy stable.",
		},
		Schema: param.MustSchema(
			slider("learningRate", "Learning rate", 0.02, 0.2, 0.01, 0.08),
			slider("clip", "Clip range ε", 0.05, 0.4, 0.01, 0.2),
			slider("klPenalty", "KL penalty β", 0, 0.02, 0.002, 0.008),
		),
		Derive: derivePPO,
		Bounds: bounds(
			bound{"clippedRatio", 0.6, 1.4},
			bound{"unclippedRatio", formula.MinRatio, 2},
			bound{"stability", 0, 1},
			bound{"ratioGap", 0, 2},
		),
		Compare: func(s param.Snapshot, r derive.Result) Comparison {
			var quality float64
			if clipped := r.Value("clippedRatio"); clipped != 0 {
				quality = 1 - math.Abs(1-clipped)
			}
			return Comparison{
				Quality:   quality,
				Cost:      s.Float("learningRate") / 0.2,
				Stability: r.Value("stability"),
			}
		},
	}
}

func derivePPO(s param.Snapshot) derive.Result {
	points := formula.SimulateTrajectory(
		s.Float("learningRate"),
		s.Float("clip"),
		s.Float("klPenalty"),
		formula.DefaultAdvantages,
	)
	xs := make([]float64, len(points))
	clipped := make([]float64, len(points))
	unclipped := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Step)
		clipped[i] = p.Clipped
		unclipped[i] = p.Unclipped
	}
	final := points[len(points)-1]
	ratioGap := math.Abs(final.Unclipped - final.Clipped)
	stability := 1 - math.Min(1, math.Abs(final.Clipped-1))

	annotation := "Balanced ratios indicate a stable update window consistent with Chapter 11 heuristics."
	if ratioGap > 0.25 {
		annotation = "Chapter 11 flags large unclipped gaps as a signal to tighten epsilon or raise beta."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("clippedRatio", "Final clipped ratio", final.Clipped),
			metric("unclippedRatio", "Final unclipped ratio", final.Unclipped),
			metric("stability", "Stability", stability),
			metric("ratioGap", "Unclipped gap", ratioGap),
		},
		Series: []derive.Series{
			{Name: "unclipped", X: xs, Y: unclipped},
			{Name: "clipped", X: append([]float64(nil), xs...), Y: clipped},
		},
		Annotation: annotation,
	}
}

// #endregion ppo

// #region dpo
const dpoReferenceLogprob = -1.0

// DPO weights a chosen and a rejected completion without a reward model.
func DPO() Scenario {
	return Scenario{
		ID:      "dpo",
		Label:   "DPO Weighting",
		Chapter: "Chapter 12",
		Summary: "Examine how beta and logit shifts control preference weights without a reward model, following the derivation in Chapter 12.",
		Objectives: []string{
			"Understand how beta sharpens the gap between chosen and rejected samples.",
			"Experiment with margins to simulate cDPO-style safety buffers.",
			"Explore how policy logits drifting from the reference affects gradients.",
		},
		ExperimentSteps: []string{
			"Set beta = 0.1 and logit shift = 0.6 to match the worked example in Chapter 12.",
			"Increase beta above 0.2 to emphasise the chosen sample and compare the weight ratio.",
			"Apply a positive margin (m = 0.2) to soften updates, then a negative margin to favour stronger rejections.",
		},
		ExpectedSignals: []string{
			"Chosen weight approaches 0.8+ when beta is large and logit shift favours the chosen sample.",
			"Margins reduce both weights symmetrically, emulating safety slack.",
			"When logit shift approaches 0, weights converge, mirroring the reference policy.",
		},
		Schema: param.MustSchema(
			slider("beta", "β (temperature)", 0.02, 0.4, 0.01, 0.1),
			slider("margin", "Margin m", -0.5, 0.5, 0.05, 0),
			slider("logitShift", "Policy logit shift", 0, 1.2, 0.05, 0.6),
		),
		Derive: deriveDPO,
		Bounds: bounds(
			bound{"chosenWeight", 0, 1},
			bound{"rejectedWeight", 0, 1},
			bound{"separation", -1, 1},
		),
		Compare: func(s param.Snapshot, r derive.Result) Comparison {
			return Comparison{
				Quality:   r.Value("chosenWeight"),
				Cost:      s.Float("beta") / 0.4,
				Stability: 1 - math.Min(1, math.Abs(s.Float("margin"))),
			}
		},
	}
}

func deriveDPO(s param.Snapshot) derive.Result {
	shift := s.Float("logitShift")
	chosen := -1.2 + shift
	rejected := -0.8 - shift
	w := formula.PreferenceWeights(
		[]float64{chosen, rejected},
		[]float64{dpoReferenceLogprob, dpoReferenceLogprob},
		s.Float("beta"),
		s.Float("margin"),
	)
	separation := w[0] - w[1]

	annotation := "Weights converge as beta shrinks or logits align with the reference, reducing gradient strength."
	if separation > 0.35 {
		annotation = "High separation echoes Chapter 12: gradients strongly favour chosen completions."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("chosenWeight", "Chosen weight", w[0]),
			metric("rejectedWeight", "Rejected weight", w[1]),
			metric("separation", "Separation", separation),
			metric("chosenLogprob", "Chosen policy logprob", chosen),
			metric("rejectedLogprob", "Rejected policy logprob", rejected),
		},
		Annotation: annotation,
	}
}

// #endregion dpo
