package scenario

import (
	"math"
	"strings"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/formula"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region reward-model
// RewardModel explores the Bradley-Terry preference probability and its loss.
func RewardModel() Scenario {
	return Scenario{
		ID:      "reward-model",
		Label:   "Reward Model Loss Explorer",
		Chapter: "Chapter 7",
		Summary: "Move the reward gap between a preferred and a rejected response and watch the Bradley-Terry probability and negative log-likelihood respond.",
		Schema: param.MustSchema(
			slider("delta", "Reward gap Δ", -6, 6, 0.1, 1.2),
		),
		Derive: deriveRewardModel,
		Bounds: bounds(
			bound{"probability", 0, 1},
			bound{"loss", 0, 7},
		),
	}
}

func deriveRewardModel(s param.Snapshot) derive.Result {
	delta := s.Float("delta")
	prob, loss := formula.BradleyTerry(delta)
	xs := grid(-6, 6, 0.2)

	annotation := "The model is confident in the preferred response, so the loss approaches zero."
	switch {
	case delta < 0:
		annotation = "The rejected output scores higher, so the loss grows quickly."
	case delta < 1:
		annotation = "Small gaps leave the model near a coin flip; the loss stays close to ln 2."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("probability", "σ(Δ)", prob),
			metric("loss", "Loss", loss),
		},
		Series: []derive.Series{
			curve("probability", xs, formula.Sigmoid),
			curve("loss", append([]float64(nil), xs...), func(x float64) float64 {
				_, l := formula.BradleyTerry(x)
				return l
			}),
		},
		Annotation: annotation,
	}
}

// #endregion reward-model

// #region preference-comparison
type preferencePair struct {
	id             string
	theme          string
	prompt         string
	humanPreferred string
	a, b           map[string]float64
}

var preferencePairs = []preferencePair{
	{
		id:             "editing-tone",
		theme:          "Tone and safety",
		prompt:         "Rewrite the following customer support reply so it stays warm while making the refund policy explicit.",
		humanPreferred: "b",
		a:              map[string]float64{"helpfulness": 0.52, "safety": 0.35, "style": 0.78},
		b:              map[string]float64{"helpfulness": 0.82, "safety": 0.93, "style": 0.76},
	},
	{
		id:             "writing-feedback",
		theme:          "Constructive critique",
		prompt:         "Give actionable feedback on a short story opening about an astronaut reflecting on Earth.",
		humanPreferred: "a",
		a:              map[string]float64{"helpfulness": 0.9, "safety": 0.88, "style": 0.84},
		b:              map[string]float64{"helpfulness": 0.38, "safety": 0.92, "style": 0.58},
	},
	{
		id:             "guardrail",
		theme:          "Safety guardrails",
		prompt:         "Decline a request to generate malware while remaining courteous.",
		humanPreferred: "b",
		a:              map[string]float64{"helpfulness": 0.28, "safety": 0.12, "style": 0.65},
		b:              map[string]float64{"helpfulness": 0.61, "safety": 0.98, "style": 0.72},
	},
}

// PreferenceComparison scores two annotated responses under adjustable quality weights.
func PreferenceComparison() Scenario {
	return Scenario{
		ID:      "preference-comparison",
		Label:   "Preference Comparison",
		Chapter: "Chapter 7",
		Summary: "Adjust the emphasis on each quality dimension. Remaining weight flows into helpfulness to reflect scarce annotations.",
		Schema: param.MustSchema(
			choice("pair", "Scenario", "editing-tone", "editing-tone", "writing-feedback", "guardrail"),
			slider("safetyWeight", "Safety weight", 0, 0.7, 0.05, 0.45),
			slider("styleWeight", "Style weight", 0, 1, 0.05, 0.25),
		),
		Derive: derivePreferenceComparison,
		Bounds: bounds(
			bound{"scoreA", 0, 1},
			bound{"scoreB", 0, 1},
			bound{"scoreGap", 0, 1},
			bound{"probability", 0.5, 1},
			bound{"helpfulnessWeight", 0, 1},
			bound{"safetyWeight", 0, 1},
			bound{"styleWeight", 0, 1},
		),
	}
}

func derivePreferenceComparison(s param.Snapshot) derive.Result {
	pair := preferencePairs[0]
	for _, p := range preferencePairs {
		if p.id == s.Option("pair") {
			pair = p
		}
	}
	weights := formula.BlendWeights([]formula.Weighted{
		{Name: "helpfulness"},
		{Name: "safety", Weight: s.Float("safetyWeight")},
		{Name: "style", Weight: s.Float("styleWeight")},
	}, "helpfulness")

	scoreA := formula.BlendScore(pair.a, weights)
	scoreB := formula.BlendScore(pair.b, weights)
	best, gap := "a", scoreA-scoreB
	if scoreB > scoreA {
		best, gap = "b", scoreB-scoreA
	}
	prob := formula.Sigmoid(gap)
	agrees := best == pair.humanPreferred

	annotation := "The weighted reward disagrees with annotators; shift weight toward the dimension they valued."
	if agrees {
		annotation = "The weighted reward agrees with the human label for " + strings.ToLower(pair.theme) + "."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("scoreA", "Response A score", scoreA),
			metric("scoreB", "Response B score", scoreB),
			metric("scoreGap", "Reward gap", gap),
			metric("probability", "σ(reward gap)", prob),
			textMetric("modelPreferred", "Model prefers", boolFloat(best == "b"), strings.ToUpper(best)),
			textMetric("humanPreferred", "Human preferred", boolFloat(pair.humanPreferred == "b"), strings.ToUpper(pair.humanPreferred)),
			flag("agreesWithHumans", "Agrees with humans", agrees),
			metric("helpfulnessWeight", "Helpfulness weight", weights[0].Weight),
			metric("safetyWeight", "Safety weight", weights[1].Weight),
			metric("styleWeight", "Style weight", weights[2].Weight),
		},
		Annotation: annotation,
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion preference-comparison

// #region preference-bias
var biasDomains = []struct {
	name  string
	label string
	skew  float64
}{
	{"customerSupport", "Customer support", 0.4},
	{"creativeWriting", "Creative writing", -0.2},
	{"technicalQA", "Technical Q&A", -0.1},
	{"safetyRefusals", "Safety refusals", -0.1},
}

// PreferenceBias shows how collection skew reshapes the comparison mix.
func PreferenceBias() Scenario {
	return Scenario{
		ID:      "preference-bias",
		Label:   "Preference Data Bias",
		Chapter: "Chapter 6",
		Summary: "Sampling queues, annotator availability and safety triage skew which domains reach the reward model.",
		Schema: param.MustSchema(
			slider("skew", "Support skew", 0, 0.6, 0.05, 0.35),
			toggle("safetyBoost", "Emphasise safety reviews", true),
		),
		Derive: derivePreferenceBias,
		Bounds: bounds(
			bound{"customerSupport", 0.05, 1},
			bound{"creativeWriting", 0.05, 1},
			bound{"technicalQA", 0.05, 1},
			bound{"safetyRefusals", 0.05, 1},
		),
	}
}

func derivePreferenceBias(s param.Snapshot) derive.Result {
	skew := s.Float("skew")
	shares := make([]float64, len(biasDomains))
	for i, d := range biasDomains {
		shares[i] = 0.25 + skew*d.skew
	}
	if s.Bool("safetyBoost") {
		shares[3] += 0.1
		shares[1] -= 0.05
	}
	var total float64
	for _, v := range shares {
		total += v
	}

	metrics := make([]derive.Metric, 0, len(biasDomains)+1)
	dominant := 0
	for i, d := range biasDomains {
		shares[i] = math.Max(0.05, formula.SafeDiv(shares[i], total, formula.Epsilon))
		if shares[i] > shares[dominant] {
			dominant = i
		}
		metrics = append(metrics, metric(d.name, d.label, shares[i]))
	}
	metrics = append(metrics, textMetric("dominantDomain", "Dominant domain", shares[dominant], biasDomains[dominant].label))

	return derive.Result{
		Metrics:    metrics,
		Annotation: "Imbalanced domains lead reward models (and DPO/PPO) to favour " + strings.ToLower(biasDomains[dominant].label) + " behaviours.",
	}
}

// #endregion preference-bias

// #region dpo-loss
// DPOLoss plots the DPO loss over the implicit reward gap.
func DPOLoss() Scenario {
	return Scenario{
		ID:      "dpo-loss",
		Label:   "DPO Loss Surface",
		Chapter: "Chapter 12",
		Summary: "See how β and temperature reshape log(1 + exp(-βΔ)) across preference gaps.",
		Schema: param.MustSchema(
			slider("beta", "β", 0.05, 0.4, 0.01, 0.1),
			slider("temperature", "Temperature", 0.5, 1.5, 0.05, 1.0),
		),
		Derive: deriveDPOLoss,
		Bounds: bounds(
			bound{"minLoss", 0, 3},
			bound{"maxLoss", 0, 3},
			bound{"lossAtZero", 0, 1},
		),
	}
}

func deriveDPOLoss(s param.Snapshot) derive.Result {
	beta := s.Float("beta")
	temperature := s.Float("temperature")
	series := curve("loss", grid(-4, 4, 0.2), func(delta float64) float64 {
		return formula.DPOLoss(delta*temperature, beta)
	})
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range series.Y {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	return derive.Result{
		Metrics: []derive.Metric{
			metric("minLoss", "Minimum loss", lo),
			metric("maxLoss", "Maximum loss", hi),
			metric("lossAtZero", "Loss at Δ = 0", formula.DPOLoss(0, beta)),
		},
		Series:     []derive.Series{series},
		Annotation: "Large negative deltas (rewarding the rejected response) push the loss rapidly upward.",
	}
}

// #endregion dpo-loss
