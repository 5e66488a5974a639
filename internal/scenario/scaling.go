package scenario

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/formula"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region rlvr
var rlvrDomains = map[string]struct {
	label      string
	baseline   float64
	difficulty float64
}{
	"gsm8k": {"Math (GSM8K)", 0.52, 1.0},
	"code":  {"Code (LeetCode Hard)", 0.28, 1.3},
	"logic": {"Logic (ProofWriter)", 0.41, 1.1},
}

// RLVR models reinforcement learning with verifiable rewards per domain.
func RLVR() Scenario {
	return Scenario{
		ID:      "rlvr",
		Label:   "RLVR Reward Explorer",
		Chapter: "Chapter 14",
		Summary: "Each verification pass consumes compute for proof checkers, unit tests, or execution sandboxes in exchange for accuracy.",
		Schema: param.MustSchema(
			choice("domain", "Domain", "gsm8k", "gsm8k", "code", "logic"),
			stepper("iterations", "Verifier iterations", 0, 8, 1, 3),
		),
		Derive: deriveRLVR,
		Bounds: bounds(
			bound{"accuracy", 0, 0.95},
			bound{"rewardGain", 0, 0.64},
			bound{"verifierCost", 0, 0.4},
			bound{"sampleReuse", 0.3, 1},
		),
	}
}

func deriveRLVR(s param.Snapshot) derive.Result {
	d := rlvrDomains[s.Option("domain")]
	iterations := formula.Clamp(s.Float("iterations"), 0, 8)
	gain := 0.08 * iterations / d.difficulty
	accuracy := math.Min(0.95, d.baseline+gain)
	return derive.Result{
		Metrics: []derive.Metric{
			metric("accuracy", "Accuracy", accuracy),
			metric("rewardGain", "RLVR gain", gain),
			metric("verifierCost", "Verifier cost", 0.05*iterations),
			metric("sampleReuse", "Traces retained", math.Min(1, 0.3+iterations*0.08)),
		},
		Annotation: fmt.Sprintf("%s: baseline %.0f%% rises to %.0f%% after %d verifier passes.",
			d.label, d.baseline*100, accuracy*100, int(iterations)),
	}
}

// #endregion rlvr

// #region inference-scaling
// InferenceScaling trades token budget and self-consistency samples against cost.
func InferenceScaling() Scenario {
	return Scenario{
		ID:      "inference-scaling",
		Label:   "Inference-time Scaling",
		Chapter: "Chapter 14",
		Summary: "Accuracy rises with more tokens and self-consistency votes; latency grows linearly with both.",
		Schema: param.MustSchema(
			stepper("tokens", "Token budget", 256, 4096, 128, 1024),
			stepper("samples", "Samples", 1, 16, 1, 4),
		),
		Derive: deriveInferenceScaling,
		Bounds: bounds(
			bound{"passRate", 0, 0.97},
			bound{"latencyMs", 256 * 6, 4096 * 16 * 6},
			bound{"costUnits", 0.256, 65.536},
		),
	}
}

func deriveInferenceScaling(s param.Snapshot) derive.Result {
	tokens := formula.Clamp(s.Float("tokens"), 256, 4096)
	samples := formula.Clamp(s.Float("samples"), 1, 16)
	passRate := math.Min(0.97, 0.55+math.Log2(samples)*0.05+tokens/8000)

	annotation := "Use smaller students or distillation when cost exceeds your serving budget."
	if passRate >= 0.97 {
		annotation = "The pass rate has saturated; extra tokens or samples only add latency."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("passRate", "Pass rate", passRate),
			metric("latencyMs", "Latency (ms)", tokens*samples*6),
			metric("costUnits", "Relative cost units", tokens*samples/1000),
		},
		Annotation: annotation,
	}
}

// #endregion inference-scaling

// #region tool-latency
// ToolLatency estimates end-to-end latency and success of chained tool calls.
func ToolLatency() Scenario {
	return Scenario{
		ID:      "tool-latency",
		Label:   "Tool Latency",
		Chapter: "Chapter 15",
		Summary: "Each tool adds network and execution time, and failures compound across the chain.",
		Schema: param.MustSchema(
			stepper("toolCount", "Tools per request", 1, 6, 1, 2),
			slider("avgLatency", "Average tool latency (ms)", 50, 600, 10, 150),
			stepper("failureRate", "Failure rate (%)", 0, 20, 1, 5),
		),
		Derive: deriveToolLatency,
		Bounds: bounds(
			bound{"networkMs", 80, 480},
			bound{"executionMs", 50, 3600},
			bound{"totalMs", 130, 4080},
			bound{"successRate", 0.2, 1},
		),
	}
}

func deriveToolLatency(s param.Snapshot) derive.Result {
	tools := s.Float("toolCount")
	network := tools * 80
	execution := tools * s.Float("avgLatency")
	success := math.Max(0.2, 1-(s.Float("failureRate")/100)*tools*0.05)
	return derive.Result{
		Metrics: []derive.Metric{
			metric("networkMs", "Network (ms)", network),
			metric("executionMs", "Execution (ms)", execution),
			metric("totalMs", "Total (ms)", network+execution),
			metric("successRate", "Success probability", success),
		},
		Annotation: "Mitigate cascading failures with retries or fallback plans.",
	}
}

// #endregion tool-latency

// #region constitutional
// Constitutional models critique-and-revise rounds against a set of principles.
func Constitutional() Scenario {
	return Scenario{
		ID:      "constitutional",
		Label:   "Constitutional AI Iterations",
		Chapter: "Chapter 13",
		Summary: "Synthetic feedback approaches human evaluation scores when you stack enough revision rounds.",
		Schema: param.MustSchema(
			stepper("iterations", "Revision rounds", 1, 8, 1, 3),
			stepper("principles", "Principles", 4, 20, 1, 10),
		),
		Derive: deriveConstitutional,
		Bounds: bounds(
			bound{"winRate", 0, 0.9},
			bound{"hallucinationDrop", 0, 0.4},
			bound{"biasIndex", 0.1, 0.35},
		),
	}
}

func deriveConstitutional(s param.Snapshot) derive.Result {
	iterations := formula.Clamp(s.Float("iterations"), 1, 8)
	principles := formula.Clamp(s.Float("principles"), 4, 20)
	bias := math.Max(0.1, 0.35-principles*0.01-iterations*0.015)

	annotation := "Constitution-induced bias is low."
	if bias > 0.2 {
		annotation = "Include human audits while the bias index is above 0.2."
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("winRate", "Win rate vs human data", math.Min(0.9, 0.65+iterations*0.05+principles*0.005)),
			metric("hallucinationDrop", "Hallucination reduction", math.Min(0.4, principles*0.01+iterations*0.02)),
			metric("biasIndex", "Bias index", bias),
		},
		Annotation: annotation,
	}
}

// #endregion constitutional

// #region ai-feedback
const (
	humanCostPerPrompt = 1.0
	aiCostPerPrompt    = 0.01
)

// AIFeedback blends human and AI preference labels.
func AIFeedback() Scenario {
	return Scenario{
		ID:      "ai-feedback",
		Label:   "Human vs AI Feedback",
		Chapter: "Chapter 13",
		Summary: "AI feedback has lower noise but higher bias; keep some human oversight to cap drift.",
		Schema: param.MustSchema(
			stepper("totalPrompts", "Total prompts", 1000, 50000, 500, 8000),
			stepper("humanShare", "Human share (%)", 0, 100, 5, 40),
		),
		Derive: deriveAIFeedback,
		Bounds: bounds(
			bound{"humanPrompts", 0, 50000},
			bound{"aiPrompts", 0, 50000},
			bound{"alignmentScore", 0, 1},
			bound{"driftRisk", 0, 1},
		),
	}
}

func deriveAIFeedback(s param.Snapshot) derive.Result {
	total := s.Float("totalPrompts")
	share := s.Float("humanShare")
	humanPrompts := math.Floor(share/100*total + 0.5)
	aiPrompts := total - humanPrompts
	humanCost := humanPrompts * humanCostPerPrompt
	aiCost := aiPrompts * aiCostPerPrompt
	// roughly five prompts per annotator hour; AI labels take under a second
	turnaround := humanPrompts*0.08 + aiPrompts*0.01/60
	biasPenalty := (100 - share) / 150
	noisePenalty := share / 200

	return derive.Result{
		Metrics: []derive.Metric{
			metric("humanPrompts", "Human-labelled prompts", humanPrompts),
			metric("aiPrompts", "AI-labelled prompts", aiPrompts),
			metric("humanCost", "Human cost ($)", humanCost),
			metric("aiCost", "AI cost ($)", aiCost),
			metric("blendedCost", "Blended cost ($)", humanCost+aiCost),
			metric("turnaroundHours", "Turnaround (h)", turnaround),
			metric("alignmentScore", "Alignment score", 0.78+share/100*0.12-biasPenalty-noisePenalty),
			metric("driftRisk", "Drift risk", math.Max(0, 0.25+biasPenalty-share/500)),
		},
		Annotation: "Human feedback dominates the schedule; AI feedback is near-instant and can backfill gaps overnight.",
	}
}

// #endregion ai-feedback

// #region synthetic-data
// SyntheticData plans a blend of human and synthetic training examples.
func SyntheticData() Scenario {
	return Scenario{
		ID:      "synthetic-data",
		Label:   "Synthetic Data Planner",
		Chapter: "Chapter 16",
		Summary: "Synthetic data boosts coverage but should be anchored by human references.",
		Schema: param.MustSchema(
			slider("humanExamples", "Human examples", 0, 10000, 250, 2000),
			slider("syntheticExamples", "Synthetic examples", 0, 40000, 500, 8000),
		),
		Derive: deriveSyntheticData,
		Bounds: bounds(
			bound{"quality", 0, 0.85},
			bound{"bias", 0, 0.3},
			bound{"cost", 0, 12000},
		),
	}
}

func deriveSyntheticData(s param.Snapshot) derive.Result {
	human := s.Float("humanExamples")
	synthetic := s.Float("syntheticExamples")
	total := human + synthetic
	if total == 0 {
		return derive.Result{
			Metrics: []derive.Metric{
				metric("quality", "Quality", 0),
				metric("bias", "Bias", 0),
				metric("cost", "Cost", 0),
			},
			Annotation: "Add human or synthetic examples to plan a blend.",
		}
	}
	h := human / total
	syn := synthetic / total
	return derive.Result{
		Metrics: []derive.Metric{
			metric("quality", "Quality", 0.6+h*0.25+syn*0.1),
			metric("bias", "Bias", 0.1+syn*0.2),
			metric("cost", "Cost", human*1.0+synthetic*0.05),
		},
		Annotation: fmt.Sprintf("%.0f%% synthetic; monitor bias as the synthetic share increases.", syn*100),
	}
}

// #endregion synthetic-data

// #region method-comparison
// MethodComparison scores rejection sampling, PPO and DPO for one sampling budget.
func MethodComparison() Scenario {
	return Scenario{
		ID:      "method-comparison",
		Label:   "Method Comparison",
		Chapter: "Chapter 10",
		Summary: "Relative quality, cost and latency of rejection sampling, PPO and DPO for a given sampling budget.",
		Schema: param.MustSchema(
			slider("temperature", "Temperature", 0.4, 1.0, 0.05, 0.7),
			stepper("completions", "Completions", 4, 30, 1, 12),
		),
		Derive: deriveMethodComparison,
		Bounds: bounds(
			bound{"rejectionSamplingQuality", 0, 0.85},
			bound{"rejectionSamplingCost", 0, 1},
			bound{"rejectionSamplingLatency", 0, 1},
			bound{"ppoQuality", 0, 0.95},
			bound{"dpoQuality", 0, 0.9},
		),
	}
}

func deriveMethodComparison(s param.Snapshot) derive.Result {
	temp := s.Float("temperature")
	n := s.Float("completions")
	base := math.Min(0.85, 0.65+n*0.01-math.Abs(temp-0.8)*0.1)
	rsQuality := math.Max(0, base)
	ppoQuality := math.Min(0.95, 0.8+n*0.005)
	dpoQuality := math.Min(0.9, 0.78+math.Abs(0.7-temp)*-0.05)

	best := "PPO"
	switch {
	case rsQuality > ppoQuality && rsQuality >= dpoQuality:
		best = "Rejection Sampling"
	case dpoQuality > ppoQuality:
		best = "DPO"
	}

	return derive.Result{
		Metrics: []derive.Metric{
			metric("rejectionSamplingQuality", "Rejection sampling quality", rsQuality),
			metric("rejectionSamplingCost", "Rejection sampling cost", math.Min(1, 0.35+n*0.015)),
			metric("rejectionSamplingLatency", "Rejection sampling latency", math.Min(1, 0.3+n*0.01)),
			metric("ppoQuality", "PPO quality", ppoQuality),
			metric("ppoCost", "PPO cost", 0.75),
			metric("ppoLatency", "PPO latency", 0.6),
			metric("dpoQuality", "DPO quality", dpoQuality),
			metric("dpoCost", "DPO cost", 0.45),
			metric("dpoLatency", "DPO latency", 0.4),
		},
		Annotation: best + " leads on quality at this budget.",
	}
}

// #endregion method-comparison
