package scenario

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region helpers
func mustLookup(t *testing.T, id string) Scenario {
	t.Helper()
	s, err := Default().Lookup(id)
	require.NoError(t, err)
	return s
}

func snapshotWith(t *testing.T, s Scenario, values map[string]string) param.Snapshot {
	t.Helper()
	st := param.NewStore(s.Schema)
	for id, v := range values {
		require.True(t, st.SetText(id, v) || st.Snapshot().Map()[id] == v, "set %s=%s", id, v)
	}
	return st.Snapshot()
}

// #endregion helpers

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, 19, r.Len())
	assert.Equal(t, PlaygroundIDs, r.IDs()[:3])

	_, err := r.Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknown))

	for _, s := range r.List() {
		assert.NotEmpty(t, s.Label, s.ID)
		assert.NotEmpty(t, s.Chapter, s.ID)
		assert.NotEmpty(t, s.Summary, s.ID)
		assert.Greater(t, s.Schema.Len(), 0, s.ID)
	}
}

func TestPlaygroundRegistryOrder(t *testing.T) {
	r := Playground()
	assert.Equal(t, []string{"rejection-sampling", "ppo", "dpo"}, r.IDs())
	for _, s := range r.List() {
		assert.True(t, s.Comparable(), s.ID)
		assert.Len(t, s.Objectives, 3, s.ID)
		assert.Len(t, s.ExperimentSteps, 3, s.ID)
		assert.Len(t, s.ExpectedSignals, 3, s.ID)
	}
}

func TestRegisterRejectsDuplicatesAndIncomplete(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(PPO()))
	assert.Error(t, r.Register(PPO()))
	assert.Error(t, r.Register(Scenario{ID: "empty"}))
	assert.Error(t, r.Register(Scenario{Derive: derivePPO}))

	_, err := Default().Subset("ppo", "missing")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestEveryScenarioIsTotal(t *testing.T) {
	const samples = 10000
	for _, s := range Default().List() {
		t.Run(s.ID, func(t *testing.T) {
			h := eval.NewHarness(s.Bounds)
			r := rand.New(rand.NewPCG(42, uint64(len(s.ID))))
			for i := 0; i < samples; i++ {
				snap := param.Random(s.Schema, r)
				res := s.Derive(snap)
				report := h.Run(res)
				if !report.Passed {
					t.Fatalf("params %s: %s", snap.Key(), report.Reason)
				}
				if res.Annotation == "" {
					t.Fatalf("params %s: empty annotation", snap.Key())
				}
			}
		})
	}
}

func TestEveryScenarioIsDeterministic(t *testing.T) {
	for _, s := range Default().List() {
		t.Run(s.ID, func(t *testing.T) {
			r := rand.New(rand.NewPCG(9, 9))
			for i := 0; i < 200; i++ {
				snap := param.Random(s.Schema, r)
				if diff := cmp.Diff(s.Derive(snap), s.Derive(snap)); diff != "" {
					t.Fatalf("params %s differ (-first +second):\n%s", snap.Key(), diff)
				}
			}
		})
	}
}

func TestDefaultsStayInDeclaredBounds(t *testing.T) {
	for _, s := range Default().List() {
		res := s.Derive(s.Schema.Defaults())
		report := eval.NewHarness(s.Bounds).Run(res)
		assert.True(t, report.Passed, "%s: %s", s.ID, report.Reason)
	}
}

func TestPPODefaultTrajectoryStaysInClipWindow(t *testing.T) {
	s := mustLookup(t, "ppo")
	res := s.Derive(s.Schema.Defaults())
	var clipped derive.Series
	for _, series := range res.Series {
		if series.Name == "clipped" {
			clipped = series
		}
	}
	require.Len(t, clipped.Y, 10)
	for i, y := range clipped.Y {
		assert.GreaterOrEqual(t, y, 0.8, "step %d", i)
		assert.LessOrEqual(t, y, 1.2, "step %d", i)
	}
	assert.InDelta(t, 1-math.Abs(res.Value("clippedRatio")-1), res.Value("stability"), 1e-12)
}

func TestPPOHighLearningRateAnnotation(t *testing.T) {
	s := mustLookup(t, "ppo")
	snap := snapshotWith(t, s, map[string]string{"learningRate": "0.2", "clip": "0.05", "klPenalty": "0"})
	res := s.Derive(snap)
	assert.LessOrEqual(t, res.Value("clippedRatio"), 1.05+1e-12)
	if res.Value("ratioGap") > 0.25 {
		assert.Contains(t, res.Annotation, "tighten epsilon")
	} else {
		assert.Contains(t, res.Annotation, "Balanced ratios")
	}
}

func TestDPODefaults(t *testing.T) {
	s := mustLookup(t, "dpo")
	res := s.Derive(s.Schema.Defaults())
	assert.InDelta(t, 1.0, res.Value("chosenWeight")+res.Value("rejectedWeight"), 1e-9)
	// chosen -0.6 vs rejected -1.4 around reference -1.0 with beta 0.1
	want := math.Exp(0.04) / (math.Exp(0.04) + math.Exp(-0.04))
	assert.InDelta(t, want, res.Value("chosenWeight"), 1e-12)
	assert.Contains(t, res.Annotation, "Weights converge")

	strong := snapshotWith(t, s, map[string]string{"beta": "0.4", "logitShift": "1.2"})
	res = s.Derive(strong)
	assert.Greater(t, res.Value("separation"), 0.35)
	assert.Contains(t, res.Annotation, "High separation")
}

func TestDPOWeightsNormalizeAcrossDomain(t *testing.T) {
	s := mustLookup(t, "dpo")
	r := rand.New(rand.NewPCG(5, 8))
	for i := 0; i < 5000; i++ {
		res := s.Derive(param.Random(s.Schema, r))
		require.InDelta(t, 1.0, res.Value("chosenWeight")+res.Value("rejectedWeight"), 1e-9)
	}
}

func TestRewardModelExamples(t *testing.T) {
	s := mustLookup(t, "reward-model")
	zero := s.Derive(snapshotWith(t, s, map[string]string{"delta": "0"}))
	assert.InDelta(t, 0.5, zero.Value("probability"), 1e-12)
	assert.InDelta(t, 0.693, zero.Value("loss"), 1e-3)

	four := s.Derive(snapshotWith(t, s, map[string]string{"delta": "4"}))
	assert.InDelta(t, 0.982, four.Value("probability"), 1e-3)
	assert.InDelta(t, 0.0181, four.Value("loss"), 1e-4)

	require.Len(t, four.Series, 2)
	assert.Len(t, four.Series[0].X, 61)
	assert.InDelta(t, 6.0, four.Series[0].X[60], 1e-9)
}

func TestRejectionSamplingIsSeededBySnapshot(t *testing.T) {
	s := mustLookup(t, "rejection-sampling")
	a := s.Derive(s.Schema.Defaults())
	b := s.Derive(s.Schema.Defaults())
	assert.Equal(t, a, b)

	res := a
	assert.Equal(t, 4.0, res.Value("selectedCount"), "one per prompt")
	assert.Equal(t, 32.0, res.Value("candidateCount"))
	assert.InDelta(t, 1-1.0/8, res.Value("diversityIndex"), 1e-12)
	assert.Contains(t, res.Annotation, "Per-prompt")
}

func TestRejectionSamplingGlobalSelection(t *testing.T) {
	s := mustLookup(t, "rejection-sampling")
	snap := snapshotWith(t, s, map[string]string{"strategy": "global", "topK": "2", "completionsPerPrompt": "10"})
	res := s.Derive(snap)
	assert.Equal(t, 8.0, res.Value("selectedCount"))
	assert.InDelta(t, 1-math.Min(1, 2.0*8/40), res.Value("diversityIndex"), 1e-12)
	assert.Contains(t, res.Annotation, "Best-of-N")
}

func TestRejectionSamplingSelectedCountMatchesAcrossStrategies(t *testing.T) {
	s := mustLookup(t, "rejection-sampling")
	for _, k := range []string{"1", "2", "3"} {
		per := s.Derive(snapshotWith(t, s, map[string]string{"topK": k, "strategy": "per-prompt"}))
		glob := s.Derive(snapshotWith(t, s, map[string]string{"topK": k, "strategy": "global"}))
		assert.Equal(t, per.Value("selectedCount"), glob.Value("selectedCount"), "topK=%s", k)
		assert.Len(t, glob.Series[0].Y, int(glob.Value("selectedCount")))
	}
}

func TestComparisonScores(t *testing.T) {
	rs := mustLookup(t, "rejection-sampling")
	snap := rs.Schema.Defaults()
	res := rs.Derive(snap)
	c := rs.Compare(snap, res)
	assert.Equal(t, res.Value("meanReward"), c.Quality)
	assert.InDelta(t, 8.0/20, c.Cost, 1e-12)
	assert.Equal(t, res.Value("diversityIndex"), c.Stability)

	ppo := mustLookup(t, "ppo")
	snap = ppo.Schema.Defaults()
	res = ppo.Derive(snap)
	c = ppo.Compare(snap, res)
	assert.InDelta(t, 1-math.Abs(1-res.Value("clippedRatio")), c.Quality, 1e-12)
	assert.InDelta(t, 0.4, c.Cost, 1e-12)

	dpo := mustLookup(t, "dpo")
	snap = snapshotWith(t, dpo, map[string]string{"margin": "-0.3", "beta": "0.2"})
	res = dpo.Derive(snap)
	c = dpo.Compare(snap, res)
	assert.Equal(t, res.Value("chosenWeight"), c.Quality)
	assert.InDelta(t, 0.5, c.Cost, 1e-12)
	assert.InDelta(t, 0.7, c.Stability, 1e-9)

	assert.False(t, mustLookup(t, "kl-penalty").Comparable())
}

func TestPreferenceComparisonRedistributesWeight(t *testing.T) {
	s := mustLookup(t, "preference-comparison")
	res := s.Derive(snapshotWith(t, s, map[string]string{"safetyWeight": "0.7", "styleWeight": "0.6"}))
	assert.InDelta(t, 0, res.Value("helpfulnessWeight"), 1e-9)
	assert.InDelta(t, 0.7, res.Value("safetyWeight"), 1e-9)
	assert.InDelta(t, 0.3, res.Value("styleWeight"), 1e-9)

	def := s.Derive(s.Schema.Defaults())
	m, ok := def.Metric("modelPreferred")
	require.True(t, ok)
	assert.Equal(t, "B", m.Text)
	agrees, _ := def.Metric("agreesWithHumans")
	assert.Equal(t, "yes", agrees.Text)
	assert.InDelta(t, 1.0, def.Value("helpfulnessWeight")+def.Value("safetyWeight")+def.Value("styleWeight"), 1e-9)
}

func TestPreferenceBiasFloor(t *testing.T) {
	s := mustLookup(t, "preference-bias")
	res := s.Derive(snapshotWith(t, s, map[string]string{"skew": "0.6", "safetyBoost": "false"}))
	for _, name := range []string{"customerSupport", "creativeWriting", "technicalQA", "safetyRefusals"} {
		assert.GreaterOrEqual(t, res.Value(name), 0.05, name)
	}
	dom, _ := res.Metric("dominantDomain")
	assert.Equal(t, "Customer support", dom.Text)
}

func TestSyntheticDataZeroTotal(t *testing.T) {
	s := mustLookup(t, "synthetic-data")
	res := s.Derive(snapshotWith(t, s, map[string]string{"humanExamples": "0", "syntheticExamples": "0"}))
	for _, m := range res.Metrics {
		assert.Equal(t, 0.0, m.Value, m.Name)
	}
}

func TestAIFeedbackDefaults(t *testing.T) {
	s := mustLookup(t, "ai-feedback")
	res := s.Derive(s.Schema.Defaults())
	assert.Equal(t, 3200.0, res.Value("humanPrompts"))
	assert.Equal(t, 4800.0, res.Value("aiPrompts"))
	assert.InDelta(t, 3248.0, res.Value("blendedCost"), 1e-9)
	assert.InDelta(t, 0.78+0.048-0.4-0.2, res.Value("alignmentScore"), 1e-12)
}

func TestOveroptimizationRecommendation(t *testing.T) {
	s := mustLookup(t, "overoptimization")
	res := s.Derive(snapshotWith(t, s, map[string]string{"proxyScore": "1", "evalScore": "0.5", "ensembleSize": "1"}))
	assert.InDelta(t, 0.25, res.Value("risk"), 1e-9)
	assert.Equal(t, "Rotate reward models or add constraints.", res.Annotation)
}
