package sweep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

func lookup(t *testing.T, id string) scenario.Scenario {
	t.Helper()
	s, err := scenario.Default().Lookup(id)
	require.NoError(t, err)
	return s
}

func TestSweepNumericGrid(t *testing.T) {
	points, err := Sweep(lookup(t, "reward-model"), "delta", param.Snapshot{})
	require.NoError(t, err)
	require.Len(t, points, 121)
	assert.InDelta(t, -6, points[0].X, 1e-9)
	assert.InDelta(t, 6, points[120].X, 1e-9)
	assert.InDelta(t, 0, points[60].X, 1e-9)
	assert.InDelta(t, 0.5, points[60].Metrics["probability"], 1e-12)

	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].Metrics["probability"], points[i-1].Metrics["probability"])
	}
}

func TestSweepStats(t *testing.T) {
	points, err := Sweep(lookup(t, "reward-model"), "delta", param.Snapshot{})
	require.NoError(t, err)

	st, err := Stats(points, "probability")
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(6)), st.Min, 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-6)), st.Max, 1e-12)
	assert.InDelta(t, 0.5, st.Mean, 1e-9)
	assert.InDelta(t, 0.5, st.Median, 1e-9)
	assert.Greater(t, st.StdDev, 0.0)

	_, err = Stats(points, "nope")
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestStatsSkipsNonFinite(t *testing.T) {
	points := []Point{
		{Metrics: map[string]float64{"m": 1}},
		{Metrics: map[string]float64{"m": math.NaN()}},
		{Metrics: map[string]float64{"m": 3}},
		{Metrics: map[string]float64{}},
	}
	st, err := Stats(points, "m")
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.Mean)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 3.0, st.Max)
}

func TestSweepEnumAndBool(t *testing.T) {
	points, err := Sweep(lookup(t, "rejection-sampling"), "strategy", param.Snapshot{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "per-prompt", points[0].Label)
	assert.Equal(t, "global", points[1].Label)
	assert.Equal(t, 4.0, points[0].Metrics["selectedCount"])

	points, err = Sweep(lookup(t, "policy-improvement"), "showBaseline", param.Snapshot{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "false", points[0].Label)
	assert.Equal(t, 1.0, points[1].X)
}

func TestSweepHoldsBase(t *testing.T) {
	s := lookup(t, "dpo")
	store := param.NewStore(s.Schema)
	store.SetText("beta", "0.3")
	base := store.Snapshot()

	points, err := Sweep(s, "logitShift", base)
	require.NoError(t, err)

	store.SetText("logitShift", "0")
	want := s.Derive(store.Snapshot()).Value("chosenWeight")
	assert.InDelta(t, want, points[0].Metrics["chosenWeight"], 1e-12)
}

func TestSweepUnknownParam(t *testing.T) {
	_, err := Sweep(lookup(t, "ppo"), "momentum", param.Snapshot{})
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestSweepThinsLargeGrids(t *testing.T) {
	s := scenario.Scenario{
		ID:     "fine",
		Schema: param.MustSchema(param.Spec{ID: "x", Label: "x", Kind: param.Continuous, Min: 0, Max: 1, Step: 0.001, Default: 0}),
		Derive: func(snap param.Snapshot) derive.Result {
			return derive.Result{Metrics: []derive.Metric{{Name: "x", Value: snap.Float("x")}}}
		},
		Bounds: eval.DefaultConfig(),
	}
	points, err := Sweep(s, "x", param.Snapshot{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(points), MaxPoints)
	assert.Len(t, points, 335)
	assert.InDelta(t, 0.003, points[1].X, 1e-9)
	assert.InDelta(t, 1.0, points[len(points)-1].X, 1e-9, "thinned grid ends on Max")
}

func TestSweepThinnedGridStaysWithinMaxPoints(t *testing.T) {
	s := scenario.Scenario{
		ID:     "even",
		Schema: param.MustSchema(param.Spec{ID: "x", Label: "x", Kind: param.Integer, Min: 0, Max: 799, Step: 1, Default: 0}),
		Derive: func(snap param.Snapshot) derive.Result {
			return derive.Result{Metrics: []derive.Metric{{Name: "x", Value: snap.Float("x")}}}
		},
		Bounds: eval.DefaultConfig(),
	}
	points, err := Sweep(s, "x", param.Snapshot{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(points), MaxPoints)
	assert.Equal(t, 0.0, points[0].X)
	assert.Equal(t, 799.0, points[len(points)-1].X)
}

func TestTotalityBuiltins(t *testing.T) {
	for _, s := range scenario.Builtins() {
		rep := Totality(s, 500, 7)
		assert.Equal(t, 500, rep.Samples)
		assert.Empty(t, rep.Violations, s.ID)
	}
}

func TestTotalityReportsViolations(t *testing.T) {
	s := scenario.Scenario{
		ID:     "broken",
		Schema: param.MustSchema(param.Spec{ID: "x", Label: "x", Kind: param.Continuous, Min: 0, Max: 1, Step: 0.5, Default: 0}),
		Derive: func(snap param.Snapshot) derive.Result {
			return derive.Result{Metrics: []derive.Metric{{Name: "p", Value: math.Log(snap.Float("x"))}}}
		},
		Bounds: eval.Config{Bounds: map[string]eval.Bounds{"p": {Min: -1, Max: 0}}},
	}
	rep := Totality(s, 200, 1)
	assert.NotEmpty(t, rep.Violations)
	assert.Less(t, len(rep.Violations), 200, "x = 0.5 and 1 stay in bounds")
}
