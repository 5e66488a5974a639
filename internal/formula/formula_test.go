package formula

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBradleyTerryZeroGap(t *testing.T) {
	prob, loss := BradleyTerry(0)
	assert.Equal(t, 0.5, prob)
	assert.InDelta(t, math.Ln2, loss, 1e-12)
	assert.InDelta(t, 0.693, loss, 1e-3)
}

func TestBradleyTerryPositiveGap(t *testing.T) {
	prob, loss := BradleyTerry(4)
	assert.InDelta(t, 0.982, prob, 1e-3)
	assert.InDelta(t, 0.0181, loss, 1e-4)
	assert.InDelta(t, -math.Log(prob), loss, 1e-12)
}

func TestBradleyTerryStaysFiniteAtExtremes(t *testing.T) {
	for _, delta := range []float64{-800, -6, 6, 800} {
		prob, loss := BradleyTerry(delta)
		assert.True(t, Finite(prob), "prob at %v", delta)
		assert.True(t, Finite(loss), "loss at %v", delta)
		assert.GreaterOrEqual(t, prob, 0.0)
		assert.LessOrEqual(t, prob, 1.0)
	}
}

func TestSimulateTrajectoryStaysInClipWindow(t *testing.T) {
	points := SimulateTrajectory(0.08, 0.2, 0.008, DefaultAdvantages)
	require.Len(t, points, len(DefaultAdvantages))
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Clipped, 0.8, "step %d", p.Step)
		assert.LessOrEqual(t, p.Clipped, 1.2, "step %d", p.Step)
		assert.GreaterOrEqual(t, p.Unclipped, MinRatio)
	}
}

func TestSimulateTrajectoryFirstStep(t *testing.T) {
	points := SimulateTrajectory(0.08, 0.2, 0.008, DefaultAdvantages)
	// ratio starts at 1 so the KL term vanishes on the first step
	want := math.Exp(0.08 * 0.8)
	assert.InDelta(t, want, points[0].Unclipped, 1e-12)
	assert.InDelta(t, want, points[0].Clipped, 1e-12)
}

func TestSimulateTrajectoryHighLearningRateSaturates(t *testing.T) {
	points := SimulateTrajectory(0.2, 0.05, 0, []float64{1, 1, 1, 1})
	for _, p := range points {
		assert.LessOrEqual(t, p.Clipped, 1.05)
	}
	assert.Greater(t, points[len(points)-1].Unclipped, points[len(points)-1].Clipped)
}

func TestPreferenceWeightsNormalize(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 5000; i++ {
		beta := 0.02 + r.Float64()*0.38
		margin := -0.5 + r.Float64()
		shift := r.Float64() * 1.2
		w := PreferenceWeights(
			[]float64{-1.2 + shift, -0.8 - shift},
			[]float64{-1.0, -1.0},
			beta, margin,
		)
		require.Len(t, w, 2)
		assert.InDelta(t, 1.0, w[0]+w[1], 1e-9)
	}
}

func TestPreferenceWeightsMatchRawRatio(t *testing.T) {
	w := PreferenceWeights([]float64{-0.6, -1.4}, []float64{-1, -1}, 0.1, 0)
	a := RawWeight(-0.6, -1, 0.1, 0)
	b := RawWeight(-1.4, -1, 0.1, 0)
	assert.InDelta(t, a/(a+b), w[0], 1e-12)
	assert.InDelta(t, b/(a+b), w[1], 1e-12)
}

func TestPreferenceWeightsMismatchedLengths(t *testing.T) {
	assert.Nil(t, PreferenceWeights([]float64{1}, []float64{1, 2}, 0.1, 0))
	assert.Nil(t, PreferenceWeights(nil, nil, 0.1, 0))
}

func TestBlendWeightsRedistributesExcess(t *testing.T) {
	got := BlendWeights([]Weighted{
		{Name: "helpfulness"},
		{Name: "safety", Weight: 0.7},
		{Name: "style", Weight: 0.6},
	}, "helpfulness")
	require.Len(t, got, 3)
	assert.InDelta(t, 0.0, got[0].Weight, 1e-12)
	assert.InDelta(t, 0.7, got[1].Weight, 1e-12)
	assert.InDelta(t, 0.3, got[2].Weight, 1e-12)
}

func TestBlendWeightsDefaultTakesRemainder(t *testing.T) {
	got := BlendWeights([]Weighted{
		{Name: "helpfulness"},
		{Name: "safety", Weight: 0.45},
		{Name: "style", Weight: 0.25},
	}, "helpfulness")
	assert.InDelta(t, 0.3, got[0].Weight, 1e-12)
	var sum float64
	for _, w := range got {
		sum += w.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestBlendScore(t *testing.T) {
	score := BlendScore(
		map[string]float64{"helpfulness": 0.82, "safety": 0.93, "style": 0.76},
		[]Weighted{{"helpfulness", 0.3}, {"safety", 0.45}, {"style", 0.25}},
	)
	assert.InDelta(t, 0.82*0.3+0.93*0.45+0.76*0.25, score, 1e-12)
}

func TestSafeHelpers(t *testing.T) {
	assert.InDelta(t, 1/Epsilon, SafeDiv(1, 0, Epsilon), 1e-3)
	assert.InDelta(t, 2.0, SafeDiv(4, 2, Epsilon), 1e-12)
	assert.True(t, Finite(SafeLog(0)))
	assert.Equal(t, 3.0, OrSentinel(math.NaN(), 3))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, Clamp(math.Inf(1), 0, 1))
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
}

func TestDPOLossMatchesDefinition(t *testing.T) {
	assert.InDelta(t, math.Log1p(math.Exp(-0.1*2)), DPOLoss(2, 0.1), 1e-12)
	assert.True(t, Finite(DPOLoss(-1e6, 0.4)))
}
