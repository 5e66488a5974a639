package derive

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region helpers
func testSchema() param.Schema {
	return param.MustSchema(
		param.Spec{ID: "x", Kind: param.Continuous, Min: 0, Max: 1, Step: 0.1, Default: 0.5},
		param.Spec{ID: "mode", Kind: param.Enum, Options: []string{"a", "b"}, DefaultOption: "a"},
	)
}

type countingFunc struct {
	calls int
}

func (c *countingFunc) derive(s param.Snapshot) Result {
	c.calls++
	x, _ := s.Get("x")
	return Result{
		Metrics: []Metric{
			{Name: "double", Value: 2 * s.Float("x")},
			{Name: "mode", Text: s.Option("mode")},
		},
		Series:     []Series{{Name: "line", X: []float64{0, 1}, Y: []float64{0, s.Float("x")}}},
		Annotation: "x is " + x.String(),
	}
}

type zeroSanitizer struct{}

func (zeroSanitizer) Sanitize(r Result) (Result, int) {
	n := 0
	for i := range r.Metrics {
		if math.IsNaN(r.Metrics[i].Value) || math.IsInf(r.Metrics[i].Value, 0) {
			r.Metrics[i].Value = 0
			n++
		}
	}
	return r, n
}

// #endregion helpers

func TestEngineComputesDefaults(t *testing.T) {
	f := &countingFunc{}
	e := NewEngine(testSchema(), f.derive)
	assert.Equal(t, 1.0, e.Current().Value("double"))
	assert.Equal(t, 1, f.calls)
}

func TestEngineRecomputesOnChangeOnly(t *testing.T) {
	f := &countingFunc{}
	e := NewEngine(testSchema(), f.derive)

	assert.False(t, e.Set("x", 0.5))
	assert.Equal(t, 1, f.calls)

	assert.True(t, e.Set("x", 0.8))
	assert.InDelta(t, 1.6, e.Current().Value("double"), 1e-12)
	assert.Equal(t, 2, f.calls)

	assert.False(t, e.Set("unknown", 3))
	assert.False(t, e.SetOption("mode", "c"))
	assert.Equal(t, 2, f.calls)
}

func TestEngineMemoizes(t *testing.T) {
	f := &countingFunc{}
	e := NewEngine(testSchema(), f.derive)
	first := e.Current()

	e.Set("x", 0.9)
	e.Set("x", 0.5)

	assert.Equal(t, 2, f.calls, "returning to a seen snapshot hits the memo")
	if diff := cmp.Diff(first, e.Current()); diff != "" {
		t.Fatalf("memo result differs (-want +got):\n%s", diff)
	}
}

func TestEngineDeterministic(t *testing.T) {
	a := NewEngine(testSchema(), (&countingFunc{}).derive)
	b := NewEngine(testSchema(), (&countingFunc{}).derive)
	a.SetText("x", "0.3")
	b.Set("x", 0.3)
	a.SetOption("mode", "b")
	b.Set("mode", 1)
	if diff := cmp.Diff(a.Current(), b.Current()); diff != "" {
		t.Fatalf("results differ (-a +b):\n%s", diff)
	}
}

func TestEngineNotifiesInOrder(t *testing.T) {
	e := NewEngine(testSchema(), (&countingFunc{}).derive)
	var order []string
	cancelA := e.Subscribe(func(s param.Snapshot, r Result) {
		order = append(order, "a")
		assert.InDelta(t, 2*s.Float("x"), r.Value("double"), 1e-12)
	})
	e.Subscribe(func(param.Snapshot, Result) { order = append(order, "b") })

	e.Set("x", 0.1)
	assert.Equal(t, []string{"a", "b"}, order)

	e.Set("x", 0.1)
	assert.Len(t, order, 2, "no change, no notification")

	cancelA()
	e.Set("x", 0.2)
	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestEngineListenerMayCancelItself(t *testing.T) {
	e := NewEngine(testSchema(), (&countingFunc{}).derive)
	calls := 0
	var cancel func()
	cancel = e.Subscribe(func(param.Snapshot, Result) {
		calls++
		cancel()
	})
	e.Set("x", 0.2)
	e.Set("x", 0.3)
	assert.Equal(t, 1, calls)
}

func TestEngineResetRecomputes(t *testing.T) {
	e := NewEngine(testSchema(), (&countingFunc{}).derive)
	e.Set("x", 0.7)
	notified := 0
	e.Subscribe(func(param.Snapshot, Result) { notified++ })

	assert.True(t, e.Reset())
	assert.Equal(t, 1.0, e.Current().Value("double"))
	assert.False(t, e.Reset("x"))
	assert.Equal(t, 1, notified)
}

func TestEngineCurrentIsACopy(t *testing.T) {
	e := NewEngine(testSchema(), (&countingFunc{}).derive)
	r := e.Current()
	r.Metrics[0].Value = 99
	r.Series[0].Y[1] = 99
	assert.Equal(t, 1.0, e.Current().Value("double"))
	assert.Equal(t, 0.5, e.Current().Series[0].Y[1])
}

func TestEngineSanitizesAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fn := func(param.Snapshot) Result {
		return Result{Metrics: []Metric{{Name: "bad", Value: math.Inf(1)}}}
	}
	e := NewEngine(testSchema(), fn,
		WithSanitizer(zeroSanitizer{}),
		WithLogger(zap.New(core)),
		WithName("broken"),
	)
	assert.Equal(t, 0.0, e.Current().Value("bad"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sanitized non-finite values", entry.Message)
	assert.Equal(t, "broken", entry.ContextMap()["scenario"])
}

func TestEngineDeriveDoesNotMutate(t *testing.T) {
	e := NewEngine(testSchema(), (&countingFunc{}).derive)
	st := param.NewStore(e.Schema())
	st.Set("x", 1)
	r := e.Derive(st.Snapshot())
	assert.Equal(t, 2.0, r.Value("double"))
	assert.Equal(t, 0.5, e.Snapshot().Float("x"))
}

func TestEngineMemoBounded(t *testing.T) {
	schema := param.MustSchema(param.Spec{ID: "n", Kind: param.Integer, Min: 0, Max: 1000, Default: 0})
	e := NewEngine(schema, func(s param.Snapshot) Result {
		return Result{Metrics: []Metric{{Name: "n", Value: s.Float("n")}}}
	})
	for i := 1; i <= 600; i++ {
		e.Set("n", float64(i))
		require.LessOrEqual(t, len(e.memo), MemoCapacity)
	}
	assert.Equal(t, 600.0, e.Current().Value("n"))
}
