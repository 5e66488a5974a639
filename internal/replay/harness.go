package replay

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/session"
)

// #region types

// Result captures the outcome of replaying one fixture run.
type Result struct {
	Index    int
	Scenario string
	Params   param.Snapshot
	Result   derive.Result
	Recorded bool
	Failures []string
	Passed   bool
}

// Summary provides aggregate stats from a replay.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Recorded int
}

// #endregion types

// #region replay

// Replay derives every run of f in order. Each run starts from the scenario's
// defaults, applies its params (unparsable values are ignored), passes the result through the totality checks
// and compares it with the run's expectations. Runs marked record are appended
// to log when log is non-nil.
func Replay(registry *scenario.Registry, f *Fixture, log *session.Log) []Result {
	results := make([]Result, 0, len(f.Runs))
	for i, run := range f.Runs {
		res := Result{Index: i + 1, Scenario: run.Scenario}

		// 1. Resolve scenario
		s, err := registry.Lookup(run.Scenario)
		if err != nil {
			res.Failures = append(res.Failures, err.Error())
			results = append(results, res)
			continue
		}

		// 2. Apply params
		harness := eval.NewHarness(s.Bounds)
		engine := derive.NewEngine(s.Schema, s.Derive, derive.WithSanitizer(harness), derive.WithName(s.ID))
		for _, id := range sortedKeys(run.Params) {
			if _, ok := s.Schema.Spec(id); !ok {
				res.Failures = append(res.Failures, fmt.Sprintf("unknown parameter %q", id))
				continue
			}
			engine.SetText(id, run.Params[id])
		}
		res.Params = engine.Snapshot()
		res.Result = engine.Current()

		// 3. Totality
		if ev := harness.Run(res.Result); !ev.Passed {
			res.Failures = append(res.Failures, ev.Reason)
		}

		// 4. Expectations
		res.Failures = append(res.Failures, check(res.Result, run.Expect)...)

		// 5. Record
		if run.Record && log != nil {
			annotation := run.Annotation
			if annotation == "" {
				annotation = res.Result.Annotation
			}
			log.Record(s.ID, s.Label, res.Params, res.Result, annotation)
			res.Recorded = true
		}

		res.Passed = len(res.Failures) == 0
		results = append(results, res)
	}
	return results
}

func check(r derive.Result, expect map[string]Expectation) []string {
	var failures []string
	for _, name := range sortedKeys(expect) {
		want := expect[name]
		m, ok := r.Metric(name)
		if !ok {
			failures = append(failures, fmt.Sprintf("metric %s missing", name))
			continue
		}
		if want.Text != "" {
			if m.Text != want.Text {
				failures = append(failures, fmt.Sprintf("metric %s = %q, want %q", name, m.Text, want.Text))
			}
			continue
		}
		if math.Abs(m.Value-want.Value) > want.tolerance() {
			failures = append(failures, fmt.Sprintf("metric %s = %.6f, want %.6f ± %g", name, m.Value, want.Value, want.tolerance()))
		}
	}
	return failures
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
		if r.Recorded {
			s.Recorded++
		}
	}
	return s
}

// #endregion replay

// #region generate

// Generate builds a fixture that pins the default run of every scenario in registry.
func Generate(registry *scenario.Registry, description string) *Fixture {
	f := &Fixture{Description: description}
	for _, s := range registry.List() {
		snap := s.Schema.Defaults()
		engine := derive.NewEngine(s.Schema, s.Derive, derive.WithSanitizer(eval.NewHarness(s.Bounds)))
		result := engine.Current()

		run := FixtureRun{
			Scenario: s.ID,
			Params:   snap.Map(),
			Expect:   make(map[string]Expectation, len(result.Metrics)),
		}
		for _, m := range result.Metrics {
			run.Expect[m.Name] = Expectation{Value: m.Value, Text: m.Text}
		}
		f.Runs = append(f.Runs, run)
	}
	return f
}

// #endregion generate
