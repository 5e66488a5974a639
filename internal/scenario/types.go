package scenario

import (
	"errors"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// ErrUnknown is returned when a scenario id is not registered.
var ErrUnknown = errors.New("unknown scenario")

// #region scenario
// Scenario is one interactive visualization: its controls, its derivation and
// the guide text shown next to it.
type Scenario struct {
	ID      string
	Label   string
	Chapter string
	Summary string

	Objectives      []string
	ExperimentSteps []string
	ExpectedSignals []string

	Schema param.Schema
	Derive derive.Func
	Bounds eval.Config

	// Compare scores a run for the side-by-side comparison cards. Nil for
	// scenarios that do not take part in the comparison.
	Compare func(param.Snapshot, derive.Result) Comparison
}

// Comparable reports whether the scenario contributes comparison scores.
func (s Scenario) Comparable() bool {
	return s.Compare != nil
}

// #endregion scenario

// #region comparison
// Comparison is the normalized quality / cost / stability triple of one run.
type Comparison struct {
	Quality   float64 `json:"quality"`
	Cost      float64 `json:"cost"`
	Stability float64 `json:"stability"`
}

// #endregion comparison
