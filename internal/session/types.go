package session

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// DefaultCapacity is the number of runs a session keeps before evicting the oldest.
const DefaultCapacity = 12

// ErrNoData is returned by exports when no runs have been recorded.
var ErrNoData = errors.New("no runs recorded yet")

// NoRunsMessage is the user-facing text for an empty log or scenario.
const NoRunsMessage = "No runs recorded yet."

// #region entry
// Entry is one recorded run. Entries are values; accessors hand out copies.
type Entry struct {
	ID         string
	Timestamp  time.Time
	ScenarioID string
	Label      string
	Parameters param.Snapshot
	Result     derive.Result
	Annotation string
}

func (e Entry) clone() Entry {
	e.Result = e.Result.Clone()
	return e
}

// #endregion entry

// #region summary
// Ref names a scenario the caller wants summarized.
type Ref struct {
	ID    string
	Label string
}

// MetricMean is the arithmetic mean of one metric across a scenario's runs.
type MetricMean struct {
	Name  string
	Label string
	Mean  float64
}

// Summary aggregates the recorded runs of one scenario.
type Summary struct {
	ScenarioID string
	Label      string
	Runs       int
	NoData     bool
	Highlight  string
	Metrics    []MetricMean
}

// #endregion summary
