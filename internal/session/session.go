package session

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// #region options
// Option configures a Log.
type Option func(*Log)

// WithCapacity sets the maximum number of retained runs. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// #endregion options

// #region log
// Log is a bounded, in-memory record of runs. When full, recording a new run
// evicts the oldest one. Not safe for concurrent use.
type Log struct {
	capacity int
	now      func() time.Time

	buf   []Entry
	start int
	count int
}

// NewLog creates an empty log.
func NewLog(opts ...Option) *Log {
	l := &Log{capacity: DefaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.buf = make([]Entry, l.capacity)
	return l
}

// Record appends a run and returns the stored entry.
func (l *Log) Record(scenarioID, label string, snap param.Snapshot, result derive.Result, annotation string) Entry {
	e := Entry{
		ID:         uuid.New().String(),
		Timestamp:  l.now(),
		ScenarioID: scenarioID,
		Label:      label,
		Parameters: snap,
		Result:     result.Clone(),
		Annotation: annotation,
	}
	if l.count < l.capacity {
		l.buf[(l.start+l.count)%l.capacity] = e
		l.count++
	} else {
		l.buf[l.start] = e
		l.start = (l.start + 1) % l.capacity
	}
	return e.clone()
}

// Entries returns the retained runs, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.buf[(l.start+i)%l.capacity].clone())
	}
	return out
}

// Len is the number of retained runs.
func (l *Log) Len() int {
	return l.count
}

// Capacity is the maximum number of retained runs.
func (l *Log) Capacity() int {
	return l.capacity
}

// Clear drops every run.
func (l *Log) Clear() {
	l.buf = make([]Entry, l.capacity)
	l.start = 0
	l.count = 0
}

// #endregion log

// #region summarize
// Summarize averages each requested scenario's metrics over its retained runs.
// Metric names come from the scenario's first run; non-finite values are skipped.
func (l *Log) Summarize(refs []Ref) []Summary {
	entries := l.Entries()
	out := make([]Summary, 0, len(refs))
	for _, ref := range refs {
		var runs []Entry
		for _, e := range entries {
			if e.ScenarioID == ref.ID {
				runs = append(runs, e)
			}
		}
		s := Summary{ScenarioID: ref.ID, Label: ref.Label, Runs: len(runs)}
		if len(runs) == 0 {
			s.NoData = true
			s.Highlight = NoRunsMessage
			out = append(out, s)
			continue
		}
		for _, m := range runs[0].Result.Metrics {
			s.Metrics = append(s.Metrics, MetricMean{
				Name:  m.Name,
				Label: m.Label,
				Mean:  meanOf(runs, m.Name),
			})
		}
		s.Highlight = runs[len(runs)-1].Annotation
		out = append(out, s)
	}
	return out
}

func meanOf(runs []Entry, name string) float64 {
	values := make([]float64, 0, len(runs))
	for _, e := range runs {
		m, ok := e.Result.Metric(name)
		if !ok || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			continue
		}
		values = append(values, m.Value)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

// #endregion summarize
