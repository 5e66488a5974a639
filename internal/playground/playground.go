package playground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/gate"
	"github.com/danielpatrickdp/rlhf-playground/internal/logging"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/prefs"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/session"
)

// #region options
// Option configures a Playground.
type Option func(*Playground)

// WithLogger sets the logger passed down to every engine.
func WithLogger(l *zap.Logger) Option {
	return func(p *Playground) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLog replaces the default session log.
func WithLog(l *session.Log) Option {
	return func(p *Playground) {
		if l != nil {
			p.log = l
		}
	}
}

// WithPrefs sets the preference service.
func WithPrefs(s *prefs.Service) Option {
	return func(p *Playground) {
		if s != nil {
			p.prefs = s
		}
	}
}

// WithPrecision sets the decimal places used by View tables.
func WithPrecision(places int) Option {
	return func(p *Playground) { p.places = places }
}

// WithObserver registers an instrumentation hook.
func WithObserver(o Observer) Option {
	return func(p *Playground) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithClock overrides the clock used for export file names.
func WithClock(now func() time.Time) Option {
	return func(p *Playground) {
		if now != nil {
			p.now = now
		}
	}
}

// #endregion options

// #region playground
// Playground composes the scenarios, their engines, the session log and the
// export guard into one interactive session. Not safe for concurrent use.
type Playground struct {
	registry *scenario.Registry
	active   string
	engines  map[string]*derive.Engine

	log      *session.Log
	gate     *gate.Gate
	charts   *present.Exporter
	prefs    *prefs.Service
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	places int
	status string
}

// New creates a playground over registry with its first scenario active.
func New(registry *scenario.Registry, opts ...Option) (*Playground, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, errors.New("playground needs at least one scenario")
	}
	p := &Playground{
		registry: registry,
		active:   registry.IDs()[0],
		engines:  make(map[string]*derive.Engine),
		log:      session.NewLog(),
		gate:     gate.NewGate(),
		observer: nopObserver{},
		logger:   zap.NewNop(),
		now:      time.Now,
		places:   present.MaxPlaces,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.prefs == nil {
		p.prefs = prefs.NewService(nil, p.logger)
	}
	p.charts = present.NewExporter(p.gate, p.logger)
	return p, nil
}

// Registry returns the scenarios the playground serves.
func (p *Playground) Registry() *scenario.Registry {
	return p.registry
}

// Gate returns the export guard shared by every export path.
func (p *Playground) Gate() *gate.Gate {
	return p.gate
}

// Select makes id the active scenario. Its parameters keep whatever values
// they had when it was last active.
func (p *Playground) Select(id string) error {
	if _, err := p.registry.Lookup(id); err != nil {
		return err
	}
	p.active = id
	return nil
}

// Active returns the active scenario.
func (p *Playground) Active() scenario.Scenario {
	s, _ := p.registry.Lookup(p.active)
	return s
}

// Set parses text into the active scenario's parameter id.
func (p *Playground) Set(id, text string) bool {
	return p.engine(p.active).SetText(id, text)
}

// Nudge steps the active scenario's parameter id by delta.
func (p *Playground) Nudge(id string, delta int) bool {
	return p.engine(p.active).Nudge(id, delta)
}

// Reset restores the named parameters of the active scenario, or all of them.
func (p *Playground) Reset(ids ...string) bool {
	return p.engine(p.active).Reset(ids...)
}

// Current returns the active scenario's parameters and result.
func (p *Playground) Current() (param.Snapshot, derive.Result) {
	e := p.engine(p.active)
	return e.Snapshot(), e.Current()
}

// Derive evaluates scenario id at snap without touching the session.
func (p *Playground) Derive(id string, snap param.Snapshot) (derive.Result, error) {
	if _, err := p.registry.Lookup(id); err != nil {
		return derive.Result{}, err
	}
	return p.engine(id).Derive(snap), nil
}

// Record appends the active scenario's current run to the session log. An
// empty annotation falls back to the derived annotation.
func (p *Playground) Record(annotation string) (session.Entry, bool) {
	s := p.Active()
	snap, result := p.Current()

	d := p.gate.Evaluate(gate.Request{Action: gate.ActionRecord, HasResult: !result.Empty()})
	if !d.Allowed() {
		p.status = d.Reason
		logging.LogDecision(p.logger, logging.DecisionEntry{
			Scenario: s.ID,
			Action:   string(gate.ActionRecord),
			Decision: OutcomeRejected,
			Reason:   d.Reason,
		})
		return session.Entry{}, false
	}
	if annotation == "" {
		annotation = result.Annotation
	}
	entry := p.log.Record(s.ID, s.Label, snap, result, annotation)
	p.status = ""
	p.logger.Debug("run recorded",
		zap.String("scenario", s.ID),
		zap.String("entry", entry.ID),
		zap.Int("log_len", p.log.Len()),
	)
	return entry, true
}

// Entries returns the recorded runs, oldest first.
func (p *Playground) Entries() []session.Entry {
	return p.log.Entries()
}

// ClearLog drops every recorded run.
func (p *Playground) ClearLog() {
	p.log.Clear()
	p.status = MsgCleared
}

// Status is the latest status line message.
func (p *Playground) Status() string {
	return p.status
}

// Summary averages the recorded runs of every scenario.
func (p *Playground) Summary() []session.Summary {
	refs := make([]session.Ref, 0, p.registry.Len())
	for _, s := range p.registry.List() {
		refs = append(refs, session.Ref{ID: s.ID, Label: s.Label})
	}
	return p.log.Summarize(refs)
}

// Comparison scores the current run of every comparable scenario.
func (p *Playground) Comparison() []ComparisonCard {
	var out []ComparisonCard
	for _, s := range p.registry.List() {
		if !s.Comparable() {
			continue
		}
		e := p.engine(s.ID)
		out = append(out, ComparisonCard{
			ScenarioID: s.ID,
			Label:      s.Label,
			Scores:     s.Compare(e.Snapshot(), e.Current()),
		})
	}
	return out
}

// View assembles the active scenario for display.
func (p *Playground) View() View {
	s := p.Active()
	snap, result := p.Current()
	return View{
		ScenarioID:  s.ID,
		Label:       s.Label,
		Chapter:     s.Chapter,
		Controls:    present.Controls(s.Schema, snap),
		Table:       present.Table(result, p.places),
		Annotation:  result.Annotation,
		Comparison:  p.Comparison(),
		Status:      p.status,
		LogLen:      p.log.Len(),
		LogCapacity: p.log.Capacity(),
	}
}

// #endregion playground

// #region exports
// ExportCSV writes the session log as CSV.
func (p *Playground) ExportCSV(w io.Writer) present.Status {
	return p.exportLog(gate.ActionExportCSV, "csv", MsgExportedCSV, p.log.ExportCSV, w)
}

// ExportXLSX writes the session log as a spreadsheet.
func (p *Playground) ExportXLSX(w io.Writer) present.Status {
	return p.exportLog(gate.ActionExportXLSX, "xlsx", MsgExportedXLSX, p.log.ExportXLSX, w)
}

func (p *Playground) exportLog(action gate.Action, ext, okMsg string, write func(io.Writer) error, w io.Writer) present.Status {
	d, err := p.gate.Run(gate.Request{Action: action, LogLen: p.log.Len()}, func() error {
		return write(w)
	})
	st, outcome := p.settle(ext, d, err)
	if st.OK {
		st.Message = okMsg
		st.Filename = session.FileName(ext, p.now())
		p.status = st.Message
	}
	p.decided(action, outcome, st)
	return st
}

// ChartSource returns the title and a copy of the result ExportChart would draw.
func (p *Playground) ChartSource() (string, derive.Result) {
	_, result := p.Current()
	return p.Active().Label, result
}

// ExportChart renders the active scenario's current result as an image.
func (p *Playground) ExportChart(format present.Format, w io.Writer) present.Status {
	s := p.Active()
	_, result := p.Current()
	st := p.charts.Export(format, s.Label, result, w)
	outcome := OutcomeOK
	if !st.OK {
		outcome = OutcomeError
		if st.Message == gate.ReasonBusy {
			outcome = OutcomeBusy
		}
	}
	p.observer.Exported(string(format), outcome)
	p.decided(gate.ActionExportChart, outcome, st)
	p.status = st.Message
	return st
}

// settle turns a gate outcome into a status and reports it.
func (p *Playground) settle(format string, d gate.Decision, err error) (present.Status, string) {
	var st present.Status
	var outcome string
	switch {
	case errors.Is(err, gate.ErrBusy):
		st, outcome = present.Status{Message: gate.ReasonBusy}, OutcomeBusy
	case err != nil:
		p.logger.Warn("export failed", zap.String("format", format), zap.Error(err))
		st, outcome = present.Status{Message: fmt.Sprintf("Export failed: %v", err)}, OutcomeError
	case !d.Allowed():
		st, outcome = present.Status{Message: d.Reason}, OutcomeRejected
	default:
		st, outcome = present.Status{OK: true}, OutcomeOK
	}
	p.observer.Exported(format, outcome)
	p.status = st.Message
	return st, outcome
}

func (p *Playground) decided(action gate.Action, outcome string, st present.Status) {
	decision := outcome
	if outcome == OutcomeOK {
		decision = "allow"
	}
	entry := logging.DecisionEntry{
		Scenario: p.active,
		Action:   string(action),
		Decision: decision,
		Filename: st.Filename,
	}
	if !st.OK {
		entry.Reason = st.Message
	}
	logging.LogDecision(p.logger, entry)
}

// #endregion exports

// #region analogy
// Analogy returns the guide analogy preference.
func (p *Playground) Analogy(ctx context.Context) prefs.Analogy {
	return p.prefs.Analogy(ctx)
}

// SetAnalogy stores the guide analogy preference.
func (p *Playground) SetAnalogy(ctx context.Context, a prefs.Analogy) error {
	if err := p.prefs.SetAnalogy(ctx, a); err != nil {
		p.status = fmt.Sprintf("Unknown analogy %q.", a)
		return err
	}
	p.status = fmt.Sprintf("Analogy set to %s.", a)
	return nil
}

// CycleAnalogy advances to the next analogy.
func (p *Playground) CycleAnalogy(ctx context.Context) prefs.Analogy {
	next := p.Analogy(ctx).Next()
	if err := p.SetAnalogy(ctx, next); err != nil {
		p.logger.Warn("cycle analogy", zap.Error(err))
	}
	return p.Analogy(ctx)
}

// #endregion analogy

// #region engines
// engine returns the engine for id, creating it on first use. id must be registered.
func (p *Playground) engine(id string) *derive.Engine {
	if e, ok := p.engines[id]; ok {
		return e
	}
	s, err := p.registry.Lookup(id)
	if err != nil {
		panic(fmt.Sprintf("playground: engine for unregistered scenario %q", id))
	}
	e := derive.NewEngine(s.Schema, s.Derive,
		derive.WithSanitizer(eval.NewHarness(s.Bounds)),
		derive.WithLogger(p.logger),
		derive.WithName(s.ID),
	)
	p.observer.Derived(s.ID)
	e.Subscribe(func(param.Snapshot, derive.Result) {
		p.observer.Derived(s.ID)
	})
	p.engines[id] = e
	return e
}

// #endregion engines
