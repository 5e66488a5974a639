package derive

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/param"
)

// MemoCapacity bounds the per-engine memo table. The table is dropped when full.
const MemoCapacity = 256

// #region options
// Option configures an Engine.
type Option func(*Engine)

// WithSanitizer routes every computed result through s.
func WithSanitizer(s Sanitizer) Option {
	return func(e *Engine) { e.sanitizer = s }
}

// WithLogger sets the engine logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithName tags log lines with the owning scenario id.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// #endregion options

// #region engine
// Engine owns a parameter store and keeps a derived Result in sync with it.
// Every mutating call that changes a value recomputes synchronously and then
// notifies subscribers in subscription order. Not safe for concurrent use.
type Engine struct {
	store     *param.Store
	fn        Func
	sanitizer Sanitizer
	log       *zap.Logger
	name      string

	current Result
	memo    map[string]Result

	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

// NewEngine creates an engine over a fresh store for schema and computes the default result.
func NewEngine(schema param.Schema, fn Func, opts ...Option) *Engine {
	e := &Engine{
		store: param.NewStore(schema),
		fn:    fn,
		log:   zap.NewNop(),
		memo:  make(map[string]Result),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.current = e.compute(e.store.Snapshot())
	return e
}

// Schema returns the engine's parameter schema.
func (e *Engine) Schema() param.Schema {
	return e.store.Schema()
}

// Set forwards to Store.Set and recomputes when the value changed.
func (e *Engine) Set(id string, raw float64) bool {
	return e.apply(e.store.Set(id, raw))
}

// SetBool forwards to Store.SetBool.
func (e *Engine) SetBool(id string, b bool) bool {
	return e.apply(e.store.SetBool(id, b))
}

// SetOption forwards to Store.SetOption.
func (e *Engine) SetOption(id, option string) bool {
	return e.apply(e.store.SetOption(id, option))
}

// SetText forwards to Store.SetText.
func (e *Engine) SetText(id, raw string) bool {
	return e.apply(e.store.SetText(id, raw))
}

// Nudge forwards to Store.Nudge.
func (e *Engine) Nudge(id string, delta int) bool {
	return e.apply(e.store.Nudge(id, delta))
}

// Load applies every value of snap and recomputes once.
func (e *Engine) Load(snap param.Snapshot) bool {
	before := e.store.Snapshot().Key()
	e.store.Load(snap)
	return e.apply(e.store.Snapshot().Key() != before)
}

// Reset restores the named parameters (all when none are named) and recomputes.
func (e *Engine) Reset(ids ...string) bool {
	before := e.store.Snapshot().Key()
	e.store.Reset(ids...)
	return e.apply(e.store.Snapshot().Key() != before)
}

// Current returns a copy of the latest result.
func (e *Engine) Current() Result {
	return e.current.Clone()
}

// Snapshot returns the current parameter values.
func (e *Engine) Snapshot() param.Snapshot {
	return e.store.Snapshot()
}

// Recompute derives the result again and notifies subscribers unconditionally.
func (e *Engine) Recompute() Result {
	e.current = e.compute(e.store.Snapshot())
	e.notify()
	return e.current.Clone()
}

// Derive evaluates the engine's function for an arbitrary snapshot without
// touching the engine's own state.
func (e *Engine) Derive(snap param.Snapshot) Result {
	return e.compute(snap).Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (e *Engine) Subscribe(fn Listener) (cancel func()) {
	e.nextSub++
	id := e.nextSub
	e.listeners = append(e.listeners, subscription{id: id, fn: fn})
	return func() {
		for i, s := range e.listeners {
			if s.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// #endregion engine

// #region helpers
func (e *Engine) apply(changed bool) bool {
	if !changed {
		return false
	}
	e.current = e.compute(e.store.Snapshot())
	e.notify()
	return true
}

func (e *Engine) notify() {
	if len(e.listeners) == 0 {
		return
	}
	snap := e.store.Snapshot()
	// copy so a listener may cancel itself mid-dispatch
	ls := append([]subscription(nil), e.listeners...)
	for _, s := range ls {
		s.fn(snap, e.current.Clone())
	}
}

// compute derives snap through the memo table and sanitizer.
func (e *Engine) compute(snap param.Snapshot) Result {
	key := snap.Key()
	if r, ok := e.memo[key]; ok {
		return r
	}
	r := e.fn(snap).Clone()
	if e.sanitizer != nil {
		var repaired int
		r, repaired = e.sanitizer.Sanitize(r)
		if repaired > 0 {
			e.log.Warn("sanitized non-finite values",
				zap.String("scenario", e.name),
				zap.String("params", key),
				zap.Int("repaired", repaired),
			)
		}
	}
	if len(e.memo) >= MemoCapacity {
		e.memo = make(map[string]Result)
	}
	e.memo[key] = r
	return r
}

// #endregion helpers
