package gate

import (
	"sync/atomic"
)

// User-facing reasons, shown verbatim in the status line.
const (
	ReasonNoResult = "Adjust the controls to generate a run before recording."
	ReasonEmptyLog = "No runs recorded yet."
	ReasonBusy     = "An export is already in progress."
	ReasonAllowed  = "ok"
)

// #region gate
// Gate decides whether a record or export may run, and holds the export busy
// flag. A second export while one is pending is rejected, never queued.
type Gate struct {
	busy atomic.Bool
}

// NewGate creates a gate with no export in flight.
func NewGate() *Gate {
	return &Gate{}
}

// Evaluate checks every hard veto for req. The first veto's reason becomes the decision reason.
func (g *Gate) Evaluate(req Request) Decision {
	var vetoes []VetoSignal

	switch req.Action {
	case ActionRecord:
		// 1. Nothing derived yet
		if !req.HasResult {
			vetoes = append(vetoes, VetoSignal{Type: VetoNoResult, Reason: ReasonNoResult})
		}
	case ActionExportCSV, ActionExportXLSX:
		// 1. Nothing to export
		if req.LogLen == 0 {
			vetoes = append(vetoes, VetoSignal{Type: VetoEmptyLog, Reason: ReasonEmptyLog})
		}
		// 2. Another export running
		if req.Busy {
			vetoes = append(vetoes, VetoSignal{Type: VetoExportBusy, Reason: ReasonBusy})
		}
	case ActionExportChart:
		if req.Busy {
			vetoes = append(vetoes, VetoSignal{Type: VetoExportBusy, Reason: ReasonBusy})
		}
		if !req.HasResult {
			vetoes = append(vetoes, VetoSignal{Type: VetoNoResult, Reason: "Nothing to render yet."})
		}
	}

	if len(vetoes) > 0 {
		return Decision{
			Action: "reject",
			Reason: vetoes[0].Reason,
			Vetoed: true,
			Vetoes: vetoes,
		}
	}
	return Decision{Action: "allow", Reason: ReasonAllowed}
}

// Busy reports whether an export is in flight.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}

// TryAcquire marks an export as in flight. It returns false if one already is.
func (g *Gate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release clears the busy flag.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// Run evaluates req against the current busy state and, when allowed and the
// action is an export, holds the busy flag for the duration of fn.
func (g *Gate) Run(req Request, fn func() error) (Decision, error) {
	req.Busy = g.Busy()
	d := g.Evaluate(req)
	if d.Has(VetoExportBusy) {
		return d, ErrBusy
	}
	if d.Vetoed {
		return d, nil
	}
	if req.Action == ActionRecord {
		return d, fn()
	}
	if !g.TryAcquire() {
		return Decision{
			Action: "reject",
			Reason: ReasonBusy,
			Vetoed: true,
			Vetoes: []VetoSignal{{Type: VetoExportBusy, Reason: ReasonBusy}},
		}, ErrBusy
	}
	defer g.Release()
	return d, fn()
}

// #endregion gate
