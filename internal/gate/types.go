package gate

import "errors"

// ErrBusy is returned when an export is requested while another is in flight.
var ErrBusy = errors.New("export already in progress")

// #region action
// Action names a guarded user operation.
type Action string

const (
	ActionRecord      Action = "record"
	ActionExportCSV   Action = "export_csv"
	ActionExportXLSX  Action = "export_xlsx"
	ActionExportChart Action = "export_chart"
)

// #endregion action

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoEmptyLog   VetoType = "empty_log"
	VetoExportBusy VetoType = "export_busy"
	VetoNoResult   VetoType = "no_result"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region request
// Request describes the state an action would run against.
type Request struct {
	Action    Action
	LogLen    int  // recorded runs
	Busy      bool // an export is already in flight
	HasResult bool // the active scenario has a derived result
}

// #endregion request

// #region gate-decision
// Decision is the output of the gate evaluation.
type Decision struct {
	Action string // "allow" | "reject"
	Reason string
	Vetoed bool
	Vetoes []VetoSignal // non-empty if vetoed
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return !d.Vetoed
}

// Has reports whether the decision carries a veto of type t.
func (d Decision) Has(t VetoType) bool {
	for _, v := range d.Vetoes {
		if v.Type == t {
			return true
		}
	}
	return false
}

// #endregion gate-decision
