package playground

import (
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

// Status line messages.
const (
	MsgExportedCSV  = "Exported current session as CSV."
	MsgExportedXLSX = "Exported current session as XLSX."
	MsgCleared      = "Session log cleared."
)

// Export outcomes reported to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

// #region observer
// Observer receives notifications for instrumentation. Implementations must be
// cheap; they are called on the playground's goroutine.
type Observer interface {
	Derived(scenarioID string)
	Exported(format, outcome string)
}

type nopObserver struct{}

func (nopObserver) Derived(string)          {}
func (nopObserver) Exported(string, string) {}

// #endregion observer

// #region view
// ComparisonCard is one scenario's quality / cost / stability scores.
type ComparisonCard struct {
	ScenarioID string              `json:"scenario"`
	Label      string              `json:"label"`
	Scores     scenario.Comparison `json:"scores"`
}

// View is everything a front end needs to draw the active scenario.
type View struct {
	ScenarioID  string            `json:"scenario"`
	Label       string            `json:"label"`
	Chapter     string            `json:"chapter"`
	Controls    []present.Control `json:"controls"`
	Table       []present.Row     `json:"table"`
	Annotation  string            `json:"annotation"`
	Comparison  []ComparisonCard  `json:"comparison,omitempty"`
	Status      string            `json:"status"`
	LogLen      int               `json:"logLen"`
	LogCapacity int               `json:"logCapacity"`
}

// #endregion view
