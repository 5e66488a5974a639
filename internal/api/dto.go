package api

import (
	"time"

	"github.com/danielpatrickdp/rlhf-playground/internal/derive"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/session"
)

// #region responses
type scenarioItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Chapter string `json:"chapter"`
	Summary string `json:"summary"`
}

type scenarioDetail struct {
	scenarioItem
	Objectives      []string          `json:"objectives,omitempty"`
	ExperimentSteps []string          `json:"experimentSteps,omitempty"`
	ExpectedSignals []string          `json:"expectedSignals,omitempty"`
	Controls        []present.Control `json:"controls"`
}

type seriesDTO struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

type resultDTO struct {
	Scenario   string            `json:"scenario"`
	Params     map[string]string `json:"params"`
	Metrics    []present.Row     `json:"metrics"`
	Series     []seriesDTO       `json:"series,omitempty"`
	Annotation string            `json:"annotation"`
}

type entryDTO struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Scenario   string            `json:"scenario"`
	Label      string            `json:"label"`
	Params     map[string]string `json:"params"`
	Metrics    []present.Row     `json:"metrics"`
	Annotation string            `json:"annotation"`
}

type meanDTO struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
}

type summaryDTO struct {
	Scenario  string    `json:"scenario"`
	Label     string    `json:"label"`
	Runs      int       `json:"runs"`
	NoData    bool      `json:"noData"`
	Highlight string    `json:"highlight"`
	Metrics   []meanDTO `json:"metrics,omitempty"`
}

type statusDTO struct {
	Status string `json:"status"`
}

type errorDTO struct {
	Error string `json:"error"`
}

type analogyDTO struct {
	Analogy string `json:"analogy"`
}

// #endregion responses

// #region requests
type deriveRequest struct {
	Params map[string]string `json:"params"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type recordRequest struct {
	Annotation string `json:"annotation"`
}

// #endregion requests

// #region mapping
func toItem(s scenario.Scenario) scenarioItem {
	return scenarioItem{ID: s.ID, Label: s.Label, Chapter: s.Chapter, Summary: s.Summary}
}

func toResult(id string, params map[string]string, r derive.Result, places int) resultDTO {
	out := resultDTO{
		Scenario:   id,
		Params:     params,
		Metrics:    present.Table(r, places),
		Annotation: r.Annotation,
	}
	for _, s := range r.Series {
		out.Series = append(out.Series, seriesDTO{Name: s.Name, X: s.X, Y: s.Y})
	}
	return out
}

func toEntry(e session.Entry, places int) entryDTO {
	return entryDTO{
		ID:         e.ID,
		Timestamp:  e.Timestamp,
		Scenario:   e.ScenarioID,
		Label:      e.Label,
		Params:     e.Parameters.Map(),
		Metrics:    present.Table(e.Result, places),
		Annotation: e.Annotation,
	}
}

func toSummary(s session.Summary) summaryDTO {
	out := summaryDTO{
		Scenario:  s.ScenarioID,
		Label:     s.Label,
		Runs:      s.Runs,
		NoData:    s.NoData,
		Highlight: s.Highlight,
	}
	for _, m := range s.Metrics {
		out.Metrics = append(out.Metrics, meanDTO{Name: m.Name, Label: m.Label, Mean: m.Mean})
	}
	return out
}

// #endregion mapping
