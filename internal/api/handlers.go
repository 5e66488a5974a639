package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
	"github.com/danielpatrickdp/rlhf-playground/internal/gate"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/playground"
	"github.com/danielpatrickdp/rlhf-playground/internal/prefs"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

// #region catalog
func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	list := s.catalog.List()
	out := make([]scenarioItem, 0, len(list))
	for _, sc := range list {
		out = append(out, toItem(sc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.catalog.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenarioDetail{
		scenarioItem:    toItem(sc),
		Objectives:      sc.Objectives,
		ExperimentSteps: sc.ExperimentSteps,
		ExpectedSignals: sc.ExpectedSignals,
		Controls:        present.Controls(sc.Schema, sc.Schema.Defaults()),
	})
}

// handleDerive evaluates a scenario at the posted params without touching the session.
func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	sc, err := s.catalog.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req deriveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}
	}

	store := param.NewStore(sc.Schema)
	for id, text := range req.Params {
		if _, ok := sc.Schema.Spec(id); !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown parameter %q", id))
			return
		}
		store.SetText(id, text)
	}
	snap := store.Snapshot()
	result, repaired := eval.NewHarness(sc.Bounds).Sanitize(sc.Derive(snap))
	if repaired > 0 {
		s.logger.Warn("sanitized non-finite values",
			zap.String("scenario", sc.ID),
			zap.String("params", snap.Key()),
			zap.Int("repaired", repaired),
		)
	}
	s.metrics.Derived(sc.ID)
	writeJSON(w, http.StatusOK, toResult(sc.ID, snap.Map(), result, s.places))
}

// #endregion catalog

// #region session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	v := s.pg.View()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pg.Select(req.ID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, scenario.ErrUnknown) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.pg.View())
}

// handleParams applies {id: text} to the active scenario. Unknown ids and
// unparsable values are ignored, the same as in the other front ends.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, text := range req {
		s.pg.Set(id, text)
	}
	writeJSON(w, http.StatusOK, s.pg.View())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pg.Reset()
	writeJSON(w, http.StatusOK, s.pg.View())
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pg.Record(req.Annotation)
	if !ok {
		writeError(w, http.StatusConflict, s.pg.Status())
		return
	}
	writeJSON(w, http.StatusCreated, toEntry(entry, s.places))
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := s.pg.Entries()
	s.mu.Unlock()
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntry(e, s.places))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.pg.ClearLog()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	summary := s.pg.Summary()
	s.mu.Unlock()
	out := make([]summaryDTO, 0, len(summary))
	for _, sm := range summary {
		out = append(out, toSummary(sm))
	}
	writeJSON(w, http.StatusOK, out)
}

// #endregion session

// #region exports
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	s.mu.Lock()
	st := s.pg.ExportCSV(&buf)
	s.mu.Unlock()
	writeExport(w, st, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	s.mu.Lock()
	st := s.pg.ExportXLSX(&buf)
	s.mu.Unlock()
	writeExport(w, st, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, ok := present.ParseFormat(chi.URLParam(r, "format"))
	if !ok {
		writeError(w, http.StatusNotFound, "unsupported chart format")
		return
	}
	s.mu.Lock()
	title, result := s.pg.ChartSource()
	s.mu.Unlock()

	var buf bytes.Buffer
	st := s.charts.Export(format, title, result, &buf)
	outcome := playground.OutcomeOK
	switch {
	case st.OK:
	case st.Message == gate.ReasonBusy:
		outcome = playground.OutcomeBusy
	default:
		outcome = playground.OutcomeError
	}
	s.metrics.Exported(string(format), outcome)

	contentType := "image/png"
	if format == present.SVG {
		contentType = "image/svg+xml"
	}
	writeExport(w, st, contentType, buf.Bytes())
}

// writeExport maps an export status to a response: 200 with the file, 409
// when another export holds the gate, 204 when there was nothing to export
// and 422 when rendering failed.
func writeExport(w http.ResponseWriter, st present.Status, contentType string, body []byte) {
	w.Header().Set(StatusHeader, st.Message)
	switch {
	case st.OK:
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	case st.Message == gate.ReasonBusy:
		writeError(w, http.StatusConflict, st.Message)
	case st.Message == gate.ReasonEmptyLog:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusUnprocessableEntity, st.Message)
	}
}

// #endregion exports

// #region prefs
func (s *Server) handleGetAnalogy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a := s.pg.Analogy(r.Context())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, analogyDTO{Analogy: string(a)})
}

func (s *Server) handleSetAnalogy(w http.ResponseWriter, r *http.Request) {
	var req analogyDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pg.SetAnalogy(r.Context(), prefs.Analogy(req.Analogy)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, prefs.ErrInvalidAnalogy) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analogyDTO{Analogy: string(s.pg.Analogy(r.Context()))})
}

// #endregion prefs
