package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/rlhf-playground/internal/gate"
	"github.com/danielpatrickdp/rlhf-playground/internal/param"
	"github.com/danielpatrickdp/rlhf-playground/internal/playground"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/session"
)

type fixture struct {
	pg      *playground.Playground
	metrics *Metrics
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	metrics := NewMetrics()
	clock := func() time.Time { return time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC) }
	pg, err := playground.New(scenario.Playground(),
		playground.WithObserver(metrics),
		playground.WithClock(clock),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(pg, scenario.Default(), metrics, nil, 3).Handler())
	t.Cleanup(srv.Close)
	return &fixture{pg: pg, metrics: metrics, server: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestListScenarios(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decode[[]scenarioItem](t, resp)
	assert.Len(t, items, len(scenario.Builtins()))
	assert.Equal(t, "rejection-sampling", items[0].ID)
}

func TestGetScenario(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/scenarios/ppo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	detail := decode[scenarioDetail](t, resp)
	assert.Equal(t, "ppo", detail.ID)
	require.Len(t, detail.Controls, 3)
	assert.Equal(t, "learningRate", detail.Controls[0].ID)
}

func TestGetScenarioUnknown(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/scenarios/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeriveMatchesScenario(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/api/scenarios/dpo/derive", `{"params":{"beta":"0.3"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[resultDTO](t, resp)

	sc, err := scenario.Default().Lookup("dpo")
	require.NoError(t, err)
	store := param.NewStore(sc.Schema)
	store.SetText("beta", "0.3")
	want := sc.Derive(store.Snapshot())

	assert.Equal(t, "dpo", got.Scenario)
	assert.Equal(t, store.Snapshot().Map(), got.Params)
	assert.Equal(t, present.Table(want, 3), got.Metrics)
}

func TestDeriveDoesNotTouchSession(t *testing.T) {
	f := newFixture(t)
	before, _ := f.pg.Current()
	f.do(t, http.MethodPost, "/api/scenarios/rejection-sampling/derive", `{"params":{"temperature":"1.2"}}`)
	after, _ := f.pg.Current()
	assert.Equal(t, before.Map(), after.Map())
}

func TestDeriveRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/scenarios/dpo/derive", `{"params":`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/scenarios/dpo/derive", `{"params":{"nope":"1"}}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/scenarios/nope/derive", `{}`).StatusCode)
}

func TestSelectAndParams(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPut, "/api/session/scenario", `{"id":"ppo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[playground.View](t, resp)
	assert.Equal(t, "ppo", view.ScenarioID)

	resp = f.do(t, http.MethodPatch, "/api/session/params", `{"clip":"0.3"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap, _ := f.pg.Current()
	assert.InDelta(t, 0.3, snap.Float("clip"), 1e-9)

	resp = f.do(t, http.MethodPost, "/api/session/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap, _ = f.pg.Current()
	assert.Equal(t, f.pg.Active().Schema.Defaults().Map(), snap.Map())

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/session/scenario", `{"id":"nope"}`).StatusCode)
}

func TestRecordThenExportCSV(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/api/session/record", `{"annotation":"first"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[entryDTO](t, resp)
	assert.Equal(t, "first", entry.Annotation)
	assert.Equal(t, "rejection-sampling", entry.Scenario)

	resp = f.do(t, http.MethodGet, "/api/session/export.csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "concept-playground-session-20240301-120001.csv")
	assert.Equal(t, playground.MsgExportedCSV, resp.Header.Get(StatusHeader))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), strings.Join(session.CSVHeader, ",")))

	resp = f.do(t, http.MethodGet, "/api/session/log", "")
	entries := decode[[]entryDTO](t, resp)
	assert.Len(t, entries, 1)
}

func TestExportEmptyLog(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/session/export.csv", "/api/session/export.xlsx"} {
		resp := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, path)
		assert.Equal(t, gate.ReasonEmptyLog, resp.Header.Get(StatusHeader), path)
	}
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/session/record", "")

	resp := f.do(t, http.MethodGet, "/api/session/export.xlsx", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestClearLogAndSummary(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/session/record", "")

	resp := f.do(t, http.MethodGet, "/api/session/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[[]summaryDTO](t, resp)
	require.Len(t, summary, 3)
	assert.Equal(t, 1, summary[0].Runs)
	assert.True(t, summary[1].NoData)

	resp = f.do(t, http.MethodDelete, "/api/session/log", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, f.pg.Entries())
}

func TestChartPNG(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/session/chart.png", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestChartUnknownFormat(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/session/chart.gif", "").StatusCode)
}

func TestExportsRejectedWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/session/record", "")
	require.True(t, f.pg.Gate().TryAcquire())
	defer f.pg.Gate().Release()

	for _, path := range []string{"/api/session/chart.svg", "/api/session/export.csv"} {
		resp := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode, path)
		assert.Equal(t, gate.ReasonBusy, resp.Header.Get(StatusHeader), path)
	}
}

func TestAnalogyPrefs(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/prefs/analogy", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "atari", decode[analogyDTO](t, resp).Analogy)

	resp = f.do(t, http.MethodPut, "/api/prefs/analogy", `{"analogy":"writing"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "writing", decode[analogyDTO](t, resp).Analogy)

	resp = f.do(t, http.MethodPut, "/api/prefs/analogy", `{"analogy":"poetry"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/scenarios/dpo/derive", "{}")
	f.do(t, http.MethodGet, "/api/session/export.csv", "")

	resp := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `playground_derivations_total{scenario="dpo"}`)
	assert.Contains(t, text, `playground_exports_total{format="csv",outcome="rejected"} 1`)
	assert.Contains(t, text, "playground_http_request_duration_seconds")
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[statusDTO](t, resp).Status)
}
