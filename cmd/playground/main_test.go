package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// runCmd executes the root command with args and an isolated database.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PLAYGROUND_DB_PATH", filepath.Join(dir, "playground.db"))
	t.Setenv("PLAYGROUND_LOG_LEVEL", "error")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(dir, "missing.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	out, err := runCmd(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestScenariosJSON(t *testing.T) {
	out, err := runCmd(t, "scenarios", "--json", "--controls")
	if err != nil {
		t.Fatalf("scenarios: %v", err)
	}
	var got []scenarioOut
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 19 {
		t.Fatalf("got %d scenarios, want 19", len(got))
	}
	if got[1].ID != "ppo" || len(got[1].Controls) != 3 {
		t.Errorf("unexpected ppo entry: %+v", got[1])
	}
}

func TestDeriveAppliesSets(t *testing.T) {
	out, err := runCmd(t, "derive", "ppo", "--set", "clip=0.1", "--json")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	var got deriveOut
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Params["clip"] != "0.1" {
		t.Errorf("clip = %q, want 0.1", got.Params["clip"])
	}
	if len(got.Metrics) == 0 {
		t.Error("expected metrics")
	}
}

func TestDeriveTable(t *testing.T) {
	out, err := runCmd(t, "derive", "dpo")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !strings.Contains(out, "Metric") || !strings.Contains(out, "beta = ") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDeriveRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown scenario", []string{"derive", "nope"}, "unknown"},
		{"unknown param", []string{"derive", "ppo", "--set", "gamma=1"}, `unknown parameter "gamma"`},
		{"missing equals", []string{"derive", "ppo", "--set", "clip"}, "want id=value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSweepJSON(t *testing.T) {
	out, err := runCmd(t, "sweep", "reward-model", "delta", "--metric", "probability", "--json")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var got sweepOut
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Stats) != 1 || got.Stats[0].Metric != "probability" {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}
	if st := got.Stats[0]; st.Min < 0 || st.Max > 1 || st.Min >= st.Max {
		t.Errorf("probability range [%v, %v] out of [0, 1]", st.Min, st.Max)
	}
}

func TestCheckBuiltins(t *testing.T) {
	out, err := runCmd(t, "check", "--samples", "50")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "rejection-sampling") {
		t.Errorf("expected every scenario in output:\n%s", out)
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "prefs.db")
	run := func(args ...string) (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"--env-file", ""}, args...))
		err := root.Execute()
		return out.String(), err
	}
	t.Setenv("PLAYGROUND_DB_PATH", db)
	t.Setenv("PLAYGROUND_LOG_LEVEL", "error")

	out, err := run("prefs", "get", "analogy")
	if err != nil || strings.TrimSpace(out) != "atari" {
		t.Fatalf("default analogy = %q, %v", out, err)
	}
	if _, err := run("prefs", "set", "analogy", "reasoning"); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err = run("prefs", "get", "rlhf-guide-analogy")
	if err != nil || strings.TrimSpace(out) != "reasoning" {
		t.Fatalf("stored analogy = %q, %v", out, err)
	}
	if _, err := run("prefs", "set", "analogy", "poetry"); err == nil {
		t.Error("expected invalid analogy to fail")
	}

	out, err = run("prefs", "history", "analogy", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var changes []struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(out), &changes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(changes) != 1 || changes[0].Value != "reasoning" {
		t.Errorf("history = %+v", changes)
	}
}
