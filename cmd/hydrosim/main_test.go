package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/san-kum/hydrosim/internal/storage"
)

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("hydrosim %s: %v", strings.Join(args, " "), err)
	}
	return out.String(), errOut.String()
}

func storedRuns(t *testing.T, dir string) []storage.RunMetadata {
	t.Helper()
	repo, err := storage.Open("fs", dir)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	runs, err := repo.List()
	if err != nil {
		t.Fatal(err)
	}
	return runs
}

func TestRunJSONStoresRun(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr := execute(t, "run", "--json", "--samples", "21", "--data", dir)

	var doc struct {
		Temperature float64   `json:"temperature"`
		Time        []float64 `json:"time"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not a JSON document: %v", err)
	}
	if doc.Temperature != 195 || len(doc.Time) != 21 {
		t.Errorf("unexpected document: temperature %g, %d samples", doc.Temperature, len(doc.Time))
	}

	runs := storedRuns(t, dir)
	if len(runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(runs))
	}
	if !strings.Contains(stderr, "run id: "+runs[0].ID) {
		t.Errorf("expected the run id on stderr, got %q", stderr)
	}
}

func TestRunNoSave(t *testing.T) {
	dir := t.TempDir()
	stdout, _ := execute(t, "run", "--no-save", "--samples", "21", "--data", dir)

	if strings.Contains(stdout, "run id:") {
		t.Errorf("unexpected run id in %q", stdout)
	}
	if runs := storedRuns(t, dir); len(runs) != 0 {
		t.Errorf("expected no stored runs, got %d", len(runs))
	}
}

func TestRunPrintsSummaryAndID(t *testing.T) {
	dir := t.TempDir()
	stdout, _ := execute(t, "run", "-T", "210°C", "--time", "20", "--samples", "21", "--data", dir)

	runs := storedRuns(t, dir)
	if len(runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(runs))
	}
	if runs[0].Conditions.Temperature != 210 || runs[0].Conditions.TimeFinal != 20 {
		t.Errorf("flags not applied: %+v", runs[0].Conditions)
	}
	for _, want := range []string{"Hydrothermal degradation at 210°C", "run id: " + runs[0].ID} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
