package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
	"github.com/ossgrade/ossgrade/pkg/surface"
)

func TestGradeCmdFlags(t *testing.T) {
	f := newGradeCmd(&globalOpts{}).Flags()

	outputFmt, _ := f.GetString("output")
	if outputFmt != "text" {
		t.Errorf("default output = %q, want text", outputFmt)
	}
	lookback, _ := f.GetInt("lookback")
	if lookback != grading.DefaultLookback {
		t.Errorf("default lookback = %d, want %d", lookback, grading.DefaultLookback)
	}

	check := newCheckCmd(&globalOpts{}).Flags()
	for _, flag := range []string{"file", "lookback", "output"} {
		if f.Lookup(flag) == nil {
			t.Errorf("grade: missing flag: %s", flag)
		}
		if check.Lookup(flag) == nil {
			t.Errorf("check: missing flag: %s", flag)
		}
	}
}

func TestTrainCmdFlags(t *testing.T) {
	f := newTrainCmd(&globalOpts{}).Flags()

	labels, _ := f.GetString("labels")
	if labels != "labels.yaml" {
		t.Errorf("default labels = %q, want labels.yaml", labels)
	}
	for _, flag := range []string{"labels", "show", "output"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestThresholdsCmdFlags(t *testing.T) {
	f := newThresholdsCmd(&globalOpts{}).Flags()
	for _, flag := range []string{"section", "output"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestRootCmdPersistentFlags(t *testing.T) {
	root := newRootCmd()
	for _, flag := range []string{"config", "data-dir"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
	want := []string{"check", "grade", "import", "thresholds", "train"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		if !contains(got, name) {
			t.Errorf("missing subcommand %q in %v", name, got)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		vals []string
		want string
	}{
		{nil, ""},
		{[]string{"", ""}, ""},
		{[]string{"", "b", "c"}, "b"},
		{[]string{"a", "b"}, "a"},
	}
	for _, tt := range tests {
		if got := firstNonEmpty(tt.vals...); got != tt.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.vals, got, tt.want)
		}
	}
}

// workspace lays out records, labels and a config in a temp dir.
type workspace struct {
	dir     string
	records string
	labels  string
	config  string
	data    string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	w := &workspace{dir: t.TempDir()}
	w.records = filepath.Join(w.dir, "records")
	w.labels = filepath.Join(w.dir, "labels.yaml")
	w.config = filepath.Join(w.dir, "config.yaml")
	w.data = filepath.Join(w.dir, "data")

	for _, p := range []struct {
		name           string
		commits, stars float64
	}{
		{"a1", 950, 5000}, {"a2", 900, 4000},
		{"b1", 600, 900},
		{"c1", 300, 200},
		{"d1", 80, 40},
		{"e1", 10, 3}, {"e2", 2, 1},
	} {
		rec := &dataset.Record{
			ProjectName: p.name,
			Agility: dataset.SectionData{
				Total:    grading.MetricSnapshot{"commits": p.commits},
				LastYear: []grading.MetricSnapshot{{"commits": p.commits / 2}},
			},
			Community: dataset.SectionData{
				Total:    grading.MetricSnapshot{"stargazers_count": p.stars},
				LastYear: []grading.MetricSnapshot{{"stargazers_count": p.stars / 2}},
			},
		}
		if err := dataset.SaveRecord(filepath.Join(w.records, p.name+".json"), rec); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	labels := "A: [a1, a2]\nB: [b1]\nC: [c1]\nD: [d1]\nE: [e1, e2]\n"
	if err := os.WriteFile(w.labels, []byte(labels), 0o644); err != nil {
		t.Fatalf("write labels: %v", err)
	}

	config := fmt.Sprintf(`checks:
  maintenance:
    metrics:
      total:
        commits: 1
      last_year:
        commits: 1
storage:
  backend: local
  dir: %s
`, w.data)
	if err := os.WriteFile(w.config, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return w
}

func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", w.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestImportTrainGrade(t *testing.T) {
	w := newWorkspace(t)

	if _, err := w.run(t, "grade", "a1"); err == nil {
		t.Fatal("grade before import should fail")
	}
	if _, err := w.run(t, "import", w.records); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := w.run(t, "grade", "a1"); !errors.Is(err, grading.ErrUntrained) {
		t.Fatalf("grade before train: got %v, want ErrUntrained", err)
	}
	if _, err := w.run(t, "train", "--labels", w.labels); err != nil {
		t.Fatalf("train: %v", err)
	}

	out, err := w.run(t, "grade", "a1")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !strings.Contains(out, "maintenance: A") {
		t.Errorf("grade output missing maintenance A:\n%s", out)
	}

	out, err = w.run(t, "check", "e2", "--output", "json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var report surface.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Project != "e2" {
		t.Errorf("report project = %q, want e2", report.Project)
	}
	var found bool
	for _, c := range report.Checks {
		if c.Kind == grading.CheckMaintenance {
			found = true
			if c.Grade != grading.GradeE {
				t.Errorf("e2 maintenance = %s, want E", c.Grade)
			}
		}
	}
	if !found {
		t.Errorf("report has no maintenance check: %+v", report.Checks)
	}
}

func TestGradeFromFile(t *testing.T) {
	w := newWorkspace(t)
	if _, err := w.run(t, "import", w.records); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := w.run(t, "train", "--labels", w.labels); err != nil {
		t.Fatalf("train: %v", err)
	}

	out, err := w.run(t, "grade", "--file", filepath.Join(w.records, "b1.json"), "--output", "json")
	if err != nil {
		t.Fatalf("grade --file: %v", err)
	}
	var report surface.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Project != "b1" || report.Lookback != 1 {
		t.Errorf("unexpected report header %+v", report)
	}

	if _, err := w.run(t, "grade", "b1", "--lookback", "0"); err == nil {
		t.Error("lookback 0 should be rejected")
	}
}

func TestThresholdsCmd(t *testing.T) {
	w := newWorkspace(t)
	if _, err := w.run(t, "import", w.records); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := w.run(t, "train", "--labels", w.labels); err != nil {
		t.Fatalf("train: %v", err)
	}

	out, err := w.run(t, "thresholds", "--section", "agility_total", "--output", "json")
	if err != nil {
		t.Fatalf("thresholds: %v", err)
	}
	var th surface.Thresholds
	if err := json.Unmarshal([]byte(out), &th); err != nil {
		t.Fatalf("decode thresholds: %v", err)
	}
	if len(th.Sections) != 1 {
		t.Errorf("expected one section, got %d", len(th.Sections))
	}
	if _, ok := th.Sections["agility_total"]["commits"]; !ok {
		t.Error("missing commits thresholds")
	}

	if _, err := w.run(t, "thresholds", "--section", "finance"); err == nil {
		t.Error("unknown section should fail")
	}
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(&globalOpts{configPath: filepath.Join(dir, "missing.yaml"), dataDir: dir})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Storage.Backend != "local" || cfg.Storage.Dir != dir {
		t.Errorf("storage = %+v, want local at %s", cfg.Storage, dir)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
