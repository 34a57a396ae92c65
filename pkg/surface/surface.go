// Package surface renders grade reports and classifier thresholds.
// Implementations handle different output targets: terminal, Markdown, JSON.
package surface

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// Renderer produces formatted output from reports.
type Renderer interface {
	// RenderReport writes one project's grades and gain breakdown.
	RenderReport(w io.Writer, report *Report) error
	// RenderThresholds writes the reference thresholds per grade.
	RenderThresholds(w io.Writer, t *Thresholds) error
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Kind  grading.CheckKind `json:"check"`
	Grade grading.Grade     `json:"grade"`
	Gain  float64           `json:"gain"`
	Gains grading.Gains     `json:"gains"`
}

// Report is a project's graded result.
type Report struct {
	Project  string        `json:"project"`
	RunID    string        `json:"run_id"`
	Lookback int           `json:"lookback"`
	Checks   []CheckResult `json:"checks"`
}

// NewReport orders check results by grading.CheckKinds.
func NewReport(project string, c *grading.Classifier, lookback int, gains map[grading.CheckKind]grading.Gains) *Report {
	r := &Report{Project: project, RunID: c.RunID.String(), Lookback: lookback}
	for _, kind := range grading.CheckKinds {
		g, ok := gains[kind]
		if !ok {
			continue
		}
		grade := g.Grade()
		r.Checks = append(r.Checks, CheckResult{Kind: kind, Grade: grade, Gain: g[grade], Gains: g})
	}
	return r
}

// Thresholds is the reference value table of a classifier.
type Thresholds struct {
	RunID     string                                                      `json:"run_id"`
	TrainedAt time.Time                                                   `json:"trained_at"`
	Reversed  []string                                                    `json:"reversed"`
	Sections  map[grading.SectionKey]map[string]map[grading.Grade]float64 `json:"sections"`
}

// NewThresholds collects reference values for the given keys, or all keys
// when none are given.
func NewThresholds(c *grading.Classifier, keys ...grading.SectionKey) *Thresholds {
	if len(keys) == 0 {
		keys = c.Keys()
	}
	t := &Thresholds{
		RunID:     c.RunID.String(),
		TrainedAt: c.TrainedAt,
		Reversed:  c.Reversed(),
		Sections:  make(map[grading.SectionKey]map[string]map[grading.Grade]float64, len(keys)),
	}
	for _, k := range keys {
		t.Sections[k] = c.ReferenceValues(k)
	}
	return t
}

// For returns the renderer for a format name.
func For(format string) (Renderer, error) {
	switch format {
	case "", "text", "terminal":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text, json or markdown)", format)
}

func sortedSectionKeys(m map[grading.SectionKey]map[string]map[grading.Grade]float64) []grading.SectionKey {
	keys := make([]grading.SectionKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedMetrics(m map[string]map[grading.Grade]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
