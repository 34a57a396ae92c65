package grading_test

import (
	"testing"
	"time"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// stubProject serves fixed snapshots keyed by section key. Last-year data for
// lookback N is stored under "<key>@N" when N > 1.
type stubProject struct {
	name string
	data map[string]grading.MetricSnapshot
}

func (p *stubProject) Name() string { return p.name }

func (p *stubProject) Metrics(s grading.Section, per grading.Period, lookback int) grading.MetricSnapshot {
	key := string(grading.KeyFor(s, per))
	if per == grading.PeriodLastYear && lookback > 1 {
		key += "@" + string(rune('0'+lookback))
	}
	return p.data[key].Clone()
}

func project(name string, commits, issuesOpen, stars float64) *stubProject {
	return &stubProject{
		name: name,
		data: map[string]grading.MetricSnapshot{
			"agility_total":       {"commits": commits, "issues_open_percent": issuesOpen},
			"agility_last_year":   {"commits": commits},
			"community_total":     {"stars": stars},
			"community_last_year": {"stars": stars},
		},
	}
}

// trainingGroup has two projects per grade. Aggregated thresholds:
//
//	commits:             A 700, B 312.5, C 110, D 24, E 5
//	issues_open_percent: A 16.25, B 35, C 55, D 75, E 90 (reversed)
//	stars:               A 2700, B 575, C 145, D 21, E 3
func trainingGroup() grading.TrainingGroup {
	return grading.TrainingGroup{
		grading.GradeA: {project("a1", 1000, 5, 5000), project("a2", 900, 10, 4000)},
		grading.GradeB: {project("b1", 500, 20, 1000), project("b2", 400, 30, 800)},
		grading.GradeC: {project("c1", 200, 40, 300), project("c2", 150, 50, 200)},
		grading.GradeD: {project("d1", 50, 60, 50), project("d2", 40, 70, 30)},
		grading.GradeE: {project("e1", 5, 80, 3), project("e2", 1, 90, 1)},
	}
}

var fixedNow = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }

func trainOptions() grading.TrainOptions {
	return grading.TrainOptions{
		Reversed: []string{"issues_open_percent"},
		Now:      fixedNow,
	}
}

func trained(t *testing.T) *grading.Classifier {
	t.Helper()
	c, err := grading.Train(trainingGroup(), trainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return c
}

func checks() map[grading.CheckKind]grading.CheckSpec {
	return map[grading.CheckKind]grading.CheckSpec{
		grading.CheckMaintenance: {
			Strategy: grading.DefaultStrategy(grading.CheckMaintenance),
			Weights: grading.Weights{
				grading.PeriodTotal:    {"commits": 2, "issues_open_percent": 1},
				grading.PeriodLastYear: {"commits": 1},
			},
		},
		grading.CheckPopularity: {
			Strategy: grading.DefaultStrategy(grading.CheckPopularity),
			Weights: grading.Weights{
				grading.PeriodTotal:    {"stars": 1},
				grading.PeriodLastYear: {"stars": 1},
			},
		},
	}
}

func checker(t *testing.T, c *grading.Classifier) *grading.Checker {
	t.Helper()
	ch, err := grading.NewChecker(c, checks())
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return ch
}
