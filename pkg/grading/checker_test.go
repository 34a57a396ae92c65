package grading_test

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

func TestCheckerGrades(t *testing.T) {
	ch := checker(t, trained(t))

	tests := []struct {
		name        string
		project     *stubProject
		maintenance grading.Grade
		popularity  grading.Grade
	}{
		{name: "strong project", project: project("strong", 800, 10, 3000), maintenance: grading.GradeA, popularity: grading.GradeA},
		{name: "middling project", project: project("mid", 400, 40, 600), maintenance: grading.GradeB, popularity: grading.GradeB},
		{name: "weak project", project: project("weak", 10, 95, 2), maintenance: grading.GradeE, popularity: grading.GradeE},
		{name: "fast but buggy", project: project("mixed", 150, 80, 150), maintenance: grading.GradeC, popularity: grading.GradeC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ch.Grade(tt.project, 1)
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if got[grading.CheckMaintenance] != tt.maintenance {
				t.Errorf("maintenance = %s, want %s", got[grading.CheckMaintenance], tt.maintenance)
			}
			if got[grading.CheckPopularity] != tt.popularity {
				t.Errorf("popularity = %s, want %s", got[grading.CheckPopularity], tt.popularity)
			}
			if _, ok := got[grading.CheckMaturity]; ok {
				t.Error("maturity was not configured and should be absent")
			}
		})
	}
}

func TestCheckGainBreakdown(t *testing.T) {
	ch := checker(t, trained(t))

	// commits (weight 2) and last-year commits (weight 1) land in C,
	// issues_open_percent (weight 1) lands in D
	gains, err := ch.Check(project("mixed", 150, 80, 150), 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	m := gains[grading.CheckMaintenance]
	want := grading.Gains{
		grading.GradeA: 0, grading.GradeB: 0, grading.GradeC: 0.75, grading.GradeD: 0.25, grading.GradeE: 0,
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("maintenance gains = %v, want %v", m, want)
	}
}

func TestReversedMetricSymmetry(t *testing.T) {
	ch, err := grading.NewChecker(trained(t), map[grading.CheckKind]grading.CheckSpec{
		grading.CheckMaintenance: {
			Strategy: grading.DefaultStrategy(grading.CheckMaintenance),
			Weights:  grading.Weights{grading.PeriodTotal: {"issues_open_percent": 1}},
		},
	})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}

	tiny, err := ch.Check(project("tiny", 0, 0.001, 0), 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if tiny[grading.CheckMaintenance][grading.GradeA] != 1 {
		t.Errorf("tiny value gains = %v, want all evidence on A", tiny[grading.CheckMaintenance])
	}

	huge, err := ch.Check(project("huge", 0, 1e9, 0), 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if huge[grading.CheckMaintenance][grading.GradeE] != 1 {
		t.Errorf("huge value gains = %v, want all evidence on E", huge[grading.CheckMaintenance])
	}
}

func TestGainThresholdIsStrict(t *testing.T) {
	ch := checker(t, trained(t))

	// only total commits (weight 2 of 4) matches A: exactly half is not enough
	p := &stubProject{name: "half", data: map[string]grading.MetricSnapshot{
		"agility_total": {"commits": 800},
	}}
	gains, err := ch.Check(p, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := gains[grading.CheckMaintenance][grading.GradeA]; got != 0.5 {
		t.Fatalf("A gain = %v, want 0.5", got)
	}
	if got := gains[grading.CheckMaintenance].Grade(); got != grading.GradeE {
		t.Errorf("grade = %s, want E", got)
	}
}

func TestGainMonotonicity(t *testing.T) {
	ch := checker(t, trained(t))

	base := &stubProject{name: "p", data: map[string]grading.MetricSnapshot{
		"agility_total": {"commits": 800},
	}}
	more := &stubProject{name: "p", data: map[string]grading.MetricSnapshot{
		"agility_total":     {"commits": 800},
		"agility_last_year": {"commits": 800},
	}}

	g1, err := ch.Check(base, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	g2, err := ch.Check(more, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	a1 := g1[grading.CheckMaintenance][grading.GradeA]
	a2 := g2[grading.CheckMaintenance][grading.GradeA]
	if !(a2 > a1) {
		t.Errorf("adding a matching metric did not raise A: %v -> %v", a1, a2)
	}
	for _, g := range grading.Grades[1:] {
		if g1[grading.CheckMaintenance][g] != g2[grading.CheckMaintenance][g] {
			t.Errorf("grade %s gain changed: %v -> %v", g, g1[grading.CheckMaintenance][g], g2[grading.CheckMaintenance][g])
		}
	}
}

func TestMissingMetricsContributeNothing(t *testing.T) {
	ch := checker(t, trained(t))

	empty := &stubProject{name: "empty"}
	gains, err := ch.Check(empty, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	for kind, gs := range gains {
		for g, v := range gs {
			if v != 0 {
				t.Errorf("%s grade %s gain = %v, want 0", kind, g, v)
			}
		}
		if gs.Grade() != grading.GradeE {
			t.Errorf("%s grade = %s, want E", kind, gs.Grade())
		}
	}

	// unconfigured and untrained metrics are ignored as well
	extra := project("extra", 800, 10, 3000)
	extra.data["agility_total"]["unknown_metric"] = 1
	withExtra, err := ch.Check(extra, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	plain, _ := ch.Check(project("plain", 800, 10, 3000), 1)
	if !reflect.DeepEqual(withExtra, plain) {
		t.Errorf("unknown metric changed gains: %v vs %v", withExtra, plain)
	}
}

func TestLookbackSelectsOlderYear(t *testing.T) {
	ch := checker(t, trained(t))

	p := project("p", 800, 10, 3000)
	p.data["agility_last_year@2"] = grading.MetricSnapshot{"commits": 10}

	now, err := ch.Check(p, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	then, err := ch.Check(p, 2)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if now[grading.CheckMaintenance][grading.GradeE] != 0 {
		t.Errorf("lookback 1: E gain = %v, want 0", now[grading.CheckMaintenance][grading.GradeE])
	}
	if then[grading.CheckMaintenance][grading.GradeE] != 0.25 {
		t.Errorf("lookback 2: E gain = %v, want 0.25", then[grading.CheckMaintenance][grading.GradeE])
	}
}

func TestCorruptRangeFailsLoudly(t *testing.T) {
	c := trained(t)
	tables := make(map[grading.SectionKey]grading.Table)
	for _, key := range c.Keys() {
		tables[key], _ = c.Table(key)
	}
	e := tables["agility_total"][grading.GradeE]["commits"]
	e.Range.Lower = 0
	tables["agility_total"][grading.GradeE]["commits"] = e
	broken := grading.NewClassifier(c.RunID, c.TrainedAt, tables, c.Reversed())

	ch := checker(t, broken)
	_, err := ch.Grade(project("negative", -5, 10, 3000), 1)

	var cre *grading.CorruptRangeError
	if !errors.As(err, &cre) {
		t.Fatalf("got %v, want CorruptRangeError", err)
	}
	if cre.Section != "agility_total" || cre.Metric != "commits" || cre.Value != -5 {
		t.Errorf("unexpected error detail: %+v", cre)
	}
}

func TestNewCheckerErrors(t *testing.T) {
	if _, err := grading.NewChecker(nil, checks()); !errors.Is(err, grading.ErrUntrained) {
		t.Errorf("nil classifier: got %v, want ErrUntrained", err)
	}

	partial := grading.NewClassifier(trained(t).RunID, fixedNow(), nil, nil)
	if _, err := grading.NewChecker(partial, checks()); !errors.Is(err, grading.ErrUntrained) {
		t.Errorf("empty classifier: got %v, want ErrUntrained", err)
	}

	c := trained(t)
	tests := []struct {
		name   string
		checks map[grading.CheckKind]grading.CheckSpec
	}{
		{name: "no checks", checks: nil},
		{name: "unknown check", checks: map[grading.CheckKind]grading.CheckSpec{
			"velocity": {Strategy: grading.DefaultStrategy(grading.CheckMaturity), Weights: grading.Weights{grading.PeriodTotal: {"commits": 1}}},
		}},
		{name: "missing weights", checks: map[grading.CheckKind]grading.CheckSpec{
			grading.CheckMaturity: {Strategy: grading.DefaultStrategy(grading.CheckMaturity)},
		}},
		{name: "missing strategy", checks: map[grading.CheckKind]grading.CheckSpec{
			grading.CheckMaturity: {Weights: grading.Weights{grading.PeriodTotal: {"commits": 1}}},
		}},
		{name: "negative weight", checks: map[grading.CheckKind]grading.CheckSpec{
			grading.CheckMaturity: {Strategy: grading.DefaultStrategy(grading.CheckMaturity), Weights: grading.Weights{grading.PeriodTotal: {"commits": -1}}},
		}},
		{name: "unknown section", checks: map[grading.CheckKind]grading.CheckSpec{
			grading.CheckMaturity: {Strategy: grading.Strategy{grading.PeriodTotal: {"finance"}}, Weights: grading.Weights{grading.PeriodTotal: {"commits": 1}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := grading.NewChecker(c, tt.checks)
			var cfgErr *grading.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("got %v, want ConfigError", err)
			}
		})
	}
}

func TestMaxGainSumsBothPeriods(t *testing.T) {
	spec := checks()[grading.CheckMaintenance]
	if got := spec.MaxGain(); got != 4 {
		t.Errorf("MaxGain = %v, want 4", got)
	}
}

func TestDecideReportsWinningGain(t *testing.T) {
	ch := checker(t, trained(t))

	got, err := ch.Decide(project("strong", 800, 10, 3000), 1)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	d := got[grading.CheckMaintenance]
	if d.Grade != grading.GradeA || math.Abs(d.Gain-1) > 1e-9 {
		t.Errorf("maintenance decision = %+v, want A with gain 1", d)
	}
}

func TestCheckerConcurrentUse(t *testing.T) {
	ch := checker(t, trained(t))
	projects := []*stubProject{
		project("strong", 800, 10, 3000),
		project("mid", 400, 40, 600),
		project("weak", 10, 95, 2),
	}
	want := make([]map[grading.CheckKind]grading.Gains, len(projects))
	for i, p := range projects {
		g, err := ch.Check(p, 1)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		want[i] = g
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range projects {
				got, err := ch.Check(p, 1)
				if err != nil {
					errs <- err
					return
				}
				if !reflect.DeepEqual(got, want[i]) {
					errs <- errors.New("concurrent result differs for " + p.name)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNaNValueIsTreatedAsMissing(t *testing.T) {
	ch := checker(t, trained(t))

	withNaN := project("nan", 800, 10, 3000)
	withNaN.data["agility_total"]["commits"] = math.NaN()
	without := project("plain", 800, 10, 3000)
	delete(without.data["agility_total"], "commits")

	got, err := ch.Check(withNaN, 1)
	if err != nil {
		t.Fatalf("Check with NaN: %v", err)
	}
	want, err := ch.Check(without, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NaN gains = %v, want the same as a missing value %v", got, want)
	}

	table, _ := trained(t).Table("agility_total")
	if _, ok, err := table.Lookup("commits", math.NaN()); ok || err != nil {
		t.Errorf("Lookup(NaN) = ok %v err %v, want skipped", ok, err)
	}
}
