package grading

import (
	"fmt"
	"sort"
)

// GainThreshold is the share of the maximum weighted evidence a grade must
// exceed to be awarded.
const GainThreshold = 0.5

// Gains maps each grade to its accumulated weighted evidence.
type Gains map[Grade]float64

// Grade returns the first grade, best to worst, whose gain exceeds
// GainThreshold, or the worst grade when none does.
func (g Gains) Grade() Grade {
	for _, grade := range Grades {
		if g[grade] > GainThreshold {
			return grade
		}
	}
	return Worst()
}

// Decision is a grade together with the gain that earned it.
type Decision struct {
	Grade Grade   `json:"grade"`
	Gain  float64 `json:"gain"`
}

// Checker grades projects against one immutable Classifier. It holds no
// mutable state and is safe for concurrent use.
type Checker struct {
	classifier *Classifier
	checks     map[CheckKind]CheckSpec
	order      []CheckKind
}

// NewChecker validates the check configuration and pairs it with a trained
// classifier.
func NewChecker(c *Classifier, checks map[CheckKind]CheckSpec) (*Checker, error) {
	if !c.Ready() {
		return nil, ErrUntrained
	}
	if len(checks) == 0 {
		return nil, &ConfigError{Field: "checks", Msg: "no checks configured"}
	}

	ch := &Checker{
		classifier: c,
		checks:     make(map[CheckKind]CheckSpec, len(checks)),
	}
	for kind, spec := range checks {
		if _, err := ParseCheckKind(string(kind)); err != nil {
			return nil, err
		}
		if err := spec.Validate(kind); err != nil {
			return nil, err
		}
		ch.checks[kind] = spec
	}
	for _, kind := range CheckKinds {
		if _, ok := ch.checks[kind]; ok {
			ch.order = append(ch.order, kind)
		}
	}
	return ch, nil
}

// Classifier returns the classifier the checker reads.
func (ch *Checker) Classifier() *Classifier { return ch.classifier }

// Checks returns the configured checks in reporting order.
func (ch *Checker) Checks() []CheckKind {
	return append([]CheckKind(nil), ch.order...)
}

// Check computes per-grade gains for every configured check.
func (ch *Checker) Check(p Project, lookback int) (map[CheckKind]Gains, error) {
	if lookback < 1 {
		lookback = DefaultLookback
	}
	out := make(map[CheckKind]Gains, len(ch.order))
	for _, kind := range ch.order {
		gains, err := ch.evaluate(kind, p, lookback)
		if err != nil {
			return nil, fmt.Errorf("check %s for %s: %w", kind, p.Name(), err)
		}
		out[kind] = gains
	}
	return out, nil
}

// Grade reduces Check to one grade per check.
func (ch *Checker) Grade(p Project, lookback int) (map[CheckKind]Grade, error) {
	all, err := ch.Check(p, lookback)
	if err != nil {
		return nil, err
	}
	out := make(map[CheckKind]Grade, len(all))
	for kind, gains := range all {
		out[kind] = gains.Grade()
	}
	return out, nil
}

// Decide returns the grade of every check with the gain behind it.
func (ch *Checker) Decide(p Project, lookback int) (map[CheckKind]Decision, error) {
	all, err := ch.Check(p, lookback)
	if err != nil {
		return nil, err
	}
	out := make(map[CheckKind]Decision, len(all))
	for kind, gains := range all {
		g := gains.Grade()
		out[kind] = Decision{Grade: g, Gain: gains[g]}
	}
	return out, nil
}

func (ch *Checker) evaluate(kind CheckKind, p Project, lookback int) (Gains, error) {
	spec := ch.checks[kind]
	maxGain := spec.MaxGain()

	gains := make(Gains, len(Grades))
	for _, g := range Grades {
		gains[g] = 0
	}

	for _, period := range sortedPeriods(spec.Strategy) {
		weights := spec.Weights[period]
		if len(weights) == 0 {
			continue
		}
		for _, section := range spec.Strategy[period] {
			key := KeyFor(section, period)
			snap := p.Metrics(section, period, lookback)
			for _, metric := range snap.Names() {
				w, ok := weights[metric]
				if !ok {
					continue
				}
				grade, found, err := ch.classifier.lookup(key, metric, snap[metric])
				if err != nil {
					return nil, err
				}
				if !found {
					// nothing was learned for this metric in this section
					continue
				}
				gains[grade] += w / maxGain
			}
		}
	}
	return gains, nil
}

func sortedPeriods(s Strategy) []Period {
	periods := make([]Period, 0, len(s))
	for p := range s {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periodIndex(periods[i]) < periodIndex(periods[j])
	})
	return periods
}

func periodIndex(p Period) int {
	for i, x := range Periods {
		if x == p {
			return i
		}
	}
	return len(Periods)
}
