package grading

import (
	"fmt"
	"sort"
)

// CheckKind names a composite scoring rule.
type CheckKind string

const (
	CheckPopularity  CheckKind = "popularity"
	CheckMaintenance CheckKind = "maintenance"
	CheckMaturity    CheckKind = "maturity"
)

// CheckKinds lists every check in reporting order.
var CheckKinds = []CheckKind{CheckPopularity, CheckMaintenance, CheckMaturity}

// ParseCheckKind validates a check name.
func ParseCheckKind(s string) (CheckKind, error) {
	switch CheckKind(s) {
	case CheckPopularity, CheckMaintenance, CheckMaturity:
		return CheckKind(s), nil
	}
	return "", &ConfigError{Field: "checks", Msg: fmt.Sprintf("unknown check %q", s)}
}

// Strategy maps each period to the sections a check reads for it.
type Strategy map[Period][]Section

// DefaultStrategy returns the sections each check draws on.
func DefaultStrategy(kind CheckKind) Strategy {
	switch kind {
	case CheckPopularity:
		return Strategy{
			PeriodTotal:    {SectionCommunity},
			PeriodLastYear: {SectionCommunity},
		}
	case CheckMaintenance:
		return Strategy{
			PeriodTotal:    {SectionAgility},
			PeriodLastYear: {SectionAgility},
		}
	case CheckMaturity:
		return Strategy{
			PeriodTotal:    {SectionAgility, SectionCommunity},
			PeriodLastYear: {SectionAgility, SectionCommunity},
		}
	}
	return nil
}

// Weights maps period -> metric -> weight.
type Weights map[Period]map[string]float64

// CheckSpec is the data a check is evaluated with.
type CheckSpec struct {
	Strategy Strategy
	Weights  Weights
}

// MaxGain is the sum of every configured weight across periods.
func (s CheckSpec) MaxGain() float64 {
	sum := 0.0
	for _, p := range Periods {
		for _, name := range sortedWeightNames(s.Weights[p]) {
			sum += s.Weights[p][name]
		}
	}
	return sum
}

// Validate reports a ConfigError for an unusable spec.
func (s CheckSpec) Validate(kind CheckKind) error {
	field := "checks." + string(kind)
	if len(s.Strategy) == 0 {
		return &ConfigError{Field: field + ".strategy", Msg: "no strategy configured"}
	}
	for p, sections := range s.Strategy {
		if _, err := ParsePeriod(string(p)); err != nil {
			return &ConfigError{Field: field + ".strategy", Msg: fmt.Sprintf("unknown period %q", p)}
		}
		if len(sections) == 0 {
			return &ConfigError{Field: field + ".strategy." + string(p), Msg: "no sections"}
		}
		for _, sec := range sections {
			if _, err := ParseSection(string(sec)); err != nil {
				return &ConfigError{Field: field + ".strategy." + string(p), Msg: fmt.Sprintf("unknown section %q", sec)}
			}
		}
	}
	for p, metrics := range s.Weights {
		if _, err := ParsePeriod(string(p)); err != nil {
			return &ConfigError{Field: field + ".metrics", Msg: fmt.Sprintf("unknown period %q", p)}
		}
		for name, w := range metrics {
			if w <= 0 {
				return &ConfigError{Field: field + ".metrics." + string(p) + "." + name, Msg: "weight must be positive"}
			}
		}
	}
	if s.MaxGain() <= 0 {
		return &ConfigError{Field: field + ".metrics", Msg: "no metric weights configured"}
	}
	return nil
}

func sortedWeightNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
