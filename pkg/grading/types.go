// Package grading implements the ossgrade classifier: it learns per-grade
// metric thresholds from a labeled training set and grades projects against
// them.
package grading

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Grade is an ordinal label, A (best) through E (worst).
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// Grades lists every grade from best to worst.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeE}

// ParseGrade validates a grade label.
func ParseGrade(s string) (Grade, error) {
	g := Grade(s)
	if g.Index() < 0 {
		return "", &ConfigError{Field: "grade", Msg: fmt.Sprintf("unknown grade %q", s)}
	}
	return g, nil
}

// Index returns the position of g in Grades, or -1.
func (g Grade) Index() int {
	for i, x := range Grades {
		if x == g {
			return i
		}
	}
	return -1
}

// Mirror returns the symmetric grade: A<->E, B<->D, C<->C.
func (g Grade) Mirror() Grade {
	i := g.Index()
	if i < 0 {
		return g
	}
	return Grades[len(Grades)-1-i]
}

// Worst returns the most conservative grade.
func Worst() Grade { return Grades[len(Grades)-1] }

// Section is a metric domain.
type Section string

const (
	SectionAgility   Section = "agility"
	SectionCommunity Section = "community"
)

// Sections lists every section.
var Sections = []Section{SectionAgility, SectionCommunity}

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionAgility, SectionCommunity:
		return Section(s), nil
	}
	return "", &ConfigError{Field: "section", Msg: fmt.Sprintf("unknown section %q", s)}
}

// Period is the temporal scope of a metric.
type Period string

const (
	PeriodTotal    Period = "total"
	PeriodLastYear Period = "last_year"
)

// Periods lists every period.
var Periods = []Period{PeriodTotal, PeriodLastYear}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodTotal, PeriodLastYear:
		return Period(s), nil
	}
	return "", &ConfigError{Field: "period", Msg: fmt.Sprintf("unknown period %q", s)}
}

// SectionKey identifies one trained table, e.g. "agility_total".
type SectionKey string

// KeyFor builds the table key for a section and period.
func KeyFor(s Section, p Period) SectionKey {
	return SectionKey(string(s) + "_" + string(p))
}

// SectionKeys returns the four keys a complete classifier holds.
func SectionKeys() []SectionKey {
	keys := make([]SectionKey, 0, len(Sections)*len(Periods))
	for _, s := range Sections {
		for _, p := range Periods {
			keys = append(keys, KeyFor(s, p))
		}
	}
	return keys
}

// MetricSnapshot maps metric names to values for one section and period of
// one project.
type MetricSnapshot map[string]float64

// Clone returns an independent copy.
func (m MetricSnapshot) Clone() MetricSnapshot {
	out := make(MetricSnapshot, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Names returns the metric names in sorted order.
func (m MetricSnapshot) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Project is a source of metric snapshots. Metrics never fails: missing data
// is an empty snapshot.
type Project interface {
	Name() string
	Metrics(section Section, period Period, lookback int) MetricSnapshot
}

// TrainingGroup holds the labeled projects for one training run.
type TrainingGroup map[Grade][]Project

// RawTable collects raw samples: grade -> metric -> values.
type RawTable map[Grade]map[string][]float64

// AggregatedTable holds one threshold per grade and metric.
type AggregatedTable map[Grade]map[string]float64

// Clone returns a deep copy.
func (t AggregatedTable) Clone() AggregatedTable {
	out := make(AggregatedTable, len(t))
	for g, metrics := range t {
		m := make(map[string]float64, len(metrics))
		for k, v := range metrics {
			m[k] = v
		}
		out[g] = m
	}
	return out
}

// Metrics returns every metric name present for any grade, sorted.
func (t AggregatedTable) Metrics() []string {
	seen := make(map[string]bool)
	for _, metrics := range t {
		for k := range metrics {
			seen[k] = true
		}
	}
	return sortedKeys(seen)
}

// Range is a half-open interval [Lower, Upper). An infinite Lower makes the
// low side open. Lower == Upper is empty.
type Range struct {
	Lower float64
	Upper float64
}

// Covers reports whether v falls inside the range.
func (r Range) Covers(v float64) bool {
	return v >= r.Lower && v < r.Upper
}

// Empty reports whether no value is covered.
func (r Range) Empty() bool {
	return !(r.Lower < r.Upper)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", formatBound(r.Lower), formatBound(r.Upper))
}

// MarshalJSON encodes the range as a two-element array; infinite bounds use
// the "-Infinity" and "Infinity" sentinels.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]bound{bound(r.Lower), bound(r.Upper)})
}

// UnmarshalJSON decodes the two-element array form.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]bound
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding range: %w", err)
	}
	r.Lower, r.Upper = float64(pair[0]), float64(pair[1])
	return nil
}

// RangeEntry is the trained boundary of one metric for one grade. Inherited
// marks a grade that had no value for the metric; its threshold is the
// previous grade's lower bound and is not a learned reference value.
type RangeEntry struct {
	Threshold float64 `json:"threshold"`
	Range     Range   `json:"range"`
	Inherited bool    `json:"inherited,omitempty"`
}

type rangeEntryJSON struct {
	Threshold bound `json:"threshold"`
	Range     Range `json:"range"`
	Inherited bool  `json:"inherited,omitempty"`
}

// MarshalJSON keeps infinite thresholds representable.
func (e RangeEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeEntryJSON{bound(e.Threshold), e.Range, e.Inherited})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *RangeEntry) UnmarshalJSON(data []byte) error {
	var raw rangeEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Threshold = float64(raw.Threshold)
	e.Range = raw.Range
	e.Inherited = raw.Inherited
	return nil
}

// learned reports whether the entry holds a threshold derived from data.
// Infinite thresholds only arise as stand-ins.
func (e RangeEntry) learned() bool {
	return !e.Inherited && !math.IsInf(e.Threshold, 0) && !math.IsNaN(e.Threshold)
}

// Table is a trained table: grade -> metric -> entry.
type Table map[Grade]map[string]RangeEntry

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for g, metrics := range t {
		m := make(map[string]RangeEntry, len(metrics))
		for k, v := range metrics {
			m[k] = v
		}
		out[g] = m
	}
	return out
}

// Metrics returns every metric name present for any grade, sorted.
func (t Table) Metrics() []string {
	seen := make(map[string]bool)
	for _, metrics := range t {
		for k := range metrics {
			seen[k] = true
		}
	}
	return sortedKeys(seen)
}

// Thresholds strips the ranges, leaving the learned threshold per grade and
// metric. Inherited stand-ins are dropped.
func (t Table) Thresholds() AggregatedTable {
	out := make(AggregatedTable, len(t))
	for g, metrics := range t {
		m := make(map[string]float64, len(metrics))
		for k, e := range metrics {
			if e.learned() {
				m[k] = e.Threshold
			}
		}
		out[g] = m
	}
	return out
}

// Lookup returns the first grade, scanning A to E, whose range for metric
// covers v. ok is false if the metric has no entries at all or v is NaN.
func (t Table) Lookup(metric string, v float64) (g Grade, ok bool, err error) {
	if math.IsNaN(v) {
		return "", false, nil
	}
	present := false
	for _, grade := range Grades {
		e, has := t[grade][metric]
		if !has {
			continue
		}
		present = true
		if e.Range.Covers(v) {
			return grade, true, nil
		}
	}
	if !present {
		return "", false, nil
	}
	return "", true, &CorruptRangeError{Metric: metric, Value: v}
}

// Validate checks that, for every metric, the five ranges partition the
// real line with no gap and no overlap.
func (t Table) Validate() error {
	for _, metric := range t.Metrics() {
		var ranges []Range
		for _, g := range Grades {
			e, ok := t[g][metric]
			if !ok {
				return &CorruptRangeError{Metric: metric, Value: math.NaN(), Reason: fmt.Sprintf("grade %s has no entry", g)}
			}
			if !e.Range.Empty() {
				ranges = append(ranges, e.Range)
			}
		}
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lower < ranges[j].Lower })
		next := math.Inf(-1)
		for _, r := range ranges {
			if r.Lower != next {
				return &CorruptRangeError{Metric: metric, Value: next, Reason: fmt.Sprintf("range %s does not start at %s", r, formatBound(next))}
			}
			next = r.Upper
		}
		if !math.IsInf(next, 1) {
			return &CorruptRangeError{Metric: metric, Value: next, Reason: "ranges do not reach +Infinity"}
		}
	}
	return nil
}

// bound is a float64 whose JSON form allows the infinity sentinels.
type bound float64

func (b bound) MarshalJSON() ([]byte, error) {
	f := float64(b)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(f)
}

func (b *bound) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Infinity", "+Infinity":
			*b = bound(math.Inf(1))
		case "-Infinity":
			*b = bound(math.Inf(-1))
		default:
			return fmt.Errorf("invalid bound %q", s)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid bound %s: %w", data, err)
	}
	*b = bound(f)
	return nil
}

func formatBound(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%g", f)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// round2 rounds to two decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
