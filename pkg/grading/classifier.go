package grading

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Classifier is the trained artifact: one table per section key. It is never
// mutated after construction; retraining publishes a new Classifier.
type Classifier struct {
	RunID     uuid.UUID
	TrainedAt time.Time

	reversed map[string]bool
	tables   map[SectionKey]Table
}

// NewClassifier wraps trained tables. The tables are copied.
func NewClassifier(runID uuid.UUID, trainedAt time.Time, tables map[SectionKey]Table, reversed []string) *Classifier {
	c := &Classifier{
		RunID:     runID,
		TrainedAt: trainedAt,
		reversed:  toSet(reversed),
		tables:    make(map[SectionKey]Table, len(tables)),
	}
	for k, t := range tables {
		c.tables[k] = t.Clone()
	}
	return c
}

// Restore builds a Classifier from persisted tables. Ranges are recomputed
// from the stored thresholds; a stored range that disagrees with the
// recomputed one means the table was trained with a different reversed set
// or was altered, and is reported as corrupt.
func Restore(runID uuid.UUID, trainedAt time.Time, tables map[SectionKey]Table, reversed []string) (*Classifier, error) {
	set := toSet(reversed)
	rebuilt := make(map[SectionKey]Table, len(tables))
	for k, t := range tables {
		r := Rebuild(t, set)
		err := r.Validate()
		if err == nil {
			err = sameRanges(t, r)
		}
		if err != nil {
			var cre *CorruptRangeError
			if errors.As(err, &cre) {
				cre.Section = k
			}
			return nil, err
		}
		rebuilt[k] = r
	}
	return NewClassifier(runID, trainedAt, rebuilt, reversed), nil
}

func sameRanges(stored, rebuilt Table) error {
	for _, g := range Grades {
		for metric, e := range stored[g] {
			if rebuilt[g][metric].Range != e.Range {
				return &CorruptRangeError{
					Metric: metric,
					Value:  math.NaN(),
					Reason: fmt.Sprintf("stored range %s for grade %s does not match thresholds (%s)", e.Range, g, rebuilt[g][metric].Range),
				}
			}
		}
	}
	return nil
}

// Ready reports whether every section key has a table with entries for
// every grade.
func (c *Classifier) Ready() bool {
	if c == nil {
		return false
	}
	for _, key := range SectionKeys() {
		t, ok := c.tables[key]
		if !ok {
			return false
		}
		for _, g := range Grades {
			if len(t[g]) == 0 {
				return false
			}
		}
	}
	return true
}

// Table returns a copy of the table for key.
func (c *Classifier) Table(key SectionKey) (Table, bool) {
	t, ok := c.tables[key]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Keys returns the section keys held, sorted.
func (c *Classifier) Keys() []SectionKey {
	keys := make([]SectionKey, 0, len(c.tables))
	for k := range c.tables {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Reversed returns the reversed metric names, sorted.
func (c *Classifier) Reversed() []string {
	return sortedKeys(c.reversed)
}

// ReferenceValues returns metric -> grade -> threshold for one section key.
// Grades that learned no value for a metric are left out.
func (c *Classifier) ReferenceValues(key SectionKey) map[string]map[Grade]float64 {
	t := c.tables[key]
	out := make(map[string]map[Grade]float64)
	for _, g := range Grades {
		for metric, e := range t[g] {
			if !e.learned() {
				continue
			}
			if out[metric] == nil {
				out[metric] = make(map[Grade]float64, len(Grades))
			}
			out[metric][g] = e.Threshold
		}
	}
	return out
}

// lookup finds the grade covering v for metric in the table for key.
func (c *Classifier) lookup(key SectionKey, metric string, v float64) (Grade, bool, error) {
	t, ok := c.tables[key]
	if !ok {
		return "", false, nil
	}
	g, found, err := t.Lookup(metric, v)
	if err != nil {
		var cre *CorruptRangeError
		if errors.As(err, &cre) {
			cre.Section = key
		}
		return "", true, err
	}
	return g, found, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
