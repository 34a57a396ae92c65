package grading

import "math"

// BuildRanges turns one threshold per grade into half-open ranges.
//
// Grades are walked from best to worst. The first grade is unbounded above,
// every later grade ends where the previous one starts, and the last grade is
// unbounded below. A threshold at or above the previous grade's lower bound
// yields an empty range, which is what scanning [threshold, +Inf) ranges from
// best to worst and taking the first match would do.
//
// Reversed metrics are walked over the mirrored grades so that the entry
// built for slot A carries the worst grade's threshold; Reverse moves the
// entries back afterwards.
func BuildRanges(agg AggregatedTable, reversed map[string]bool) Table {
	out := make(Table, len(Grades))
	for _, g := range Grades {
		out[g] = make(map[string]RangeEntry)
	}

	for _, metric := range agg.Metrics() {
		upper := math.Inf(1)
		for i, slot := range Grades {
			source := slot
			if reversed[metric] {
				source = slot.Mirror()
			}

			threshold, learned := agg[source][metric]
			if !learned {
				threshold = upper
			}

			lower := threshold
			if i == len(Grades)-1 {
				lower = math.Inf(-1)
			} else if lower > upper {
				lower = upper
			}

			out[slot][metric] = RangeEntry{
				Threshold: threshold,
				Range:     Range{Lower: lower, Upper: upper},
				Inherited: !learned,
			}
			upper = lower
		}
	}
	return out
}

// Reverse swaps entries between mirrored grades (A<->E, B<->D) for every
// reversed metric. C is its own mirror.
func Reverse(t Table, reversed map[string]bool) Table {
	out := t.Clone()
	if len(reversed) == 0 {
		return out
	}
	for _, g := range Grades {
		if out[g] == nil {
			out[g] = make(map[string]RangeEntry)
		}
	}
	for _, metric := range t.Metrics() {
		if !reversed[metric] {
			continue
		}
		for _, g := range Grades[:len(Grades)/2] {
			m := g.Mirror()
			a, okA := t[g][metric]
			b, okB := t[m][metric]
			if okA {
				out[m][metric] = a
			} else {
				delete(out[m], metric)
			}
			if okB {
				out[g][metric] = b
			} else {
				delete(out[g], metric)
			}
		}
	}
	return out
}

// Rebuild recomputes ranges from a table's thresholds. It is used when a
// table is restored from storage.
func Rebuild(t Table, reversed map[string]bool) Table {
	return Reverse(BuildRanges(t.Thresholds(), reversed), reversed)
}
