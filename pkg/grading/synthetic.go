package grading

import "sort"

// Bounds is the configured value span of a synthetic metric.
type Bounds struct {
	Max float64
	Min float64
}

// FillSynthetic assigns evenly spaced thresholds to synthetic metrics,
// spanning [Min, Max] from the worst grade to the best. Metrics without any
// aggregated value are left absent. Reversed metrics interpolate in the
// opposite direction.
func FillSynthetic(agg AggregatedTable, synthetic map[string]Bounds, reversed map[string]bool) AggregatedTable {
	out := agg.Clone()

	names := make([]string, 0, len(synthetic))
	for name := range synthetic {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !hasValue(agg, name) {
			continue
		}
		b := synthetic[name]
		hi, lo := b.Max, b.Min
		if reversed[name] {
			hi, lo = lo, hi
		}
		growth := round2((hi - lo) / float64(len(Grades)))
		for idx := 0; idx < len(Grades); idx++ {
			g := Grades[len(Grades)-1-idx]
			if out[g] == nil {
				out[g] = make(map[string]float64)
			}
			out[g][name] = round2(growth*float64(idx+1)) + lo
		}
	}
	return out
}

func hasValue(agg AggregatedTable, metric string) bool {
	for _, metrics := range agg {
		if _, ok := metrics[metric]; ok {
			return true
		}
	}
	return false
}
