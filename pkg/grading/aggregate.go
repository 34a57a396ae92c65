package grading

import (
	"math"
	"sort"
)

// Collect gathers raw samples for one section and period from every project
// in the group.
func Collect(group TrainingGroup, section Section, period Period, lookback int) RawTable {
	raw := make(RawTable, len(Grades))
	for _, g := range Grades {
		projects := group[g]
		if len(projects) == 0 {
			continue
		}
		samples := make(map[string][]float64)
		for _, p := range projects {
			snap := p.Metrics(section, period, lookback)
			for _, name := range snap.Names() {
				if math.IsNaN(snap[name]) {
					continue
				}
				samples[name] = append(samples[name], snap[name])
			}
		}
		if len(samples) > 0 {
			raw[g] = samples
		}
	}
	return raw
}

// Aggregate collapses each grade's samples into one representative value per
// metric. A grade's samples are pooled with those of the next worse grade;
// when the pool holds two values or fewer, the best own value is used instead
// of the mean.
func Aggregate(raw RawTable) AggregatedTable {
	out := make(AggregatedTable, len(raw))
	for i, g := range Grades {
		own := raw[g]
		if len(own) == 0 {
			continue
		}
		var sibling map[string][]float64
		if i+1 < len(Grades) {
			sibling = raw[Grades[i+1]]
		}

		names := make([]string, 0, len(own))
		for name := range own {
			names = append(names, name)
		}
		sort.Strings(names)

		values := make(map[string]float64, len(own))
		for _, name := range names {
			values[name] = representative(own[name], sibling[name])
		}
		out[g] = values
	}
	return out
}

func representative(own, sibling []float64) float64 {
	if len(own)+len(sibling) <= 2 {
		if len(own) == 0 {
			return 0
		}
		best := own[0]
		for _, v := range own[1:] {
			if v > best {
				best = v
			}
		}
		return best
	}
	// sibling first, then own: summation order is part of the result
	sum := 0.0
	for _, v := range sibling {
		sum += v
	}
	for _, v := range own {
		sum += v
	}
	return round2(sum / float64(len(own)+len(sibling)))
}
