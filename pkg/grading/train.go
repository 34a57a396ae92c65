package grading

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLookback selects the most recently completed year.
const DefaultLookback = 1

// TrainOptions configures a training run.
type TrainOptions struct {
	// Reversed lists metrics where a smaller value is better.
	Reversed []string
	// Synthetic maps derived metrics to the span their thresholds cover.
	Synthetic map[string]Bounds
	// Lookback is passed to Project.Metrics for last_year snapshots.
	Lookback int
	// Now stamps the run; time.Now when nil.
	Now func() time.Time
}

// Train learns a Classifier from a labeled group. Every section key is
// computed independently by the same sequence of pure passes.
func Train(group TrainingGroup, opts TrainOptions) (*Classifier, error) {
	total := 0
	for g, projects := range group {
		if g.Index() < 0 {
			return nil, &ConfigError{Field: "training group", Msg: fmt.Sprintf("unknown grade %q", g)}
		}
		total += len(projects)
	}
	if total == 0 {
		return nil, ErrEmptyTrainingGroup
	}

	lookback := opts.Lookback
	if lookback < 1 {
		lookback = DefaultLookback
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	tables := make(map[SectionKey]Table, len(Sections)*len(Periods))
	for _, s := range Sections {
		for _, p := range Periods {
			raw := Collect(group, s, p, lookback)
			tables[KeyFor(s, p)] = TrainTable(raw, opts.Reversed, opts.Synthetic)
		}
	}

	return NewClassifier(uuid.New(), now().UTC(), tables, opts.Reversed), nil
}

// TrainTable runs aggregation, synthetic filling, range building and the
// reversal pass over one raw table.
func TrainTable(raw RawTable, reversed []string, synthetic map[string]Bounds) Table {
	set := toSet(reversed)
	agg := Aggregate(raw)
	agg = FillSynthetic(agg, synthetic, set)
	return Reverse(BuildRanges(agg, set), set)
}
