// Package dataset holds project metric records and training labels.
package dataset

import (
	"github.com/ossgrade/ossgrade/pkg/grading"
)

// Record is the stored metric history of one project.
type Record struct {
	ProjectName string      `json:"name"`
	Agility     SectionData `json:"agility"`
	Community   SectionData `json:"community"`
}

// SectionData holds the whole-history snapshot and the yearly snapshots,
// newest first.
type SectionData struct {
	Total    grading.MetricSnapshot   `json:"total,omitempty"`
	LastYear []grading.MetricSnapshot `json:"last_year,omitempty"`
}

// Name implements grading.Project.
func (r *Record) Name() string { return r.ProjectName }

// Metrics implements grading.Project. Lookback selects the Nth most recent
// year; years beyond the recorded history yield nil.
func (r *Record) Metrics(s grading.Section, p grading.Period, lookback int) grading.MetricSnapshot {
	var data SectionData
	switch s {
	case grading.SectionAgility:
		data = r.Agility
	case grading.SectionCommunity:
		data = r.Community
	default:
		return nil
	}

	switch p {
	case grading.PeriodTotal:
		return data.Total.Clone()
	case grading.PeriodLastYear:
		if lookback < 1 {
			lookback = 1
		}
		if lookback > len(data.LastYear) {
			return nil
		}
		return data.LastYear[lookback-1].Clone()
	}
	return nil
}

// Years is the number of yearly snapshots recorded for the section.
func (r *Record) Years(s grading.Section) int {
	switch s {
	case grading.SectionAgility:
		return len(r.Agility.LastYear)
	case grading.SectionCommunity:
		return len(r.Community.LastYear)
	}
	return 0
}
