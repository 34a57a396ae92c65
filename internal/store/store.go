// Package store persists trained classifier tables, one record per section
// key, on blob storage or Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// ErrNotFound is returned by Load when a section has not been persisted.
var ErrNotFound = errors.New("classifier section not found")

// Record is one persisted section table.
type Record struct {
	Key       grading.SectionKey `json:"section"`
	RunID     uuid.UUID          `json:"run_id"`
	TrainedAt time.Time          `json:"trained_at"`
	Reversed  []string           `json:"reversed"`
	Table     grading.Table      `json:"table"`
}

// Store persists classifier sections.
//
// ReplaceAll is the only way training writes: every existing section is
// cleared and the new run's sections written, so readers never mix runs.
// ExistsForAll reports true only when every key is present and all share
// one run ID.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, key grading.SectionKey) (Record, error)
	ExistsForAll(ctx context.Context, keys []grading.SectionKey) (bool, error)
	ReplaceAll(ctx context.Context, c *grading.Classifier) error
}

// Records splits a classifier into one record per section key.
func Records(c *grading.Classifier) []Record {
	keys := c.Keys()
	recs := make([]Record, 0, len(keys))
	for _, key := range keys {
		table, _ := c.Table(key)
		recs = append(recs, Record{
			Key:       key,
			RunID:     c.RunID,
			TrainedAt: c.TrainedAt.UTC(),
			Reversed:  c.Reversed(),
			Table:     table,
		})
	}
	return recs
}

// LoadClassifier restores the persisted classifier. reversed must be the
// reversed metric set currently configured; tables trained with another set
// fail validation.
func LoadClassifier(ctx context.Context, s Store, reversed []string) (*grading.Classifier, error) {
	keys := grading.SectionKeys()
	tables := make(map[grading.SectionKey]grading.Table, len(keys))

	var first Record
	for i, key := range keys {
		rec, err := s.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if i == 0 {
			first = rec
		} else if rec.RunID != first.RunID {
			return nil, fmt.Errorf("section %s belongs to run %s, %s belongs to run %s", key, rec.RunID, first.Key, first.RunID)
		}
		tables[key] = rec.Table
	}

	c, err := grading.Restore(first.RunID, first.TrainedAt, tables, reversed)
	if err != nil {
		return nil, fmt.Errorf("restore run %s: %w", first.RunID, err)
	}
	if !c.Ready() {
		return nil, fmt.Errorf("restore run %s: %w", first.RunID, grading.ErrUntrained)
	}
	return c, nil
}
