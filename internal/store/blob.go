package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ossgrade/ossgrade/internal/blob"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

const (
	kindClassifiers = "classifiers"
	kindRuns        = "classifier_runs"
	currentID       = "current"
)

// pointer names the run readers see.
type pointer struct {
	RunID uuid.UUID `json:"run_id"`
}

// BlobStore keeps each section of a run as classifier_runs/<run>.<key>.json
// and the run readers see in classifiers/current.json. A run becomes visible
// only when the pointer is swapped, so an interrupted ReplaceAll leaves the
// previous run untouched.
type BlobStore struct {
	blobs blob.Store
}

// NewBlobStore creates a BlobStore.
func NewBlobStore(blobs blob.Store) *BlobStore {
	return &BlobStore{blobs: blobs}
}

func sectionID(run uuid.UUID, key grading.SectionKey) string {
	return run.String() + "." + string(key)
}

func (s *BlobStore) current(ctx context.Context) (uuid.UUID, error) {
	data, err := s.blobs.Get(ctx, kindClassifiers, currentID)
	if errors.Is(err, blob.ErrNotFound) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("read current run: %w", err)
	}
	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal current run: %w", err)
	}
	return p.RunID, nil
}

func (s *BlobStore) setCurrent(ctx context.Context, run uuid.UUID) error {
	data, err := json.Marshal(pointer{RunID: run})
	if err != nil {
		return fmt.Errorf("marshal current run: %w", err)
	}
	if err := s.blobs.Put(ctx, kindClassifiers, currentID, data); err != nil {
		return fmt.Errorf("publish run %s: %w", run, err)
	}
	return nil
}

func (s *BlobStore) put(ctx context.Context, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.Key, err)
	}
	if err := s.blobs.Put(ctx, kindRuns, sectionID(rec.RunID, rec.Key), data); err != nil {
		return fmt.Errorf("save %s: %w", rec.Key, err)
	}
	return nil
}

// Save writes one section and makes its run the current one. Sections of
// that run not yet written read as missing.
func (s *BlobStore) Save(ctx context.Context, rec Record) error {
	if err := s.put(ctx, rec); err != nil {
		return err
	}
	return s.setCurrent(ctx, rec.RunID)
}

// Load reads a section of the current run.
func (s *BlobStore) Load(ctx context.Context, key grading.SectionKey) (Record, error) {
	run, err := s.current(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", key, err)
	}
	data, err := s.blobs.Get(ctx, kindRuns, sectionID(run, key))
	if errors.Is(err, blob.ErrNotFound) {
		return Record{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", key, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	if rec.Key != key || rec.RunID != run {
		return Record{}, fmt.Errorf("blob %s holds section %q of run %s", sectionID(run, key), rec.Key, rec.RunID)
	}
	return rec, nil
}

func (s *BlobStore) ExistsForAll(ctx context.Context, keys []grading.SectionKey) (bool, error) {
	for _, key := range keys {
		_, err := s.Load(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return len(keys) > 0, nil
}

// ReplaceAll writes every section of the new run, then swaps the current
// pointer, then removes sections of older runs. Until the swap readers see
// the previous run in full.
func (s *BlobStore) ReplaceAll(ctx context.Context, c *grading.Classifier) error {
	for _, rec := range Records(c) {
		if err := s.put(ctx, rec); err != nil {
			return err
		}
	}
	if err := s.setCurrent(ctx, c.RunID); err != nil {
		return err
	}
	return s.prune(ctx, c.RunID)
}

// prune deletes the sections of every run but keep.
func (s *BlobStore) prune(ctx context.Context, keep uuid.UUID) error {
	ids, err := s.blobs.List(ctx, kindRuns)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	prefix := keep.String() + "."
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			continue
		}
		if err := s.blobs.Delete(ctx, kindRuns, id); err != nil {
			return fmt.Errorf("prune %s: %w", id, err)
		}
	}
	return nil
}
