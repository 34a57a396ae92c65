package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ossgrade/ossgrade/internal/blob"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

const kindProjects = "projects"

// ErrProjectNotFound is returned when no record exists for a project.
var ErrProjectNotFound = errors.New("project not found")

// Repository stores project records in blob storage under projects/<name>.json.
type Repository struct {
	blobs blob.Store
}

// NewRepository creates a Repository on the given blob store.
func NewRepository(blobs blob.Store) *Repository {
	return &Repository{blobs: blobs}
}

// Put stores or replaces a project's record.
func (r *Repository) Put(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ProjectName, err)
	}
	if err := r.blobs.Put(ctx, kindProjects, url.PathEscape(rec.ProjectName), data); err != nil {
		return fmt.Errorf("store record %s: %w", rec.ProjectName, err)
	}
	return nil
}

// Get loads a project's record.
func (r *Repository) Get(ctx context.Context, name string) (*Record, error) {
	data, err := r.blobs.Get(ctx, kindProjects, url.PathEscape(name))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", name, err)
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", name, err)
	}
	return rec, nil
}

// Names lists every stored project.
func (r *Repository) Names(ctx context.Context) ([]string, error) {
	ids, err := r.blobs.List(ctx, kindProjects)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, err := url.PathUnescape(id)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// TrainingGroup resolves labels to stored records. Every labeled project
// must have a record.
func (r *Repository) TrainingGroup(ctx context.Context, labels Labels) (grading.TrainingGroup, error) {
	if err := labels.Validate(); err != nil {
		return nil, err
	}

	group := make(grading.TrainingGroup, len(labels))
	var missing []string
	for _, g := range grading.Grades {
		for _, name := range labels[g] {
			rec, err := r.Get(ctx, name)
			if errors.Is(err, ErrProjectNotFound) {
				missing = append(missing, name)
				continue
			}
			if err != nil {
				return nil, err
			}
			group[g] = append(group[g], rec)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("labeled projects without records: %s: %w", strings.Join(missing, ", "), ErrProjectNotFound)
	}
	return group, nil
}
