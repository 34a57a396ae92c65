// Package training orchestrates a training run: resolve labels to project
// records, train, persist every section and publish the new classifier.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ossgrade/ossgrade/internal/store"
	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

// LabelSource yields the labeled training projects.
type LabelSource interface {
	Labels(ctx context.Context) (dataset.Labels, error)
}

// ProjectSource resolves labels to project records.
type ProjectSource interface {
	TrainingGroup(ctx context.Context, labels dataset.Labels) (grading.TrainingGroup, error)
}

// FileLabels reads labels from a YAML file on every call.
type FileLabels string

// Labels implements LabelSource.
func (f FileLabels) Labels(ctx context.Context) (dataset.Labels, error) {
	return dataset.LoadLabels(string(f))
}

// StaticLabels serves a fixed label set.
type StaticLabels dataset.Labels

// Labels implements LabelSource.
func (s StaticLabels) Labels(ctx context.Context) (dataset.Labels, error) {
	return dataset.Labels(s), nil
}

// Service runs training. Runs are serialized; grading continues against
// the previously published classifier while a run is in progress.
type Service struct {
	labels   LabelSource
	projects ProjectSource
	store    store.Store
	registry *grading.Registry
	opts     grading.TrainOptions
	logger   *slog.Logger

	mu sync.Mutex
}

// NewService creates a training Service.
func NewService(labels LabelSource, projects ProjectSource, st store.Store, registry *grading.Registry, opts grading.TrainOptions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		labels:   labels,
		projects: projects,
		store:    st,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
}

// Registry returns the registry this service publishes to.
func (s *Service) Registry() *grading.Registry { return s.registry }

// Run trains from the current labels, replaces the stored classifier and
// publishes it. Nothing is published if persisting fails.
func (s *Service) Run(ctx context.Context) (*grading.Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	labels, err := s.labels.Labels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	group, err := s.projects.TrainingGroup(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("build training group: %w", err)
	}

	c, err := grading.Train(group, s.opts)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if !c.Ready() {
		return nil, fmt.Errorf("train: some grade has no trained metrics: %w", grading.ErrUntrained)
	}

	if err := s.store.ReplaceAll(ctx, c); err != nil {
		return nil, fmt.Errorf("persist classifier: %w", err)
	}
	s.registry.Publish(c)

	s.logger.Info("classifier trained",
		"run_id", c.RunID.String(),
		"projects", len(labels.Names()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return c, nil
}

// Warm publishes the stored classifier if a complete, valid one exists and
// trains otherwise. trained reports which happened.
func (s *Service) Warm(ctx context.Context) (c *grading.Classifier, trained bool, err error) {
	ok, err := s.store.ExistsForAll(ctx, grading.SectionKeys())
	if err != nil {
		return nil, false, fmt.Errorf("check stored classifier: %w", err)
	}
	if ok {
		c, err = store.LoadClassifier(ctx, s.store, s.opts.Reversed)
		if err == nil {
			s.registry.Publish(c)
			s.logger.Info("classifier loaded", "run_id", c.RunID.String(), "trained_at", c.TrainedAt)
			return c, false, nil
		}
		var cre *grading.CorruptRangeError
		if !errors.As(err, &cre) {
			return nil, false, err
		}
		s.logger.Warn("stored classifier is stale, retraining", "error", err)
	}

	c, err = s.Run(ctx)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}
