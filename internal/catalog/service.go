// Package catalog manages the labeled training projects: which project
// exemplifies which grade.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

// Service provides labeled project management backed by Postgres.
type Service struct {
	db *sql.DB
}

// Label assigns a grade to a training project.
type Label struct {
	Name      string
	Grade     grading.Grade
	UpdatedAt time.Time
}

// NewService creates a new catalog Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// UpsertLabel creates or relabels a project.
func (s *Service) UpsertLabel(ctx context.Context, name string, grade grading.Grade) (*Label, error) {
	if name == "" {
		return nil, &grading.ConfigError{Field: "name", Msg: "project name is required"}
	}
	if _, err := grading.ParseGrade(string(grade)); err != nil {
		return nil, err
	}

	l := &Label{}
	var g string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO labeled_projects (name, grade)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE
		   SET grade = EXCLUDED.grade,
		       updated_at = now()
		 RETURNING name, grade, updated_at`,
		name, string(grade),
	).Scan(&l.Name, &g, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert label %s: %w", name, err)
	}
	l.Grade = grading.Grade(g)
	return l, nil
}

// RemoveLabel drops a project from the training set. Removing an unknown
// project is not an error.
func (s *Service) RemoveLabel(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM labeled_projects WHERE name = $1`, name); err != nil {
		return fmt.Errorf("remove label %s: %w", name, err)
	}
	return nil
}

// List returns every label ordered by grade, then name.
func (s *Service) List(ctx context.Context) ([]Label, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, grade, updated_at FROM labeled_projects ORDER BY grade, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var l Label
		var g string
		if err := rows.Scan(&l.Name, &g, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		l.Grade = grading.Grade(g)
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// Labels groups the catalog by grade for training.
func (s *Service) Labels(ctx context.Context) (dataset.Labels, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Group(list), nil
}

// Group converts a label list into per-grade name lists, keeping order.
func Group(list []Label) dataset.Labels {
	labels := make(dataset.Labels)
	for _, l := range list {
		labels[l.Grade] = append(labels[l.Grade], l.Name)
	}
	return labels
}
