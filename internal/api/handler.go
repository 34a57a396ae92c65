// Package api implements the ossgrade REST API.
// It grades stored projects against the published classifier and exposes
// retraining and the labeled project catalog.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ossgrade/ossgrade/internal/catalog"
	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

// ProjectStore reads and writes project records.
type ProjectStore interface {
	Get(ctx context.Context, name string) (*dataset.Record, error)
	Put(ctx context.Context, rec *dataset.Record) error
	Names(ctx context.Context) ([]string, error)
}

// Trainer runs a training pass and publishes its result.
type Trainer interface {
	Run(ctx context.Context) (*grading.Classifier, error)
}

// LabelCatalog manages labeled training projects.
type LabelCatalog interface {
	UpsertLabel(ctx context.Context, name string, grade grading.Grade) (*catalog.Label, error)
	RemoveLabel(ctx context.Context, name string) error
	List(ctx context.Context) ([]catalog.Label, error)
}

// Handler is the top-level API handler for the grading service.
type Handler struct {
	registry *grading.Registry
	checks   map[grading.CheckKind]grading.CheckSpec
	projects ProjectStore
	trainer  Trainer
	labels   LabelCatalog
	cache    *ProjectCache
	logger   *slog.Logger
}

// Options carries the optional collaborators of a Handler.
type Options struct {
	// Trainer enables POST /api/v1/train.
	Trainer Trainer
	// Labels enables the /api/v1/labels endpoints.
	Labels LabelCatalog
	Cache  *ProjectCache
	Logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(registry *grading.Registry, checks map[grading.CheckKind]grading.CheckSpec, projects ProjectStore, opts Options) *Handler {
	if opts.Cache == nil {
		opts.Cache = NewProjectCache(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		checks:   checks,
		projects: projects,
		trainer:  opts.Trainer,
		labels:   opts.Labels,
		cache:    opts.Cache,
		logger:   opts.Logger,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)

	// Projects
	mux.HandleFunc("GET /api/v1/projects", h.handleListProjects)
	mux.HandleFunc("PUT /api/v1/projects/{name}", h.handlePutProject)
	mux.HandleFunc("GET /api/v1/projects/{name}/grade", h.handleGrade)
	mux.HandleFunc("GET /api/v1/projects/{name}/check", h.handleCheck)

	// Classifier
	mux.HandleFunc("GET /api/v1/thresholds", h.handleThresholds)
	mux.HandleFunc("POST /api/v1/train", h.handleTrain)

	// Labels
	mux.HandleFunc("GET /api/v1/labels", h.handleListLabels)
	mux.HandleFunc("PUT /api/v1/labels/{name}", h.handlePutLabel)
	mux.HandleFunc("DELETE /api/v1/labels/{name}", h.handleDeleteLabel)
}

// writeJSON encodes before writing the header so an unencodable body
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("encoding response: %v", err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps grading and storage errors to HTTP status codes.
func statusFor(err error) int {
	var cfgErr *grading.ConfigError
	var cre *grading.CorruptRangeError
	switch {
	case errors.Is(err, grading.ErrUntrained):
		return http.StatusServiceUnavailable
	case errors.Is(err, dataset.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr), errors.Is(err, grading.ErrEmptyTrainingGroup):
		return http.StatusBadRequest
	case errors.As(err, &cre):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "trained": false}
	if c, err := h.registry.Current(); err == nil {
		resp["trained"] = true
		resp["run_id"] = c.RunID.String()
		resp["trained_at"] = c.TrainedAt
	}
	writeJSON(w, http.StatusOK, resp)
}
