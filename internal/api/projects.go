package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

const maxRecordBytes = 4 << 20

type gradeResponse struct {
	Project  string                              `json:"project"`
	RunID    string                              `json:"run_id"`
	Lookback int                                 `json:"lookback"`
	Grades   map[grading.CheckKind]grading.Grade `json:"grades"`
}

type checkResult struct {
	Grade grading.Grade             `json:"grade"`
	Gain  float64                   `json:"gain"`
	Gains map[grading.Grade]float64 `json:"gains"`
}

type checkResponse struct {
	Project  string                            `json:"project"`
	RunID    string                            `json:"run_id"`
	Lookback int                               `json:"lookback"`
	Checks   map[grading.CheckKind]checkResult `json:"checks"`
}

func (h *Handler) loadProject(ctx context.Context, name string) (*dataset.Record, error) {
	if rec := h.cache.Get(name); rec != nil {
		return rec, nil
	}
	rec, err := h.projects.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	h.cache.Put(name, rec)
	return rec, nil
}

func parseLookback(r *http.Request) (int, error) {
	v := r.URL.Query().Get("lookback")
	if v == "" {
		return grading.DefaultLookback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, &grading.ConfigError{Field: "lookback", Msg: fmt.Sprintf("must be a positive integer, got %q", v)}
	}
	return n, nil
}

// prepare resolves everything a grading request needs.
func (h *Handler) prepare(r *http.Request) (*grading.Checker, *dataset.Record, int, error) {
	lookback, err := parseLookback(r)
	if err != nil {
		return nil, nil, 0, err
	}
	c, err := h.registry.Current()
	if err != nil {
		return nil, nil, 0, err
	}
	ch, err := grading.NewChecker(c, h.checks)
	if err != nil {
		return nil, nil, 0, err
	}
	rec, err := h.loadProject(r.Context(), r.PathValue("name"))
	if err != nil {
		return nil, nil, 0, err
	}
	return ch, rec, lookback, nil
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	ch, rec, lookback, err := h.prepare(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	grades, err := ch.Grade(rec, lookback)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gradeResponse{
		Project:  rec.Name(),
		RunID:    ch.Classifier().RunID.String(),
		Lookback: lookback,
		Grades:   grades,
	})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ch, rec, lookback, err := h.prepare(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	gains, err := ch.Check(rec, lookback)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	checks := make(map[grading.CheckKind]checkResult, len(gains))
	for kind, g := range gains {
		grade := g.Grade()
		checks[kind] = checkResult{Grade: grade, Gain: g[grade], Gains: g}
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Project:  rec.Name(),
		RunID:    ch.Classifier().RunID.String(),
		Lookback: lookback,
		Checks:   checks,
	})
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	names, err := h.projects.Names(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) handlePutProject(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var rec dataset.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBytes)).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record: "+err.Error())
		return
	}
	if rec.ProjectName == "" {
		rec.ProjectName = name
	}
	if rec.ProjectName != name {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("record names %q, path names %q", rec.ProjectName, name))
		return
	}

	if err := h.projects.Put(r.Context(), &rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.cache.Invalidate(name)
	writeJSON(w, http.StatusOK, map[string]string{"project": name})
}
