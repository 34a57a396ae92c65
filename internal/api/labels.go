package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

type labelResponse struct {
	Name      string        `json:"name"`
	Grade     grading.Grade `json:"grade"`
	UpdatedAt string        `json:"updated_at"`
}

type labelRequest struct {
	Grade string `json:"grade"`
}

func (h *Handler) labelsEnabled(w http.ResponseWriter) bool {
	if h.labels == nil {
		writeError(w, http.StatusNotImplemented, "label catalog requires a database")
		return false
	}
	return true
}

func (h *Handler) handleListLabels(w http.ResponseWriter, r *http.Request) {
	if !h.labelsEnabled(w) {
		return
	}
	list, err := h.labels.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result := make([]labelResponse, 0, len(list))
	for _, l := range list {
		result = append(result, labelResponse{
			Name:      l.Name,
			Grade:     l.Grade,
			UpdatedAt: l.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePutLabel(w http.ResponseWriter, r *http.Request) {
	if !h.labelsEnabled(w) {
		return
	}
	var req labelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	grade, err := grading.ParseGrade(req.Grade)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.labels.UpsertLabel(r.Context(), r.PathValue("name"), grade)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, labelResponse{
		Name:      l.Name,
		Grade:     l.Grade,
		UpdatedAt: l.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	if !h.labelsEnabled(w) {
		return
	}
	if err := h.labels.RemoveLabel(r.Context(), r.PathValue("name")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
