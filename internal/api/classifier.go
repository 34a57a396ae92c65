package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

type thresholdsResponse struct {
	RunID     string                                                      `json:"run_id"`
	TrainedAt time.Time                                                   `json:"trained_at"`
	Reversed  []string                                                    `json:"reversed"`
	Sections  map[grading.SectionKey]map[string]map[grading.Grade]float64 `json:"sections"`
}

func (h *Handler) handleThresholds(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Current()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	keys := c.Keys()
	if s := r.URL.Query().Get("section"); s != "" {
		key := grading.SectionKey(s)
		if _, ok := c.Table(key); !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown section %q", s))
			return
		}
		keys = []grading.SectionKey{key}
	}

	sections := make(map[grading.SectionKey]map[string]map[grading.Grade]float64, len(keys))
	for _, key := range keys {
		sections[key] = c.ReferenceValues(key)
	}
	writeJSON(w, http.StatusOK, thresholdsResponse{
		RunID:     c.RunID.String(),
		TrainedAt: c.TrainedAt,
		Reversed:  c.Reversed(),
		Sections:  sections,
	})
}

func (h *Handler) handleTrain(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		writeError(w, http.StatusNotImplemented, "training is not enabled")
		return
	}
	c, err := h.trainer.Run(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     c.RunID.String(),
		"trained_at": c.TrainedAt,
	})
}
