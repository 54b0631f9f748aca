package api

import (
	"net/http"

	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
)

// PlansHandler serves stored training plans.
type PlansHandler struct {
	plans PlanRepository
	log   logger.Logger
}

// NewPlansHandler creates a new plans handler.
func NewPlansHandler(plans PlanRepository, log logger.Logger) *PlansHandler {
	return &PlansHandler{plans: plans, log: log}
}

type planResponse struct {
	model.TrainingPlan
	Entries []model.PlanEntry `json:"entries"`
}

// HandleList handles GET /plans, newest first.
func (h *PlansHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.plans.List(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	if list == nil {
		list = []model.TrainingPlan{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /plans/{id}, returning the plan with its entries.
func (h *PlansHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	p, err := h.plans.Get(r.Context(), id)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	entries, err := h.plans.Entries(r.Context(), id)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	if entries == nil {
		entries = []model.PlanEntry{}
	}
	writeJSON(w, http.StatusOK, planResponse{TrainingPlan: p, Entries: entries})
}

// HandleDelete handles DELETE /plans/{id}.
func (h *PlansHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	if err := h.plans.Delete(r.Context(), id); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
