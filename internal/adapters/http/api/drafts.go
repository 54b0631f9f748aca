package api

import (
	"net/http"

	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
)

// DraftsHandler drives plan editors over HTTP. Every mutation responds with
// the draft's full state.
type DraftsHandler struct {
	drafts DraftRegistry
	log    logger.Logger
}

// NewDraftsHandler creates a new drafts handler.
func NewDraftsHandler(drafts DraftRegistry, log logger.Logger) *DraftsHandler {
	return &DraftsHandler{drafts: drafts, log: log}
}

type openDraftRequest struct {
	PlanID *int64 `json:"plan_id"`
}

type renameRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type addExerciseRequest struct {
	ExerciseID *int64 `json:"exercise_id"`
	Name       string `json:"name"`
}

type addColumnRequest struct {
	PlayerIDs []string `json:"player_ids"`
}

type cellRequest struct {
	Column     int    `json:"column"`
	ExerciseID int64  `json:"exercise_id"`
	Sets       string `json:"sets"`
	Reps       string `json:"reps"`
	Weight     string `json:"weight"`
}

func (h *DraftsHandler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, status, v)
}

// HandleOpen handles POST /drafts. An empty body or a null plan_id opens a new plan.
func (h *DraftsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req openDraftRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	v, err := h.drafts.Open(r.Context(), req.PlanID)
	if err == nil {
		w.Header().Set("Location", "/drafts/"+v.ID)
	}
	h.respond(w, r, http.StatusCreated, v, err)
}

// HandleGet handles GET /drafts/{id}.
func (h *DraftsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.drafts.Get(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleDiscard handles DELETE /drafts/{id}.
func (h *DraftsHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Discard(r.PathValue("id")); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRename handles PUT /drafts/{id}/name.
func (h *DraftsHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	v, err := h.drafts.Rename(r.PathValue("id"), req.Name, req.Description)
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleAddExercise handles POST /drafts/{id}/exercises. A body carrying
// exercise_id adds a library exercise; one carrying name creates it first.
func (h *DraftsHandler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req addExerciseRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	id := r.PathValue("id")
	if req.ExerciseID != nil {
		v, err := h.drafts.AddExercise(id, *req.ExerciseID)
		h.respond(w, r, http.StatusOK, v, err)
		return
	}
	v, err := h.drafts.AddNewExercise(r.Context(), id, req.Name)
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleRemoveExercise handles DELETE /drafts/{id}/exercises/{exerciseID}.
func (h *DraftsHandler) HandleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	exID, err := pathInt64(r, "exerciseID")
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	v, err := h.drafts.RemoveExercise(r.PathValue("id"), exID)
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleAddColumn handles POST /drafts/{id}/columns.
func (h *DraftsHandler) HandleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req addColumnRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	v, err := h.drafts.AddColumn(r.PathValue("id"), req.PlayerIDs)
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleRemoveColumn handles DELETE /drafts/{id}/columns/{index}.
func (h *DraftsHandler) HandleRemoveColumn(w http.ResponseWriter, r *http.Request) {
	idx, err := pathInt(r, "index")
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	v, err := h.drafts.RemoveColumn(r.PathValue("id"), idx)
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleUpdateCell handles PUT /drafts/{id}/cells.
func (h *DraftsHandler) HandleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	cell := model.Cell{Sets: req.Sets, Reps: req.Reps, Weight: req.Weight}
	v, err := h.drafts.UpdateCell(r.PathValue("id"), req.Column, req.ExerciseID, cell)
	h.respond(w, r, http.StatusOK, v, err)
}

// HandleSave handles POST /drafts/{id}/save.
func (h *DraftsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	v, err := h.drafts.Save(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, v, err)
}
