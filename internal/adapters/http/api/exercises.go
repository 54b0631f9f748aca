package api

import (
	"net/http"

	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
)

// ExercisesHandler serves the exercise library.
type ExercisesHandler struct {
	exercises ExerciseRepository
	log       logger.Logger
}

// NewExercisesHandler creates a new exercises handler.
func NewExercisesHandler(exercises ExerciseRepository, log logger.Logger) *ExercisesHandler {
	return &ExercisesHandler{exercises: exercises, log: log}
}

type exerciseRequest struct {
	Name string `json:"name"`
}

// HandleList handles GET /exercises.
func (h *ExercisesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.exercises.List(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	if list == nil {
		list = []model.Exercise{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /exercises. Adding an existing name returns the
// stored exercise.
func (h *ExercisesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	ex, err := h.exercises.Add(r.Context(), req.Name)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}
