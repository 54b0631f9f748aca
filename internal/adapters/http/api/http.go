// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/coach/internal/adapters/avatar"
	repository "github.com/okian/coach/internal/adapters/repository"
	service "github.com/okian/coach/internal/app"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/internal/domain/planeditor"
	"github.com/okian/coach/internal/domain/types"
	"github.com/okian/coach/pkg/logger"
)

const maxBodyBytes = 1 << 20

// PlayerRepository is the roster surface used by handlers.
type PlayerRepository interface {
	List(ctx context.Context) ([]model.Player, error)
	Get(ctx context.Context, id string) (model.Player, error)
	Add(ctx context.Context, form model.PlayerForm) (model.Player, error)
	Update(ctx context.Context, id string, form model.PlayerForm) (model.Player, error)
	Delete(ctx context.Context, id string) error
	SetAvatar(ctx context.Context, id string, r io.Reader, contentType string) (model.Player, error)
	Avatar(ctx context.Context, id string) (avatar.Info, io.ReadCloser, error)
	Watch(ctx context.Context) ([]model.Player, <-chan types.Change, error)
}

// ExerciseRepository is the exercise library surface used by handlers.
type ExerciseRepository interface {
	List(ctx context.Context) ([]model.Exercise, error)
	Add(ctx context.Context, name string) (model.Exercise, error)
	Watch(ctx context.Context) ([]model.Exercise, <-chan types.Change, error)
}

// PlanRepository is the training plan surface used by handlers.
type PlanRepository interface {
	List(ctx context.Context) ([]model.TrainingPlan, error)
	Get(ctx context.Context, id int64) (model.TrainingPlan, error)
	Entries(ctx context.Context, planID int64) ([]model.PlanEntry, error)
	Delete(ctx context.Context, id int64) error
	Watch(ctx context.Context) ([]model.TrainingPlan, <-chan types.Change, error)
}

// DraftRegistry addresses plan editors by draft id.
type DraftRegistry interface {
	Open(ctx context.Context, planID *int64) (service.DraftView, error)
	Get(id string) (service.DraftView, error)
	Discard(id string) error
	Rename(id, name string, desc *string) (service.DraftView, error)
	AddExercise(id string, exerciseID int64) (service.DraftView, error)
	AddNewExercise(ctx context.Context, id, name string) (service.DraftView, error)
	RemoveExercise(id string, exerciseID int64) (service.DraftView, error)
	AddColumn(id string, playerIDs []string) (service.DraftView, error)
	RemoveColumn(id string, index int) (service.DraftView, error)
	UpdateCell(id string, column int, exerciseID int64, cell model.Cell) (service.DraftView, error)
	Save(ctx context.Context, id string) (service.DraftView, error)
}

// Dependencies required by HTTP handlers. Using interfaces keeps the
// handler layer loosely coupled to implementations in other packages.
type Dependencies struct {
	Players   PlayerRepository
	Exercises ExerciseRepository
	Plans     PlanRepository
	Drafts    DraftRegistry
	Stats     StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	playersHandler   *PlayersHandler
	exercisesHandler *ExercisesHandler
	plansHandler     *PlansHandler
	draftsHandler    *DraftsHandler
	watchHandler     *WatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps.Stats),
		playersHandler:   NewPlayersHandler(deps.Players, log),
		exercisesHandler: NewExercisesHandler(deps.Exercises, log),
		plansHandler:     NewPlansHandler(deps.Plans, log),
		draftsHandler:    NewDraftsHandler(deps.Drafts, log),
		watchHandler:     NewWatchHandler(deps.Players, deps.Exercises, deps.Plans, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	handle("GET /metrics", "metrics", s.healthHandler.HandleMetrics)
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	handle("GET /players", "players", s.playersHandler.HandleList)
	handle("POST /players", "players", s.playersHandler.HandleCreate)
	handle("GET /players/{id}", "player", s.playersHandler.HandleGet)
	handle("PUT /players/{id}", "player", s.playersHandler.HandleUpdate)
	handle("DELETE /players/{id}", "player", s.playersHandler.HandleDelete)
	handle("PUT /players/{id}/avatar", "avatar", s.playersHandler.HandlePutAvatar)
	handle("GET /players/{id}/avatar", "avatar", s.playersHandler.HandleGetAvatar)

	handle("GET /exercises", "exercises", s.exercisesHandler.HandleList)
	handle("POST /exercises", "exercises", s.exercisesHandler.HandleCreate)

	handle("GET /plans", "plans", s.plansHandler.HandleList)
	handle("GET /plans/{id}", "plan", s.plansHandler.HandleGet)
	handle("DELETE /plans/{id}", "plan", s.plansHandler.HandleDelete)

	handle("GET /watch/{topic}", "watch", s.watchHandler.HandleWatch)

	handle("POST /drafts", "drafts", s.draftsHandler.HandleOpen)
	handle("GET /drafts/{id}", "draft", s.draftsHandler.HandleGet)
	handle("DELETE /drafts/{id}", "draft", s.draftsHandler.HandleDiscard)
	handle("PUT /drafts/{id}/name", "draft_name", s.draftsHandler.HandleRename)
	handle("POST /drafts/{id}/exercises", "draft_exercises", s.draftsHandler.HandleAddExercise)
	handle("DELETE /drafts/{id}/exercises/{exerciseID}", "draft_exercises", s.draftsHandler.HandleRemoveExercise)
	handle("POST /drafts/{id}/columns", "draft_columns", s.draftsHandler.HandleAddColumn)
	handle("DELETE /drafts/{id}/columns/{index}", "draft_columns", s.draftsHandler.HandleRemoveColumn)
	handle("PUT /drafts/{id}/cells", "draft_cells", s.draftsHandler.HandleUpdateCell)
	handle("POST /drafts/{id}/save", "draft_save", s.draftsHandler.HandleSave)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps domain errors onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidPlayer),
		errors.Is(err, planeditor.ErrInvalidName),
		errors.Is(err, planeditor.ErrEmptyColumn),
		errors.Is(err, planeditor.ErrColumnOutOfRange),
		errors.Is(err, service.ErrUnknownPlayer),
		errors.Is(err, service.ErrUnknownExercise),
		errors.Is(err, repository.ErrInvalidReference),
		errors.Is(err, avatar.ErrInvalidKey):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, avatar.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name"
	case errors.Is(err, avatar.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with the status it maps to, logging server-side failures.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body into v. An empty body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
