package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/coach/internal/domain/types"
	"github.com/okian/coach/pkg/logger"
)

const keepAliveInterval = 15 * time.Second

// WatchHandler streams collection snapshots as server-sent events. The
// current list is sent on connect and again after every change.
type WatchHandler struct {
	players   PlayerRepository
	exercises ExerciseRepository
	plans     PlanRepository
	log       logger.Logger
}

// NewWatchHandler creates a new watch handler.
func NewWatchHandler(players PlayerRepository, exercises ExerciseRepository, plans PlanRepository, log logger.Logger) *WatchHandler {
	return &WatchHandler{players: players, exercises: exercises, plans: plans, log: log}
}

type collection struct {
	watch func(ctx context.Context) (any, <-chan types.Change, error)
	list  func(ctx context.Context) (any, error)
}

func (h *WatchHandler) collection(topic types.Topic) collection {
	switch topic {
	case types.TopicPlayers:
		return collection{
			watch: func(ctx context.Context) (any, <-chan types.Change, error) { return h.players.Watch(ctx) },
			list:  func(ctx context.Context) (any, error) { return h.players.List(ctx) },
		}
	case types.TopicExercises:
		return collection{
			watch: func(ctx context.Context) (any, <-chan types.Change, error) { return h.exercises.Watch(ctx) },
			list:  func(ctx context.Context) (any, error) { return h.exercises.List(ctx) },
		}
	default:
		return collection{
			watch: func(ctx context.Context) (any, <-chan types.Change, error) { return h.plans.Watch(ctx) },
			list:  func(ctx context.Context) (any, error) { return h.plans.List(ctx) },
		}
	}
}

// HandleWatch handles GET /watch/{topic}.
func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	topic, ok := types.ParseTopic(r.PathValue("topic"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("unknown topic %q", r.PathValue("topic")))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		fail(r.Context(), h.log, w, ErrNoStreaming)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := h.collection(topic)
	snapshot, changes, err := c.watch(ctx)
	if err != nil {
		fail(ctx, h.log, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, string(topic), snapshot); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case _, ok := <-changes:
			if !ok {
				return
			}
			list, err := c.list(ctx)
			if err != nil {
				h.log.Warn(ctx, "watch re-read failed", logger.String("topic", string(topic)), logger.Error(err))
				return
			}
			if err := writeEvent(w, string(topic), list); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
