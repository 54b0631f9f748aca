package service

import (
	"context"
	"strings"

	repository "github.com/okian/coach/internal/adapters/repository"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/internal/domain/planeditor"
	"github.com/okian/coach/internal/domain/types"
)

// Exercises is the exercise library repository.
type Exercises struct {
	store repository.Store
	feed  Feed
}

// List returns the library ordered by name.
func (e *Exercises) List(ctx context.Context) ([]model.Exercise, error) {
	return e.store.ListExercises(ctx)
}

// Add stores name unless an exercise with that name exists, returning the
// stored exercise either way.
func (e *Exercises) Add(ctx context.Context, name string) (model.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Exercise{}, planeditor.ErrInvalidName
	}
	ex, err := e.store.InsertExercise(ctx, name)
	if err != nil {
		return model.Exercise{}, err
	}
	e.feed.Publish(ctx, types.TopicExercises)
	return ex, nil
}

// Watch returns the library and a channel signalling later changes.
func (e *Exercises) Watch(ctx context.Context) ([]model.Exercise, <-chan types.Change, error) {
	return watch(ctx, e.feed, types.TopicExercises, e.List)
}
