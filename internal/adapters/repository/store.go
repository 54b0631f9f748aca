// Package repository persists the roster, the exercise library and training
// plans in a relational database.
package repository

import (
	"context"

	"github.com/okian/coach/internal/domain/model"
)

// Store provides read/write access to players, exercises, plans and plan entries.
type Store interface {
	// ListPlayers returns every player ordered by last name, then first name.
	ListPlayers(ctx context.Context) ([]model.Player, error)
	// GetPlayer returns ErrNotFound if the player is unknown.
	GetPlayer(ctx context.Context, id string) (model.Player, error)
	// InsertPlayer stores p, replacing any player with the same id.
	InsertPlayer(ctx context.Context, p model.Player) error
	// UpdatePlayer overwrites an existing player. Returns ErrNotFound if absent.
	UpdatePlayer(ctx context.Context, p model.Player) error
	// DeletePlayer removes the player and every plan entry that references it.
	DeletePlayer(ctx context.Context, id string) error
	CountPlayers(ctx context.Context) (int, error)

	// ListExercises returns the library ordered by name.
	ListExercises(ctx context.Context) ([]model.Exercise, error)
	GetExerciseByName(ctx context.Context, name string) (model.Exercise, error)
	// InsertExercise adds name to the library unless it is already present and
	// returns the stored row either way.
	InsertExercise(ctx context.Context, name string) (model.Exercise, error)
	CountExercises(ctx context.Context) (int, error)

	// ListPlans returns every plan, newest first.
	ListPlans(ctx context.Context) ([]model.TrainingPlan, error)
	GetPlan(ctx context.Context, id int64) (model.TrainingPlan, error)
	// InsertPlan stores a new plan and returns its assigned id.
	InsertPlan(ctx context.Context, p model.TrainingPlan) (int64, error)
	UpdatePlan(ctx context.Context, p model.TrainingPlan) error
	// DeletePlan removes the plan and its entries.
	DeletePlan(ctx context.Context, id int64) error
	CountPlans(ctx context.Context) (int, error)

	// ListEntries returns the entries of a plan in emission order.
	ListEntries(ctx context.Context, planID int64) ([]model.PlanEntry, error)
	// ReplaceEntries swaps the full entry set of a plan atomically.
	ReplaceEntries(ctx context.Context, planID int64, entries []model.PlanEntry) error

	// SavePlan inserts or updates the plan and replaces its entries in one
	// transaction. It returns the plan id.
	SavePlan(ctx context.Context, p model.TrainingPlan, entries []model.PlanEntry) (int64, error)

	Close() error
}
