// Package model contains domain models passed between layers.
package model

import (
	"time"
)

// Player is a member of the coach's roster.
type Player struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthYear int    `json:"birth_year"`
	// Avatar is a key into avatar storage; empty when none was uploaded.
	Avatar string `json:"avatar,omitempty"`
}

// Exercise is an entry of the exercise library. Names are unique.
type Exercise struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TrainingPlan is a named training session template.
type TrainingPlan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

// IsNew reports whether the plan has not been persisted yet.
func (p TrainingPlan) IsNew() bool { return p.ID == 0 }

// PlanEntry is one (plan, player, exercise) tuple with free-text targets.
type PlanEntry struct {
	PlanID     int64  `json:"plan_id"`
	PlayerID   string `json:"player_id"`
	ExerciseID int64  `json:"exercise_id"`
	Sets       string `json:"sets"`
	Reps       string `json:"reps"`
	Weight     string `json:"weight"`

	// Column is the editor column the entry was emitted from.
	Column int `json:"column"`
	// Seq is the emission order within the plan.
	Seq int `json:"seq"`
}

// Cell is the sets/reps/weight value at one grid coordinate of the editor.
type Cell struct {
	Sets   string `json:"sets"`
	Reps   string `json:"reps"`
	Weight string `json:"weight"`
}

// CellOf returns the cell values carried by an entry.
func CellOf(e PlanEntry) Cell {
	return Cell{Sets: e.Sets, Reps: e.Reps, Weight: e.Weight}
}
