// Package seed populates a running coach service through its HTTP API and
// checks the result. It doubles as a small load generator.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumPlayers   int           // Players to create
	NumExercises int           // Exercises to create
	NumPlans     int           // Plans to build through drafts
	Workers      int           // Concurrent requests
	Timeout      time.Duration // HTTP request timeout
	Verbose      bool          // Log every request
}

// Stats holds run statistics.
type Stats struct {
	PlayersCreated   int
	ExercisesCreated int
	PlansSaved       int
	EntriesSaved     int
	RequestsFailed   int
	StartTime        time.Time
	Duration         time.Duration
}

type player struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type exercise struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type plan struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Entries []entry `json:"entries"`
}

type entry struct {
	PlayerID   string `json:"player_id"`
	ExerciseID int64  `json:"exercise_id"`
}

type draft struct {
	ID   string `json:"id"`
	Plan plan   `json:"plan"`
}
