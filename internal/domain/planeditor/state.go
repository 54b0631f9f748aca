package planeditor

import (
	"maps"
	"slices"

	"github.com/okian/coach/internal/domain/model"
)

// Column is a group of players sharing one set of cell values, keyed by exercise id.
type Column struct {
	Players []model.Player        `json:"players"`
	Cells   map[int64]model.Cell `json:"cells"`
}

// Cell returns the value at exerciseID, or the empty cell.
func (c Column) Cell(exerciseID int64) model.Cell {
	return c.Cells[exerciseID]
}

// State is the editor's working copy of a plan.
type State struct {
	Plan         model.TrainingPlan `json:"plan"`
	Exercises    []model.Exercise   `json:"exercises"`
	Columns      []Column           `json:"columns"`
	AllPlayers   []model.Player     `json:"all_players"`
	AllExercises []model.Exercise   `json:"all_exercises"`
	Loading      bool               `json:"loading"`
	Finished     bool               `json:"finished"`
}

func (s State) clone() State {
	out := s
	if s.Plan.Description != nil {
		d := *s.Plan.Description
		out.Plan.Description = &d
	}
	out.Exercises = slices.Clone(s.Exercises)
	out.AllPlayers = slices.Clone(s.AllPlayers)
	out.AllExercises = slices.Clone(s.AllExercises)
	out.Columns = make([]Column, len(s.Columns))
	for i, c := range s.Columns {
		out.Columns[i] = Column{
			Players: slices.Clone(c.Players),
			Cells:   maps.Clone(c.Cells),
		}
		if out.Columns[i].Cells == nil {
			out.Columns[i].Cells = map[int64]model.Cell{}
		}
	}
	return out
}
