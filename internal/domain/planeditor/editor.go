// Package planeditor holds the working state of a training plan while a coach
// edits it: which exercises it contains, which groups of players it targets
// and the sets/reps/weight cell for every (group, exercise) pair.
//
// An Editor is single-writer; callers serialise access.
package planeditor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
)

// Roster lists players.
type Roster interface {
	List(ctx context.Context) ([]model.Player, error)
}

// Library lists and extends the exercise library.
type Library interface {
	List(ctx context.Context) ([]model.Exercise, error)
	// Add inserts name unless present and returns the stored exercise.
	Add(ctx context.Context, name string) (model.Exercise, error)
}

// Plans reads and writes training plans.
type Plans interface {
	// Find reports ok=false when the plan does not exist.
	Find(ctx context.Context, id int64) (plan model.TrainingPlan, ok bool, err error)
	Entries(ctx context.Context, planID int64) ([]model.PlanEntry, error)
	// Save persists the plan and replaces its entries atomically, returning the plan id.
	Save(ctx context.Context, p model.TrainingPlan, entries []model.PlanEntry) (int64, error)
}

// Deps are the collaborators an Editor reads from and writes to.
type Deps struct {
	Players   Roster
	Exercises Library
	Plans     Plans
}

// Editor is the plan editor state controller.
type Editor struct {
	deps  Deps
	state State
	now   func() time.Time
	log   logger.Logger
}

// New returns an editor holding an empty, unsaved plan in the loading state.
// Call Load before dispatching intents.
func New(deps Deps, opts ...Option) *Editor {
	e := &Editor{
		deps: deps,
		now:  time.Now,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = State{
		Plan:         model.TrainingPlan{Date: e.now().UTC()},
		Exercises:    []model.Exercise{},
		Columns:      []Column{},
		AllPlayers:   []model.Player{},
		AllExercises: []model.Exercise{},
		Loading:      true,
	}
	return e
}

// State returns a copy of the current state.
func (e *Editor) State() State {
	return e.state.clone()
}

// Load fetches the roster and library and, when planID is set, the stored
// plan with its entries. A plan id that does not exist leaves the draft empty.
func (e *Editor) Load(ctx context.Context, planID *int64) error {
	players, err := e.deps.Players.List(ctx)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	exercises, err := e.deps.Exercises.List(ctx)
	if err != nil {
		return fmt.Errorf("load exercises: %w", err)
	}
	e.state.AllPlayers = append([]model.Player{}, players...)
	e.state.AllExercises = append([]model.Exercise{}, exercises...)

	if planID == nil {
		e.state.Loading = false
		return nil
	}

	plan, ok, err := e.deps.Plans.Find(ctx, *planID)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if !ok {
		e.log.Debug(ctx, "plan not found, keeping empty draft", logger.Int64("plan_id", *planID))
		e.state.Loading = false
		return nil
	}
	entries, err := e.deps.Plans.Entries(ctx, *planID)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	e.state.Plan = plan
	e.state.Exercises = e.exercisesOf(entries)
	e.state.Columns = e.columnsOf(entries)
	e.state.Loading = false
	return nil
}

// exercisesOf returns the distinct exercises referenced by entries, in
// first-appearance order.
func (e *Editor) exercisesOf(entries []model.PlanEntry) []model.Exercise {
	out := []model.Exercise{}
	seen := make(map[int64]bool)
	for _, en := range entries {
		if seen[en.ExerciseID] {
			continue
		}
		seen[en.ExerciseID] = true
		if ex, ok := e.Exercise(en.ExerciseID); ok {
			out = append(out, ex)
		}
	}
	return out
}

// columnsOf regroups entries by the column they were saved from. Players in
// a column share cells, so the first entry per exercise wins.
func (e *Editor) columnsOf(entries []model.PlanEntry) []Column {
	byIndex := make(map[int]*Column)
	var order []int
	seenPlayer := make(map[int]map[string]bool)

	for _, en := range entries {
		col, ok := byIndex[en.Column]
		if !ok {
			col = &Column{Players: []model.Player{}, Cells: map[int64]model.Cell{}}
			byIndex[en.Column] = col
			seenPlayer[en.Column] = make(map[string]bool)
			order = append(order, en.Column)
		}
		if !seenPlayer[en.Column][en.PlayerID] {
			seenPlayer[en.Column][en.PlayerID] = true
			if p, ok := e.Player(en.PlayerID); ok {
				col.Players = append(col.Players, p)
			}
		}
		if _, ok := col.Cells[en.ExerciseID]; !ok {
			col.Cells[en.ExerciseID] = model.CellOf(en)
		}
	}

	slices.Sort(order)
	out := make([]Column, 0, len(order))
	for _, idx := range order {
		if col := byIndex[idx]; len(col.Players) > 0 {
			out = append(out, *col)
		}
	}
	return out
}

// Player looks up a roster member loaded into the editor.
func (e *Editor) Player(id string) (model.Player, bool) {
	i := slices.IndexFunc(e.state.AllPlayers, func(p model.Player) bool { return p.ID == id })
	if i < 0 {
		return model.Player{}, false
	}
	return e.state.AllPlayers[i], true
}

// Exercise looks up a library exercise loaded into the editor.
func (e *Editor) Exercise(id int64) (model.Exercise, bool) {
	i := slices.IndexFunc(e.state.AllExercises, func(x model.Exercise) bool { return x.ID == id })
	if i < 0 {
		return model.Exercise{}, false
	}
	return e.state.AllExercises[i], true
}

// AddExerciseToPlan appends ex unless an exercise with the same id is already in the plan.
func (e *Editor) AddExerciseToPlan(ex model.Exercise) {
	if slices.ContainsFunc(e.state.Exercises, func(x model.Exercise) bool { return x.ID == ex.ID }) {
		return
	}
	e.state.Exercises = append(e.state.Exercises, ex)
}

// AddNewExerciseToLibrary stores name in the library (reusing an existing
// exercise of that name) and adds it to the plan.
func (e *Editor) AddNewExerciseToLibrary(ctx context.Context, name string) (model.Exercise, error) {
	if strings.TrimSpace(name) == "" {
		return model.Exercise{}, ErrInvalidName
	}
	ex, err := e.deps.Exercises.Add(ctx, name)
	if err != nil {
		return model.Exercise{}, err
	}
	if _, ok := e.Exercise(ex.ID); !ok {
		e.state.AllExercises = append(e.state.AllExercises, ex)
		slices.SortStableFunc(e.state.AllExercises, func(a, b model.Exercise) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
	e.AddExerciseToPlan(ex)
	return ex, nil
}

// RemoveExerciseFromPlan drops the exercise with ex's id. Cells already
// entered for it stay in the columns but are not saved.
func (e *Editor) RemoveExerciseFromPlan(ex model.Exercise) {
	e.state.Exercises = slices.DeleteFunc(e.state.Exercises, func(x model.Exercise) bool { return x.ID == ex.ID })
}

// AddPlayerColumn appends a column for players with no cell values.
func (e *Editor) AddPlayerColumn(players []model.Player) error {
	if len(players) == 0 {
		return ErrEmptyColumn
	}
	e.state.Columns = append(e.state.Columns, Column{
		Players: slices.Clone(players),
		Cells:   map[int64]model.Cell{},
	})
	return nil
}

// RemovePlayerColumn removes the column at index.
func (e *Editor) RemovePlayerColumn(index int) error {
	if index < 0 || index >= len(e.state.Columns) {
		return fmt.Errorf("%w: %d", ErrColumnOutOfRange, index)
	}
	e.state.Columns = slices.Delete(e.state.Columns, index, index+1)
	return nil
}

// UpdateCell sets the value at (column, exerciseID).
func (e *Editor) UpdateCell(column int, exerciseID int64, cell model.Cell) error {
	if column < 0 || column >= len(e.state.Columns) {
		return fmt.Errorf("%w: %d", ErrColumnOutOfRange, column)
	}
	col := &e.state.Columns[column]
	if col.Cells == nil {
		col.Cells = map[int64]model.Cell{}
	}
	col.Cells[exerciseID] = cell
	return nil
}

// OnPlanNameChange sets the plan name.
func (e *Editor) OnPlanNameChange(name string) {
	e.state.Plan.Name = name
}

// OnPlanDescriptionChange sets the plan description; blank clears it.
func (e *Editor) OnPlanDescriptionChange(desc string) {
	if strings.TrimSpace(desc) == "" {
		e.state.Plan.Description = nil
		return
	}
	e.state.Plan.Description = &desc
}

// Entries computes the rows a save would persist: every player of every
// column crossed with every exercise in the plan.
func (e *Editor) Entries() []model.PlanEntry {
	out := []model.PlanEntry{}
	seq := 0
	for ci, col := range e.state.Columns {
		for _, p := range col.Players {
			for _, ex := range e.state.Exercises {
				cell := col.Cell(ex.ID)
				out = append(out, model.PlanEntry{
					PlanID:     e.state.Plan.ID,
					PlayerID:   p.ID,
					ExerciseID: ex.ID,
					Sets:       cell.Sets,
					Reps:       cell.Reps,
					Weight:     cell.Weight,
					Column:     ci,
					Seq:        seq,
				})
				seq++
			}
		}
	}
	return out
}

// Save persists the plan and its full entry set, then marks the draft finished.
func (e *Editor) Save(ctx context.Context) error {
	if strings.TrimSpace(e.state.Plan.Name) == "" {
		return ErrInvalidName
	}
	if err := e.pruneRemovedPlayers(ctx); err != nil {
		return err
	}
	entries := e.Entries()
	id, err := e.deps.Plans.Save(ctx, e.state.Plan, entries)
	if err != nil {
		return err
	}
	e.state.Plan.ID = id
	e.state.Finished = true
	e.log.Info(ctx, "plan saved",
		logger.Int64("plan_id", id),
		logger.Int("entries", len(entries)),
		logger.Int("columns", len(e.state.Columns)),
	)
	return nil
}

// pruneRemovedPlayers drops players deleted from the roster since Load.
// Columns left without players are removed.
func (e *Editor) pruneRemovedPlayers(ctx context.Context) error {
	roster, err := e.deps.Players.List(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		present[p.ID] = struct{}{}
	}

	var dropped []string
	columns := make([]Column, 0, len(e.state.Columns))
	for _, col := range e.state.Columns {
		kept := make([]model.Player, 0, len(col.Players))
		for _, p := range col.Players {
			if _, ok := present[p.ID]; ok {
				kept = append(kept, p)
				continue
			}
			dropped = append(dropped, p.ID)
		}
		col.Players = kept
		if len(kept) > 0 {
			columns = append(columns, col)
		}
	}
	e.state.Columns = columns
	e.state.AllPlayers = append([]model.Player{}, roster...)

	if len(dropped) > 0 {
		e.log.Warn(ctx, "removed players pruned from plan",
			logger.Any("player_ids", dropped),
			logger.Int("columns", len(columns)),
		)
	}
	return nil
}
