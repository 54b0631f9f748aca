package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/internal/domain/planeditor"
	"github.com/okian/coach/pkg/logger"
	"github.com/okian/coach/pkg/metrics"
)

const defaultDraftCapacity = 256

// Draft is one plan editing session addressed by id.
type Draft struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	editor *planeditor.Editor
}

// DraftView is a draft's state as returned to clients.
type DraftView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	planeditor.State
}

// Drafts keeps open editors in a bounded LRU. The least recently used draft
// is dropped when capacity is exceeded.
type Drafts struct {
	cache *lru.Cache[string, *Draft]
	deps  planeditor.Deps
	now   func() time.Time
	log   logger.Logger
}

func newDrafts(capacity int, deps planeditor.Deps, now func() time.Time, log logger.Logger) (*Drafts, error) {
	cache, err := lru.New[string, *Draft](capacity)
	if err != nil {
		return nil, fmt.Errorf("draft cache: %w", err)
	}
	return &Drafts{cache: cache, deps: deps, now: now, log: log}, nil
}

// Open starts a draft. A nil planID starts a new plan; otherwise the stored
// plan is loaded for editing.
func (d *Drafts) Open(ctx context.Context, planID *int64) (DraftView, error) {
	ed := planeditor.New(d.deps,
		planeditor.WithClock(d.now),
		planeditor.WithLogger(d.log),
	)
	if err := ed.Load(ctx, planID); err != nil {
		return DraftView{}, err
	}
	draft := &Draft{
		ID:        uuid.NewString(),
		CreatedAt: d.now().UTC(),
		editor:    ed,
	}
	if evicted := d.cache.Add(draft.ID, draft); evicted {
		metrics.RecordDraftEvicted()
		d.log.Debug(ctx, "draft evicted")
	}
	metrics.UpdateDraftsOpen(d.cache.Len())
	return draft.view(), nil
}

func (dr *Draft) view() DraftView {
	return DraftView{ID: dr.ID, CreatedAt: dr.CreatedAt, State: dr.editor.State()}
}

// Get returns the draft's current state.
func (d *Drafts) Get(id string) (DraftView, error) {
	return d.do(id, func(*planeditor.Editor) error { return nil })
}

// Discard drops a draft without saving it.
func (d *Drafts) Discard(id string) error {
	if !d.cache.Remove(id) {
		return ErrDraftNotFound
	}
	metrics.UpdateDraftsOpen(d.cache.Len())
	return nil
}

// Len returns the number of open drafts.
func (d *Drafts) Len() int { return d.cache.Len() }

// Purge drops every draft.
func (d *Drafts) Purge() {
	d.cache.Purge()
	metrics.UpdateDraftsOpen(0)
}

// do runs fn against the draft's editor while holding the draft lock.
func (d *Drafts) do(id string, fn func(*planeditor.Editor) error) (DraftView, error) {
	draft, ok := d.cache.Get(id)
	if !ok {
		return DraftView{}, ErrDraftNotFound
	}
	draft.mu.Lock()
	defer draft.mu.Unlock()

	if err := fn(draft.editor); err != nil {
		return DraftView{}, err
	}
	return draft.view(), nil
}

// Rename sets the plan name and, when desc is non-nil, its description.
func (d *Drafts) Rename(id, name string, desc *string) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		ed.OnPlanNameChange(name)
		if desc != nil {
			ed.OnPlanDescriptionChange(*desc)
		}
		return nil
	})
}

// AddExercise adds a library exercise to the plan.
func (d *Drafts) AddExercise(id string, exerciseID int64) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		ex, ok := ed.Exercise(exerciseID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownExercise, exerciseID)
		}
		ed.AddExerciseToPlan(ex)
		return nil
	})
}

// AddNewExercise adds name to the library and to the plan.
func (d *Drafts) AddNewExercise(ctx context.Context, id, name string) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		_, err := ed.AddNewExerciseToLibrary(ctx, name)
		return err
	})
}

// RemoveExercise drops an exercise from the plan.
func (d *Drafts) RemoveExercise(id string, exerciseID int64) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		ed.RemoveExerciseFromPlan(model.Exercise{ID: exerciseID})
		return nil
	})
}

// AddColumn appends a column for the given roster members.
func (d *Drafts) AddColumn(id string, playerIDs []string) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		players := make([]model.Player, 0, len(playerIDs))
		for _, pid := range playerIDs {
			p, ok := ed.Player(pid)
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownPlayer, pid)
			}
			players = append(players, p)
		}
		return ed.AddPlayerColumn(players)
	})
}

// RemoveColumn removes the column at index.
func (d *Drafts) RemoveColumn(id string, index int) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		return ed.RemovePlayerColumn(index)
	})
}

// UpdateCell sets one grid value.
func (d *Drafts) UpdateCell(id string, column int, exerciseID int64, cell model.Cell) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		return ed.UpdateCell(column, exerciseID, cell)
	})
}

// Save persists the draft. The draft stays open with Finished set.
func (d *Drafts) Save(ctx context.Context, id string) (DraftView, error) {
	return d.do(id, func(ed *planeditor.Editor) error {
		return ed.Save(ctx)
	})
}
