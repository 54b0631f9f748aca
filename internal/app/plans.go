package service

import (
	"context"
	"errors"

	repository "github.com/okian/coach/internal/adapters/repository"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/internal/domain/types"
)

// Plans is the training plan repository.
type Plans struct {
	store repository.Store
	feed  Feed
}

// List returns every plan, newest first.
func (p *Plans) List(ctx context.Context) ([]model.TrainingPlan, error) {
	return p.store.ListPlans(ctx)
}

// Get returns repository.ErrNotFound for unknown ids.
func (p *Plans) Get(ctx context.Context, id int64) (model.TrainingPlan, error) {
	return p.store.GetPlan(ctx, id)
}

// Find is Get with absence reported as ok=false.
func (p *Plans) Find(ctx context.Context, id int64) (model.TrainingPlan, bool, error) {
	plan, err := p.store.GetPlan(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.TrainingPlan{}, false, nil
	}
	if err != nil {
		return model.TrainingPlan{}, false, err
	}
	return plan, true, nil
}

// Entries returns the plan's entries in the order they were saved.
func (p *Plans) Entries(ctx context.Context, planID int64) ([]model.PlanEntry, error) {
	return p.store.ListEntries(ctx, planID)
}

// Save writes the plan and replaces its entries in one transaction.
func (p *Plans) Save(ctx context.Context, plan model.TrainingPlan, entries []model.PlanEntry) (int64, error) {
	id, err := p.store.SavePlan(ctx, plan, entries)
	if err != nil {
		return 0, err
	}
	p.feed.Publish(ctx, types.TopicPlans)
	return id, nil
}

// Delete removes the plan and its entries.
func (p *Plans) Delete(ctx context.Context, id int64) error {
	if _, err := p.store.GetPlan(ctx, id); err != nil {
		return err
	}
	if err := p.store.DeletePlan(ctx, id); err != nil {
		return err
	}
	p.feed.Publish(ctx, types.TopicPlans)
	return nil
}

// Watch returns the plan list and a channel signalling later changes.
func (p *Plans) Watch(ctx context.Context) ([]model.TrainingPlan, <-chan types.Change, error) {
	return watch(ctx, p.feed, types.TopicPlans, p.List)
}
