package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/okian/coach/internal/adapters/avatar"
	"github.com/okian/coach/internal/adapters/mq/changefeed"
	repository "github.com/okian/coach/internal/adapters/repository"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/internal/domain/types"
	"github.com/okian/coach/pkg/logger"
	"github.com/okian/coach/pkg/metrics"
)

// Feed is what repositories need from the change feed.
type Feed interface {
	changefeed.Publisher
	changefeed.Subscriber
}

// Players is the roster repository.
type Players struct {
	store     repository.Store
	feed      Feed
	avatars   avatar.Store
	maxAvatar int64
	log       logger.Logger
}

// List returns the roster ordered by last name, then first name.
func (p *Players) List(ctx context.Context) ([]model.Player, error) {
	return p.store.ListPlayers(ctx)
}

// Get returns repository.ErrNotFound for unknown ids.
func (p *Players) Get(ctx context.Context, id string) (model.Player, error) {
	return p.store.GetPlayer(ctx, id)
}

// Add validates the form and stores a new player under a fresh id.
func (p *Players) Add(ctx context.Context, form model.PlayerForm) (model.Player, error) {
	player := model.Player{ID: uuid.NewString()}
	if err := form.Apply(&player); err != nil {
		return model.Player{}, err
	}
	if err := p.store.InsertPlayer(ctx, player); err != nil {
		return model.Player{}, err
	}
	p.feed.Publish(ctx, types.TopicPlayers)
	p.log.Debug(ctx, "player added", logger.String("player_id", player.ID))
	return player, nil
}

// Update applies the form to an existing player, keeping id and avatar.
func (p *Players) Update(ctx context.Context, id string, form model.PlayerForm) (model.Player, error) {
	player, err := p.store.GetPlayer(ctx, id)
	if err != nil {
		return model.Player{}, err
	}
	if err := form.Apply(&player); err != nil {
		return model.Player{}, err
	}
	if err := p.store.UpdatePlayer(ctx, player); err != nil {
		return model.Player{}, err
	}
	p.feed.Publish(ctx, types.TopicPlayers)
	return player, nil
}

// Delete removes the player, its plan entries and its avatar.
func (p *Players) Delete(ctx context.Context, id string) error {
	player, err := p.store.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.DeletePlayer(ctx, id); err != nil {
		return err
	}
	if player.Avatar != "" {
		if err := p.avatars.Delete(ctx, player.Avatar); err != nil {
			p.log.Warn(ctx, "avatar cleanup failed",
				logger.String("player_id", id),
				logger.Error(err),
			)
		}
	}
	p.feed.Publish(ctx, types.TopicPlayers)
	// cascades rewrote plan contents
	p.feed.Publish(ctx, types.TopicPlans)
	p.log.Debug(ctx, "player deleted", logger.String("player_id", id))
	return nil
}

// SetAvatar stores r as the player's avatar.
func (p *Players) SetAvatar(ctx context.Context, id string, r io.Reader, contentType string) (model.Player, error) {
	player, err := p.store.GetPlayer(ctx, id)
	if err != nil {
		return model.Player{}, err
	}
	data, err := avatar.ReadLimited(r, p.maxAvatar)
	if err != nil {
		return model.Player{}, err
	}
	if _, err := p.avatars.Put(ctx, player.ID, bytes.NewReader(data), contentType); err != nil {
		return model.Player{}, fmt.Errorf("store avatar: %w", err)
	}
	metrics.RecordAvatarBytes(int64(len(data)))

	if player.Avatar != player.ID {
		player.Avatar = player.ID
		if err := p.store.UpdatePlayer(ctx, player); err != nil {
			return model.Player{}, err
		}
	}
	p.feed.Publish(ctx, types.TopicPlayers)
	return player, nil
}

// Avatar opens the player's avatar payload. Callers close the reader.
func (p *Players) Avatar(ctx context.Context, id string) (avatar.Info, io.ReadCloser, error) {
	player, err := p.store.GetPlayer(ctx, id)
	if err != nil {
		return avatar.Info{}, nil, err
	}
	if player.Avatar == "" {
		return avatar.Info{}, nil, avatar.ErrNotFound
	}
	info, rc, err := p.avatars.Get(ctx, player.Avatar)
	if err != nil && !errors.Is(err, avatar.ErrNotFound) {
		return avatar.Info{}, nil, fmt.Errorf("read avatar: %w", err)
	}
	return info, rc, err
}

// Watch returns the roster and a channel signalling later changes.
func (p *Players) Watch(ctx context.Context) ([]model.Player, <-chan types.Change, error) {
	return watch(ctx, p.feed, types.TopicPlayers, p.List)
}
