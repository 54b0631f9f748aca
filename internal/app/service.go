// Package service wires the store, change feed and avatar storage into the
// repositories and draft registry the HTTP API depends on.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/coach/internal/adapters/avatar"
	"github.com/okian/coach/internal/adapters/mq/changefeed"
	repository "github.com/okian/coach/internal/adapters/repository"
	"github.com/okian/coach/internal/domain/planeditor"
	"github.com/okian/coach/internal/domain/types"
	"github.com/okian/coach/pkg/logger"
	"github.com/okian/coach/pkg/metrics"
)

const defaultAvatarMaxBytes = 2 << 20

// Service owns the roster, library and plan repositories plus open drafts.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	feed    *changefeed.Feed
	avatars avatar.Store

	players   *Players
	exercises *Exercises
	plans     *Plans
	drafts    *Drafts

	// Configuration
	draftCapacity  int
	avatarMaxBytes int64
	now            func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistent store. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithFeed sets the change feed. A private feed is created when unset.
func WithFeed(feed *changefeed.Feed) Option {
	return func(s *Service) {
		s.feed = feed
	}
}

// WithAvatars sets avatar storage. In-memory storage is used when unset.
func WithAvatars(store avatar.Store) Option {
	return func(s *Service) {
		s.avatars = store
	}
}

// WithAvatarMaxBytes caps the size of uploaded avatars.
func WithAvatarMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.avatarMaxBytes = n
		}
	}
}

// WithDraftCapacity sets how many drafts stay open before the least recently used is dropped.
func WithDraftCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.draftCapacity = n
		}
	}
}

// WithClock sets the time source for new plans and drafts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		draftCapacity:  defaultDraftCapacity,
		avatarMaxBytes: defaultAvatarMaxBytes,
		now:            time.Now,
		logger:         nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the repositories and the draft registry.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting coach service...")

	if s.feed == nil {
		s.feed = changefeed.New(changefeed.WithLogger(s.logger.Named("changefeed")))
	}
	if s.avatars == nil {
		s.avatars = avatar.NewMemory()
	}

	s.players = &Players{
		store:     s.store,
		feed:      s.feed,
		avatars:   s.avatars,
		maxAvatar: s.avatarMaxBytes,
		log:       s.logger.Named("players"),
	}
	s.exercises = &Exercises{store: s.store, feed: s.feed}
	s.plans = &Plans{store: s.store, feed: s.feed}

	drafts, err := newDrafts(s.draftCapacity, planeditor.Deps{
		Players:   s.players,
		Exercises: s.exercises,
		Plans:     s.plans,
	}, s.now, s.logger.Named("drafts"))
	if err != nil {
		return err
	}
	s.drafts = drafts

	s.started = true
	s.logger.Info(ctx, "coach service started",
		logger.Int("draftCapacity", s.draftCapacity),
		logger.String("avatarDriver", s.avatars.Driver()),
	)
	return nil
}

// CloseWatches ends every open watch. Writes still succeed but are no longer
// published, and new watches fail.
func (s *Service) CloseWatches() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	return s.feed.Close()
}

// Stop drops open drafts, closes the change feed and the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping coach service...")

	s.drafts.Purge()
	_ = s.feed.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "coach service stopped")
}

// Players returns the roster repository. Nil before Start.
func (s *Service) Players() *Players {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players
}

// Exercises returns the exercise library repository. Nil before Start.
func (s *Service) Exercises() *Exercises {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exercises
}

// Plans returns the training plan repository. Nil before Start.
func (s *Service) Plans() *Plans {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plans
}

// Drafts returns the draft registry. Nil before Start.
func (s *Service) Drafts() *Drafts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"draftCapacity": s.draftCapacity,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	players, perr := s.store.CountPlayers(ctx)
	exercises, eerr := s.store.CountExercises(ctx)
	plans, plerr := s.store.CountPlans(ctx)
	if perr == nil && eerr == nil && plerr == nil {
		stats["players"] = players
		stats["exercises"] = exercises
		stats["plans"] = plans
		metrics.UpdateRosterTotals(players, exercises, plans)
	} else {
		s.logger.Warn(ctx, "stats: count failed")
	}

	stats["draftsOpen"] = s.drafts.Len()
	metrics.UpdateDraftsOpen(s.drafts.Len())

	subs := map[string]int{}
	for _, t := range types.Topics {
		subs[string(t)] = s.feed.Subscribers(t)
	}
	stats["subscribers"] = subs
	stats["avatarDriver"] = s.avatars.Driver()

	return stats
}
