package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/coach/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrVerify is returned when stored data does not match what was sent.
var ErrVerify = errors.New("verification failed")

const (
	maxPlanExercises = 3
	maxColumnPlayers = 2
	maxPlanColumns   = 3
)

type runner struct {
	cfg  *Config
	c    *client
	log  logger.Logger
	seed uint64
	// run tags plan names so repeated runs against one store do not collide.
	run string

	mu    sync.Mutex
	stats Stats
}

// Run seeds players, exercises and plans, then verifies every saved plan.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	r := &runner{cfg: cfg, c: newClient(cfg.BaseURL, cfg.Timeout), log: log}
	r.stats.StartTime = time.Now()
	r.seed = uint64(r.stats.StartTime.UnixNano())
	r.run = uuid.NewString()[:8]

	log.Info(ctx, "starting coach seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.NumPlayers),
		logger.Int("exercises", cfg.NumExercises),
		logger.Int("plans", cfg.NumPlans),
		logger.Int("workers", cfg.Workers))

	if err := r.c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	players, err := r.createPlayers(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := r.createExercises(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.buildPlans(ctx, players, exercises); err != nil {
		return nil, err
	}

	r.stats.Duration = time.Since(r.stats.StartTime)
	log.Info(ctx, "seed completed",
		logger.Int("players", r.stats.PlayersCreated),
		logger.Int("exercises", r.stats.ExercisesCreated),
		logger.Int("plans", r.stats.PlansSaved),
		logger.Int("entries", r.stats.EntriesSaved),
		logger.Duration("duration", r.stats.Duration))
	out := r.stats
	return &out, nil
}

func (r *runner) rng(stream int) *rand.Rand {
	return rand.New(rand.NewPCG(r.seed, uint64(stream)))
}

func (r *runner) count(fn func(*Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func (r *runner) createPlayers(ctx context.Context) ([]player, error) {
	out := make([]player, r.cfg.NumPlayers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range out {
		g.Go(func() error {
			var p player
			if err := r.c.do(gctx, http.MethodPost, "/players", randomPlayer(r.rng(i)), &p, http.StatusCreated); err != nil {
				r.count(func(s *Stats) { s.RequestsFailed++ })
				return fmt.Errorf("create player %d: %w", i, err)
			}
			out[i] = p
			r.count(func(s *Stats) { s.PlayersCreated++ })
			if r.cfg.Verbose {
				r.log.Debug(gctx, "player created", logger.String("id", p.ID))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runner) createExercises(ctx context.Context) ([]exercise, error) {
	out := make([]exercise, r.cfg.NumExercises)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range out {
		g.Go(func() error {
			var ex exercise
			body := map[string]string{"name": exerciseName(i)}
			if err := r.c.do(gctx, http.MethodPost, "/exercises", body, &ex, http.StatusOK); err != nil {
				r.count(func(s *Stats) { s.RequestsFailed++ })
				return fmt.Errorf("create exercise %d: %w", i, err)
			}
			out[i] = ex
			r.count(func(s *Stats) { s.ExercisesCreated++ })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runner) buildPlans(ctx context.Context, players []player, exercises []exercise) error {
	if len(players) == 0 || len(exercises) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range r.cfg.NumPlans {
		g.Go(func() error {
			return r.buildPlan(gctx, i, players, exercises)
		})
	}
	return g.Wait()
}

// buildPlan drives one draft from open to save and checks the stored entries.
func (r *runner) buildPlan(ctx context.Context, i int, players []player, exercises []exercise) error {
	rng := r.rng(r.cfg.NumPlayers + i)
	fail := func(step string, err error) error {
		r.count(func(s *Stats) { s.RequestsFailed++ })
		return fmt.Errorf("plan %d: %s: %w", i, step, err)
	}

	var d draft
	if err := r.c.do(ctx, http.MethodPost, "/drafts", map[string]any{}, &d, http.StatusCreated); err != nil {
		return fail("open draft", err)
	}
	base := "/drafts/" + d.ID

	name := map[string]any{"name": "Session " + r.run + "-" + strconv.Itoa(i+1)}
	if err := r.c.do(ctx, http.MethodPut, base+"/name", name, nil, http.StatusOK); err != nil {
		return fail("rename", err)
	}

	chosen := pick(rng, exercises, 1+rng.IntN(maxPlanExercises))
	for _, ex := range chosen {
		body := map[string]any{"exercise_id": ex.ID}
		if err := r.c.do(ctx, http.MethodPost, base+"/exercises", body, nil, http.StatusOK); err != nil {
			return fail("add exercise", err)
		}
	}

	// Distinct players per plan so every (player, exercise) pair is unique.
	squad := pick(rng, players, 1+rng.IntN(maxPlanColumns*maxColumnPlayers))
	want := len(chosen) * len(squad)
	columns := 0
	for len(squad) > 0 {
		n := min(len(squad), 1+rng.IntN(maxColumnPlayers))
		ids := make([]string, 0, n)
		for _, p := range squad[:n] {
			ids = append(ids, p.ID)
		}
		squad = squad[n:]
		if err := r.c.do(ctx, http.MethodPost, base+"/columns", map[string]any{"player_ids": ids}, nil, http.StatusOK); err != nil {
			return fail("add column", err)
		}
		for _, ex := range chosen {
			cell := randomCell(rng)
			body := map[string]any{
				"column":      columns,
				"exercise_id": ex.ID,
				"sets":        cell["sets"],
				"reps":        cell["reps"],
				"weight":      cell["weight"],
			}
			if err := r.c.do(ctx, http.MethodPut, base+"/cells", body, nil, http.StatusOK); err != nil {
				return fail("update cell", err)
			}
		}
		columns++
	}

	var saved draft
	if err := r.c.do(ctx, http.MethodPost, base+"/save", nil, &saved, http.StatusOK); err != nil {
		return fail("save", err)
	}

	var stored plan
	if err := r.c.do(ctx, http.MethodGet, "/plans/"+strconv.FormatInt(saved.Plan.ID, 10), nil, &stored, http.StatusOK); err != nil {
		return fail("read back", err)
	}
	if len(stored.Entries) != want {
		return fmt.Errorf("%w: plan %d has %d entries, want %d", ErrVerify, saved.Plan.ID, len(stored.Entries), want)
	}

	r.count(func(s *Stats) {
		s.PlansSaved++
		s.EntriesSaved += len(stored.Entries)
	})
	return nil
}
