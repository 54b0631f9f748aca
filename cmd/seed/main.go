package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/coach/internal/seed"
	"github.com/okian/coach/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers   = 40
	defaultExercises = 25
	defaultPlans     = 20
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultRunTime   = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players   = flag.Int("players", defaultPlayers, "Number of players to create")
		exercises = flag.Int("exercises", defaultExercises, "Number of exercises to create")
		plans     = flag.Int("plans", defaultPlans, "Number of plans to build through drafts")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		format    = flag.String("log-format", "text", "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	_, err := seed.Run(ctx, &seed.Config{
		BaseURL:      *baseURL,
		NumPlayers:   *players,
		NumExercises: *exercises,
		NumPlans:     *plans,
		Workers:      *workers,
		Timeout:      *timeout,
		Verbose:      *verbose,
	}, logger.Named("seed"))
	if err != nil {
		_, _ = os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
