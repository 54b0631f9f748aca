package seed

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

var (
	firstNames = []string{"Ana", "Ben", "Carla", "Dario", "Eva", "Felix", "Greta", "Hugo", "Iris", "Jonas", "Kim", "Luca"}
	lastNames  = []string{"Ruiz", "Ortiz", "Meyer", "Novak", "Silva", "Berg", "Costa", "Weber", "Moreau", "Kowalski"}
	movements  = []string{"Squat", "Deadlift", "Bench Press", "Lunge", "Row", "Plank", "Sprint", "Box Jump", "Pull-up", "Push Press"}
)

// Youth squads span a few birth years.
const (
	minBirthYear   = 2004
	birthYearRange = 8
)

func randomPlayer(r *rand.Rand) map[string]string {
	return map[string]string{
		"first_name": firstNames[r.IntN(len(firstNames))],
		"last_name":  lastNames[r.IntN(len(lastNames))],
		"birth_year": strconv.Itoa(minBirthYear + r.IntN(birthYearRange)),
	}
}

// exerciseName returns a distinct name for every i.
func exerciseName(i int) string {
	base := movements[i%len(movements)]
	if round := i / len(movements); round > 0 {
		return fmt.Sprintf("%s %d", base, round+1)
	}
	return base
}

func randomCell(r *rand.Rand) map[string]string {
	return map[string]string{
		"sets":   strconv.Itoa(2 + r.IntN(4)),
		"reps":   strconv.Itoa(5 + r.IntN(11)),
		"weight": strconv.Itoa(10 * r.IntN(12)),
	}
}

// pick returns up to n distinct elements of xs.
func pick[T any](r *rand.Rand, xs []T, n int) []T {
	if n > len(xs) {
		n = len(xs)
	}
	out := make([]T, 0, n)
	for _, i := range r.Perm(len(xs))[:n] {
		out = append(out, xs[i])
	}
	return out
}
