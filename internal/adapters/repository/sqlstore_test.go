package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/coach/internal/domain/model"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coach.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestSQLStore_Players(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	players := []model.Player{
		{ID: "p1", FirstName: "Zoe", LastName: "Baker", BirthYear: 2008},
		{ID: "p2", FirstName: "Adam", LastName: "Baker", BirthYear: 2009},
		{ID: "p3", FirstName: "Carl", LastName: "Adams", BirthYear: 2007},
	}
	for _, p := range players {
		if err := s.InsertPlayer(ctx, p); err != nil {
			t.Fatalf("insert %s: %v", p.ID, err)
		}
	}

	got, err := s.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"p3", "p2", "p1"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// insert with an existing id replaces the row
	if err := s.InsertPlayer(ctx, model.Player{ID: "p1", FirstName: "Zoe", LastName: "Archer", BirthYear: 2008}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	p, err := s.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.LastName != "Archer" {
		t.Errorf("expected replaced last name, got %q", p.LastName)
	}
	if n, _ := s.CountPlayers(ctx); n != 3 {
		t.Errorf("expected 3 players, got %d", n)
	}

	p.BirthYear = 2010
	p.Avatar = "p1"
	if err := s.UpdatePlayer(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	p2, _ := s.GetPlayer(ctx, "p1")
	if diff := cmp.Diff(p, p2); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}

	if err := s.UpdatePlayer(ctx, model.Player{ID: "ghost", FirstName: "a", LastName: "b"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating unknown player, got %v", err)
	}
	if _, err := s.GetPlayer(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeletePlayer(ctx, "p2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := s.CountPlayers(ctx); n != 2 {
		t.Errorf("expected 2 players after delete, got %d", n)
	}
}

func TestSQLStore_Exercises(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	squat, err := s.InsertExercise(ctx, "Squat")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if squat.ID == 0 || squat.Name != "Squat" {
		t.Fatalf("unexpected exercise %+v", squat)
	}

	again, err := s.InsertExercise(ctx, "Squat")
	if err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}
	if again != squat {
		t.Errorf("duplicate insert should return stored row %+v, got %+v", squat, again)
	}

	if _, err := s.InsertExercise(ctx, "Bench"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	list, err := s.ListExercises(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Bench" || list[1].Name != "Squat" {
		t.Errorf("expected [Bench Squat], got %+v", list)
	}

	if _, err := s.GetExerciseByName(ctx, "Deadlift"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLStore_PlansAndEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_ = s.InsertPlayer(ctx, model.Player{ID: "p1", FirstName: "A", LastName: "One", BirthYear: 2000})
	_ = s.InsertPlayer(ctx, model.Player{ID: "p2", FirstName: "B", LastName: "Two", BirthYear: 2001})
	squat, _ := s.InsertExercise(ctx, "Squat")

	older := model.TrainingPlan{Name: "Sunday", Date: time.UnixMilli(1_000).UTC()}
	newer := model.TrainingPlan{Name: "Monday", Description: strPtr("legs"), Date: time.UnixMilli(2_000).UTC()}

	olderID, err := s.InsertPlan(ctx, older)
	if err != nil {
		t.Fatalf("insert plan: %v", err)
	}
	entries := []model.PlanEntry{
		{PlayerID: "p1", ExerciseID: squat.ID, Sets: "3", Reps: "10", Weight: "60", Column: 0, Seq: 0},
		{PlayerID: "p2", ExerciseID: squat.ID, Sets: "4", Reps: "8", Weight: "70", Column: 1, Seq: 1},
	}
	newerID, err := s.SavePlan(ctx, newer, entries)
	if err != nil {
		t.Fatalf("save plan: %v", err)
	}

	plans, err := s.ListPlans(ctx)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 2 || plans[0].ID != newerID || plans[1].ID != olderID {
		t.Fatalf("expected newest first, got %+v", plans)
	}
	if plans[0].Description == nil || *plans[0].Description != "legs" {
		t.Errorf("description not round-tripped: %+v", plans[0].Description)
	}
	if plans[1].Description != nil {
		t.Errorf("expected nil description, got %q", *plans[1].Description)
	}
	if !plans[0].Date.Equal(newer.Date) {
		t.Errorf("date mismatch: %v != %v", plans[0].Date, newer.Date)
	}

	got, err := s.ListEntries(ctx, newerID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	want := []model.PlanEntry{
		{PlanID: newerID, PlayerID: "p1", ExerciseID: squat.ID, Sets: "3", Reps: "10", Weight: "60", Column: 0, Seq: 0},
		{PlanID: newerID, PlayerID: "p2", ExerciseID: squat.ID, Sets: "4", Reps: "8", Weight: "70", Column: 1, Seq: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	// saving again replaces the entry set wholesale
	saved := newer
	saved.ID = newerID
	saved.Name = "Monday legs"
	if _, err := s.SavePlan(ctx, saved, entries[:1]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = s.ListEntries(ctx, newerID)
	if len(got) != 1 || got[0].PlayerID != "p1" {
		t.Errorf("expected one entry after resave, got %+v", got)
	}
	p, _ := s.GetPlan(ctx, newerID)
	if p.Name != "Monday legs" {
		t.Errorf("expected renamed plan, got %q", p.Name)
	}

	if _, err := s.InsertPlan(ctx, model.TrainingPlan{Name: "Sunday", Date: time.Now()}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if err := s.UpdatePlan(ctx, model.TrainingPlan{ID: 999, Name: "x", Date: time.Now()}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetPlan(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLStore_SavePlanIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_ = s.InsertPlayer(ctx, model.Player{ID: "p1", FirstName: "A", LastName: "One", BirthYear: 2000})
	squat, _ := s.InsertExercise(ctx, "Squat")

	bad := []model.PlanEntry{
		{PlayerID: "p1", ExerciseID: squat.ID},
		{PlayerID: "missing", ExerciseID: squat.ID},
	}
	_, err := s.SavePlan(ctx, model.TrainingPlan{Name: "Broken", Date: time.Now()}, bad)
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if n, _ := s.CountPlans(ctx); n != 0 {
		t.Errorf("plan must not persist after failed save, got %d plans", n)
	}
}

func TestSQLStore_Cascade(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_ = s.InsertPlayer(ctx, model.Player{ID: "p1", FirstName: "A", LastName: "One", BirthYear: 2000})
	_ = s.InsertPlayer(ctx, model.Player{ID: "p2", FirstName: "B", LastName: "Two", BirthYear: 2001})
	squat, _ := s.InsertExercise(ctx, "Squat")

	var planIDs []int64
	for _, name := range []string{"Mon", "Tue"} {
		id, err := s.SavePlan(ctx, model.TrainingPlan{Name: name, Date: time.Now()}, []model.PlanEntry{
			{PlayerID: "p1", ExerciseID: squat.ID, Seq: 0},
			{PlayerID: "p2", ExerciseID: squat.ID, Column: 1, Seq: 1},
		})
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		planIDs = append(planIDs, id)
	}

	if err := s.DeletePlayer(ctx, "p1"); err != nil {
		t.Fatalf("delete player: %v", err)
	}
	for _, id := range planIDs {
		entries, err := s.ListEntries(ctx, id)
		if err != nil {
			t.Fatalf("list entries: %v", err)
		}
		for _, e := range entries {
			if e.PlayerID == "p1" {
				t.Errorf("plan %d still references deleted player", id)
			}
		}
		if len(entries) != 1 {
			t.Errorf("plan %d: expected 1 remaining entry, got %d", id, len(entries))
		}
	}

	if err := s.DeletePlan(ctx, planIDs[0]); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	entries, _ := s.ListEntries(ctx, planIDs[0])
	if len(entries) != 0 {
		t.Errorf("expected entries removed with plan, got %d", len(entries))
	}
}

func TestSQLStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coach.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.InsertExercise(ctx, "Lunge"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = s.Close()

	s, err = Open(ctx, path, WithDriver(DriverSQLite))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	if n, _ := s.CountExercises(ctx); n != 1 {
		t.Errorf("expected data to survive reopen, got %d exercises", n)
	}
}

func TestSQLStore_Closed(t *testing.T) {
	s := openTestStore(t)
	_ = s.Close()

	if _, err := s.ListPlayers(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "whatever", WithDriver("oracle"))
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}
