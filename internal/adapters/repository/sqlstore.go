package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
	"github.com/okian/coach/pkg/metrics"
)

// Compile-time contract assertion.
var _ Store = (*SQLStore)(nil)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db         *sql.DB
	d          dialect
	driverName string
	log        logger.Logger
	closed     atomic.Bool
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Open connects to the database named by dsn, creates the schema if needed
// and returns a ready store. The sqlite driver is used unless WithDriver says otherwise.
func Open(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		driverName: DriverSQLite,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	d, err := dialectFor(s.driverName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, s.driverName)
	}
	s.d = d

	db, err := sql.Open(d.sqlDriver, d.dsn(dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.log.Info(ctx, "store opened",
		logger.String("driver", d.name),
		logger.Int("schema_version", schemaVersion),
	)
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.d.rebind(`INSERT INTO schema_version(version) VALUES (?)`), schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	s.log.Debug(ctx, "schema migrated",
		logger.Int("from", current),
		logger.Int("to", schemaVersion),
	)
	return nil
}

// Driver returns the dialect name in use.
func (s *SQLStore) Driver() string { return s.d.name }

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// observe records latency and outcome of one store operation.
func (s *SQLStore) observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(op, float64(time.Since(start).Microseconds())/1000, *err)
}

func (s *SQLStore) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// ---- players ----

const playerColumns = `id, first_name, last_name, birth_year, avatar`

func scanPlayer(r rowScanner) (model.Player, error) {
	var p model.Player
	err := r.Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthYear, &p.Avatar)
	return p, err
}

func (s *SQLStore) ListPlayers(ctx context.Context) (out []model.Player, err error) {
	defer s.observe("list_players", time.Now(), &err)
	if err = s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetPlayer(ctx context.Context, id string) (p model.Player, err error) {
	defer s.observe("get_player", time.Now(), &err)
	if err = s.check(); err != nil {
		return p, err
	}
	p, err = scanPlayer(s.db.QueryRowContext(ctx, s.d.rebind(`SELECT `+playerColumns+` FROM players WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("select player: %w", err)
	}
	return p, nil
}

// InsertPlayer upserts in place so existing plan entries survive a replace.
func (s *SQLStore) InsertPlayer(ctx context.Context, p model.Player) (err error) {
	defer s.observe("insert_player", time.Now(), &err)
	if err = s.check(); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.d.rebind(`
		INSERT INTO players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			birth_year = excluded.birth_year,
			avatar = excluded.avatar`),
		p.ID, p.FirstName, p.LastName, p.BirthYear, p.Avatar)
	if err != nil {
		return fmt.Errorf("insert player: %w", translate(err))
	}
	return nil
}

func (s *SQLStore) UpdatePlayer(ctx context.Context, p model.Player) (err error) {
	defer s.observe("update_player", time.Now(), &err)
	if err = s.check(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.d.rebind(`
		UPDATE players SET first_name = ?, last_name = ?, birth_year = ?, avatar = ?
		WHERE id = ?`),
		p.FirstName, p.LastName, p.BirthYear, p.Avatar, p.ID)
	if err != nil {
		return fmt.Errorf("update player: %w", translate(err))
	}
	return requireAffected(res)
}

func (s *SQLStore) DeletePlayer(ctx context.Context, id string) (err error) {
	defer s.observe("delete_player", time.Now(), &err)
	if err = s.check(); err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM players WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

func (s *SQLStore) CountPlayers(ctx context.Context) (int, error) {
	return s.count(ctx, "count_players", "players")
}

// ---- exercises ----

func (s *SQLStore) ListExercises(ctx context.Context) (out []model.Exercise, err error) {
	defer s.observe("list_exercises", time.Now(), &err)
	if err = s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select exercises: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.Exercise{}
	for rows.Next() {
		var e model.Exercise
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetExerciseByName(ctx context.Context, name string) (e model.Exercise, err error) {
	defer s.observe("get_exercise", time.Now(), &err)
	if err = s.check(); err != nil {
		return e, err
	}
	return getExerciseByName(ctx, s.db, s.d, name)
}

func getExerciseByName(ctx context.Context, q querier, d dialect, name string) (model.Exercise, error) {
	var e model.Exercise
	err := q.QueryRowContext(ctx, d.rebind(`SELECT id, name FROM exercises WHERE name = ?`), name).Scan(&e.ID, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("select exercise: %w", err)
	}
	return e, nil
}

func (s *SQLStore) InsertExercise(ctx context.Context, name string) (e model.Exercise, err error) {
	defer s.observe("insert_exercise", time.Now(), &err)
	if err = s.check(); err != nil {
		return e, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return e, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, s.d.rebind(`INSERT INTO exercises (name) VALUES (?) ON CONFLICT (name) DO NOTHING`), name); err != nil {
		return e, fmt.Errorf("insert exercise: %w", translate(err))
	}
	if e, err = getExerciseByName(ctx, tx, s.d, name); err != nil {
		return e, err
	}
	if err = tx.Commit(); err != nil {
		return e, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

func (s *SQLStore) CountExercises(ctx context.Context) (int, error) {
	return s.count(ctx, "count_exercises", "exercises")
}

// ---- plans ----

const planColumns = `id, name, description, date_ms`

func scanPlan(r rowScanner) (model.TrainingPlan, error) {
	var (
		p    model.TrainingPlan
		desc sql.NullString
		ms   int64
	)
	if err := r.Scan(&p.ID, &p.Name, &desc, &ms); err != nil {
		return p, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	p.Date = time.UnixMilli(ms).UTC()
	return p, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (s *SQLStore) ListPlans(ctx context.Context) (out []model.TrainingPlan, err error) {
	defer s.observe("list_plans", time.Now(), &err)
	if err = s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+planColumns+` FROM training_plans ORDER BY date_ms DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.TrainingPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetPlan(ctx context.Context, id int64) (p model.TrainingPlan, err error) {
	defer s.observe("get_plan", time.Now(), &err)
	if err = s.check(); err != nil {
		return p, err
	}
	p, err = scanPlan(s.db.QueryRowContext(ctx, s.d.rebind(`SELECT `+planColumns+` FROM training_plans WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("select plan: %w", err)
	}
	return p, nil
}

func insertPlan(ctx context.Context, q querier, d dialect, p model.TrainingPlan) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, d.rebind(`
		INSERT INTO training_plans (name, description, date_ms) VALUES (?, ?, ?)
		RETURNING id`),
		p.Name, nullable(p.Description), p.Date.UnixMilli()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert plan: %w", translate(err))
	}
	return id, nil
}

func updatePlan(ctx context.Context, q querier, d dialect, p model.TrainingPlan) error {
	res, err := q.ExecContext(ctx, d.rebind(`
		UPDATE training_plans SET name = ?, description = ?, date_ms = ? WHERE id = ?`),
		p.Name, nullable(p.Description), p.Date.UnixMilli(), p.ID)
	if err != nil {
		return fmt.Errorf("update plan: %w", translate(err))
	}
	return requireAffected(res)
}

func (s *SQLStore) InsertPlan(ctx context.Context, p model.TrainingPlan) (id int64, err error) {
	defer s.observe("insert_plan", time.Now(), &err)
	if err = s.check(); err != nil {
		return 0, err
	}
	return insertPlan(ctx, s.db, s.d, p)
}

func (s *SQLStore) UpdatePlan(ctx context.Context, p model.TrainingPlan) (err error) {
	defer s.observe("update_plan", time.Now(), &err)
	if err = s.check(); err != nil {
		return err
	}
	return updatePlan(ctx, s.db, s.d, p)
}

func (s *SQLStore) DeletePlan(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_plan", time.Now(), &err)
	if err = s.check(); err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM training_plans WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

func (s *SQLStore) CountPlans(ctx context.Context) (int, error) {
	return s.count(ctx, "count_plans", "training_plans")
}

// ---- entries ----

func (s *SQLStore) ListEntries(ctx context.Context, planID int64) (out []model.PlanEntry, err error) {
	defer s.observe("list_entries", time.Now(), &err)
	if err = s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.d.rebind(`
		SELECT plan_id, player_id, exercise_id, sets, reps, weight, col, seq
		FROM plan_entries WHERE plan_id = ? ORDER BY seq, col`), planID)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.PlanEntry{}
	for rows.Next() {
		var e model.PlanEntry
		if err := rows.Scan(&e.PlanID, &e.PlayerID, &e.ExerciseID, &e.Sets, &e.Reps, &e.Weight, &e.Column, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// replaceEntries deletes the plan's entries and inserts the given ones.
// Later duplicates of a (player, exercise) pair overwrite earlier ones.
func replaceEntries(ctx context.Context, q querier, d dialect, planID int64, entries []model.PlanEntry) error {
	if _, err := q.ExecContext(ctx, d.rebind(`DELETE FROM plan_entries WHERE plan_id = ?`), planID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	stmt := d.rebind(`
		INSERT INTO plan_entries (plan_id, player_id, exercise_id, sets, reps, weight, col, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id, player_id, exercise_id) DO UPDATE SET
			sets = excluded.sets,
			reps = excluded.reps,
			weight = excluded.weight,
			col = excluded.col,
			seq = excluded.seq`)
	for _, e := range entries {
		if _, err := q.ExecContext(ctx, stmt, planID, e.PlayerID, e.ExerciseID, e.Sets, e.Reps, e.Weight, e.Column, e.Seq); err != nil {
			return fmt.Errorf("insert entry: %w", translate(err))
		}
	}
	return nil
}

func (s *SQLStore) ReplaceEntries(ctx context.Context, planID int64, entries []model.PlanEntry) (err error) {
	defer s.observe("replace_entries", time.Now(), &err)
	if err = s.check(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replaceEntries(ctx, tx, s.d, planID, entries)
	})
}

func (s *SQLStore) SavePlan(ctx context.Context, p model.TrainingPlan, entries []model.PlanEntry) (id int64, err error) {
	defer s.observe("save_plan", time.Now(), &err)
	if err = s.check(); err != nil {
		return 0, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if p.IsNew() {
			newID, err := insertPlan(ctx, tx, s.d, p)
			if err != nil {
				return err
			}
			id = newID
		} else {
			if err := updatePlan(ctx, tx, s.d, p); err != nil {
				return err
			}
			id = p.ID
		}
		return replaceEntries(ctx, tx, s.d, id, entries)
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordPlanSave(len(entries))
	return id, nil
}

// ---- helpers ----

func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) count(ctx context.Context, op, table string) (n int, err error) {
	defer s.observe(op, time.Now(), &err)
	if err = s.check(); err != nil {
		return 0, err
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
