package repository

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported dialect names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schemaVersion = 1

// dialect captures what differs between the supported databases.
type dialect struct {
	name      string
	sqlDriver string
	schema    []string
	// numbered placeholders ($1, $2, ...) instead of "?"
	numbered bool
}

var sqliteDialect = dialect{
	name:      DriverSQLite,
	sqlDriver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			birth_year INTEGER NOT NULL,
			avatar TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS exercises (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS training_plans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			date_ms INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plan_entries (
			plan_id INTEGER NOT NULL REFERENCES training_plans(id) ON DELETE CASCADE,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			exercise_id INTEGER NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
			sets TEXT NOT NULL DEFAULT '',
			reps TEXT NOT NULL DEFAULT '',
			weight TEXT NOT NULL DEFAULT '',
			col INTEGER NOT NULL DEFAULT 0,
			seq INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (plan_id, player_id, exercise_id)
		)`,
		`CREATE INDEX IF NOT EXISTS plan_entries_player ON plan_entries(player_id)`,
		`CREATE INDEX IF NOT EXISTS plan_entries_exercise ON plan_entries(exercise_id)`,
	},
}

var postgresDialect = dialect{
	name:      DriverPostgres,
	sqlDriver: "pgx",
	numbered:  true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			birth_year INTEGER NOT NULL,
			avatar TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS exercises (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS training_plans (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			date_ms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plan_entries (
			plan_id BIGINT NOT NULL REFERENCES training_plans(id) ON DELETE CASCADE,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			exercise_id BIGINT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
			sets TEXT NOT NULL DEFAULT '',
			reps TEXT NOT NULL DEFAULT '',
			weight TEXT NOT NULL DEFAULT '',
			col INTEGER NOT NULL DEFAULT 0,
			seq INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (plan_id, player_id, exercise_id)
		)`,
		`CREATE INDEX IF NOT EXISTS plan_entries_player ON plan_entries(player_id)`,
		`CREATE INDEX IF NOT EXISTS plan_entries_exercise ON plan_entries(exercise_id)`,
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres, "pgx":
		return postgresDialect, nil
	default:
		return dialect{}, ErrUnknownDriver
	}
}

// rebind rewrites "?" placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// dsn adds the connection settings the store depends on.
func (d dialect) dsn(dsn string) string {
	if d.name != DriverSQLite || strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// translate maps driver constraint errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Join(ErrDuplicateName, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return errors.Join(ErrInvalidReference, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// extended codes disabled on this connection
			msg := se.Error()
			if strings.Contains(msg, "UNIQUE") {
				return errors.Join(ErrDuplicateName, err)
			}
			if strings.Contains(msg, "FOREIGN KEY") {
				return errors.Join(ErrInvalidReference, err)
			}
		}
		return err
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505":
			return errors.Join(ErrDuplicateName, err)
		case "23503":
			return errors.Join(ErrInvalidReference, err)
		}
	}
	return err
}
