package repository

import (
	"errors"
	"testing"
)

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name  string
		d     dialect
		query string
		want  string
	}{
		{"sqlite untouched", sqliteDialect, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", postgresDialect, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres no params", postgresDialect, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.rebind(tt.query); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialect_DSN(t *testing.T) {
	if got := sqliteDialect.dsn("coach.db"); got != "coach.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Errorf("unexpected sqlite dsn %q", got)
	}
	if got := sqliteDialect.dsn("file:coach.db?mode=rwc"); got != "file:coach.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Errorf("unexpected sqlite dsn %q", got)
	}
	if got := sqliteDialect.dsn("coach.db?_pragma=foreign_keys(0)"); got != "coach.db?_pragma=foreign_keys(0)" {
		t.Errorf("explicit pragma should be kept, got %q", got)
	}
	pg := "postgres://localhost/coach?sslmode=disable"
	if got := postgresDialect.dsn(pg); got != pg {
		t.Errorf("postgres dsn should be untouched, got %q", got)
	}
}

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"sqlite", "postgres", "pgx"} {
		if _, err := dialectFor(name); err != nil {
			t.Errorf("dialectFor(%q): %v", name, err)
		}
	}
	if _, err := dialectFor("mysql"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestTranslate_PassThrough(t *testing.T) {
	if translate(nil) != nil {
		t.Error("nil should stay nil")
	}
	plain := errors.New("boom")
	if got := translate(plain); got != plain {
		t.Errorf("unrelated errors must pass through, got %v", got)
	}
}
