// Package audit is an append-only log of lifecycle events, kept in a local SQL
// database separate from the primary stores so it survives fallback-mode windows.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

const (
	AttemptStarted      = "AttemptStarted"
	AttemptExpired      = "AttemptExpired"
	AttemptCompleted    = "AttemptCompleted"
	SubmissionCreated   = "SubmissionCreated"
	SubmissionEvaluated = "SubmissionEvaluated"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens the audit DB and ensures its schema.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "file:assesshub_audit.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/assesshub?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS audit_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS audit_log (
  id BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`

// Recorder appends events. A nil Recorder is a no-op, and append failures are
// logged, not propagated: audit must never fail a write path that already
// succeeded against the primary store.
type Recorder struct {
	db  *sql.DB
	ins string
}

func NewRecorder(db *sql.DB, driver Driver) *Recorder {
	if db == nil {
		return nil
	}
	// sqlite binds ?-style ordinals, pgx wants $N
	ins := `INSERT INTO audit_log (typ, key, actor, data, created_at) VALUES (?,?,?,?,?)`
	if driver == DriverPostgres {
		ins = `INSERT INTO audit_log (typ, key, actor, data, created_at) VALUES ($1,$2,$3,$4,$5)`
	}
	return &Recorder{db: db, ins: ins}
}

func (r *Recorder) Append(ctx context.Context, typ, key, actor string, data any) {
	if r == nil || r.db == nil {
		return
	}
	buf, err := json.Marshal(data)
	if err != nil {
		buf = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, r.ins,
		typ, key, actor, string(buf), time.Now().Unix())
	if err != nil {
		log.Printf("audit: append %s %s: %v", typ, key, err)
	}
}
