package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/yasuyuky/gh-chk/types"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS assignee_snapshots (
	owner       TEXT   NOT NULL,
	repo        TEXT   NOT NULL,
	number      BIGINT NOT NULL,
	assignees   TEXT   NOT NULL,
	observed_at BIGINT NOT NULL,
	PRIMARY KEY (owner, repo, number)
)`

const selectSnapshotSQL = `SELECT assignees, observed_at FROM assignee_snapshots
WHERE owner = ? AND repo = ? AND number = ?`

// The WHERE clause makes an older snapshot a no-op, reported as zero rows affected.
const upsertSnapshotSQL = `INSERT INTO assignee_snapshots (owner, repo, number, assignees, observed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (owner, repo, number) DO UPDATE
SET assignees = excluded.assignees, observed_at = excluded.observed_at
WHERE assignee_snapshots.observed_at <= excluded.observed_at`

// SQL stores snapshots in the assignee_snapshots table.
//
// Assignees are stored as a JSON array of logins and observed_at as Unix
// nanoseconds. Each Save is a single upsert statement, so writers for the
// same key are serialized by the database, including across processes.
type SQL struct {
	db     *sql.DB
	driver string
	owned  bool
	logger types.Logger
}

var _ types.SnapshotStore = (*SQL)(nil)

// OpenSQL opens a database and prepares the snapshot table.
//
// Parameters:
//   - ctx: Context for connection and migration
//   - driver: DriverSQLite or DriverPostgres
//   - dsn: Data source name (a file path for SQLite, a connection URL for PostgreSQL)
//   - opts: Optional configuration
//
// Returns:
//   - *SQL: Ready store owning the connection pool
//   - error: Non-nil when the database is unreachable or the migration fails
//
// Example:
//
//	st, err := store.OpenSQL(ctx, store.DriverSQLite, "/var/lib/gh-chk/snapshots.db")
//	if err != nil { /* handle */ }
//	defer st.Close()
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQL, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: sql driver %q", ErrUnsupportedScheme, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time; concurrent saves queue on the pool instead of
		// failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	st, err := NewSQL(ctx, db, driver, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	st.owned = true

	return st, nil
}

// NewSQL wraps an existing database handle and prepares the snapshot table.
// The caller keeps ownership of db; Close does not close it.
func NewSQL(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*SQL, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: sql driver %q", ErrUnsupportedScheme, driver)
	}

	o := applyOptions(opts)
	st := &SQL{db: db, driver: driver, logger: o.logger}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create assignee_snapshots table: %w", err)
	}

	return st, nil
}

// Load returns the snapshot of ref, or nil when absent or unreadable.
func (s *SQL) Load(ctx context.Context, ref types.ItemRef) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		assignees  string
		observedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(selectSnapshotSQL), ref.Owner, ref.Repo, ref.Number).
		Scan(&assignees, &observedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return treatAsAbsent(ctx, s.logger, "sql", ref, err)
	}

	var set types.LoginSet
	if err := json.Unmarshal([]byte(assignees), &set); err != nil {
		return treatAsAbsent(ctx, s.logger, "sql", ref, fmt.Errorf("decode assignees: %w", err))
	}

	snap := types.NewSnapshot(ref, types.AssignmentState{Current: set}, time.Unix(0, observedAt).UTC())
	if err := snap.Validate(); err != nil {
		return treatAsAbsent(ctx, s.logger, "sql", ref, err)
	}

	return &snap, nil
}

// Save upserts the snapshot of snap's item.
func (s *SQL) Save(ctx context.Context, snap types.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ref := snap.Ref()
	assignees, err := json.Marshal(snap.Assignees)
	if err != nil {
		return fmt.Errorf("encode assignees %s: %w", ref, err)
	}

	writeCtx, cancel := writeContext(ctx)
	defer cancel()

	res, err := s.db.ExecContext(writeCtx, s.rebind(upsertSnapshotSQL),
		ref.Owner, ref.Repo, ref.Number, string(assignees), snap.ObservedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", ref, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", ref, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrStaleSnapshot, ref)
	}
	s.logger.Debug("snapshot saved", "item", ref.String(), "driver", s.driver)

	return nil
}

// Close closes the connection pool when the store opened it.
func (s *SQL) Close() error {
	if !s.owned {
		return nil
	}

	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// sqliteDSN adds a busy timeout and WAL journaling unless the DSN sets pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
