// Package history keeps a local sqlite record of the status transitions
// procwatch has observed, so past runs can be reviewed after the server has
// forgotten them.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/process"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Record is one observed status transition.
type Record struct {
	ID         int64
	ProcessID  process.ID
	Status     process.Status
	ObservedAt time.Time
}

// Store is the history database. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	log.Debug(log.CatHistory, "Opening database", "path", path)
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		log.ErrorErr(log.CatHistory, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.ErrorErr(log.CatHistory, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info(log.CatHistory, "History database ready", "path", path)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type migration struct {
	version int
	name    string
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	var out []migration
	for _, e := range entries {
		num, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: name must start with a version number", e.Name())
		}
		v, err := strconv.Atoi(num)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", e.Name(), err)
		}
		out = append(out, migration{version: v, name: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrate applies every migration newer than PRAGMA user_version, each in
// its own transaction together with the version bump.
func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	if n := len(migrations); n > 0 && current > migrations[n-1].version {
		return fmt.Errorf("history database schema version %d is newer than supported version %d", current, migrations[n-1].version)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		log.Info(log.CatHistory, "Applied migration", "name", m.name, "version", m.version)
	}
	return nil
}

// SchemaVersion returns PRAGMA user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Record stores status for id unless it equals the most recent status
// already stored for id. It reports whether a row was inserted.
func (s *Store) Record(ctx context.Context, id process.ID, status process.Status, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("recording transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM transitions WHERE process_id = ? ORDER BY id DESC LIMIT 1`,
		string(id),
	).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("recording transition: %w", err)
	case last == string(status):
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transitions (process_id, status, observed_at) VALUES (?, ?, ?)`,
		string(id), string(status), at.UnixNano(),
	); err != nil {
		return false, fmt.Errorf("recording transition: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("recording transition: %w", err)
	}

	log.Debug(log.CatHistory, "Recorded transition", "id", id, "from", last, "to", status)
	return true, nil
}

// List returns up to limit transitions for id, newest first. A limit of zero
// or less returns all of them.
func (s *Store) List(ctx context.Context, id process.ID, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, process_id, status, observed_at
		 FROM transitions
		 WHERE process_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		string(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return scanRecords(rows)
}

// Latest returns the most recent status stored for every process, newest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, process_id, status, observed_at
		 FROM latest_transitions
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing latest history: %w", err)
	}
	return scanRecords(rows)
}

// Forget deletes every transition for id and reports how many were removed.
func (s *Store) Forget(ctx context.Context, id process.ID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transitions WHERE process_id = ?`, string(id))
	if err != nil {
		return 0, fmt.Errorf("forgetting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("forgetting %s: %w", id, err)
	}
	log.Info(log.CatHistory, "Forgot process", "id", id, "rows", n)
	return n, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer func() { _ = rows.Close() }()

	records := []Record{}
	for rows.Next() {
		var (
			r      Record
			pid    string
			status string
			nanos  int64
		)
		if err := rows.Scan(&r.ID, &pid, &status, &nanos); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.ProcessID = process.ID(pid)
		r.Status = process.Status(status)
		r.ObservedAt = time.Unix(0, nanos).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return records, nil
}
