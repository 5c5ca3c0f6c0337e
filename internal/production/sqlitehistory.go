package production

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/comalice/ecsx/internal/core"
	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	key        TEXT NOT NULL,
	app_id     TEXT NOT NULL,
	state_type TEXT NOT NULL,
	stack      TEXT NOT NULL,
	frame      INTEGER NOT NULL,
	version    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_key_created ON snapshots (key, created_at);
`

// SQLiteHistory is a History backed by a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens (or creates) the history database at path.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// Close closes the underlying database.
func (h *SQLiteHistory) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

func (h *SQLiteHistory) Append(ctx context.Context, snapshot core.StateSnapshot) error {
	stack, err := json.Marshal(snapshot.Stack)
	if err != nil {
		return fmt.Errorf("marshal stack: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, key, app_id, state_type, stack, frame, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.Key(), snapshot.AppID, snapshot.StateType,
		string(stack), int64(snapshot.Frame), snapshot.Version, snapshot.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

const selectSnapshot = `SELECT id, app_id, state_type, stack, frame, version, created_at FROM snapshots`

func scanSnapshot(row *sql.Row) (core.StateSnapshot, error) {
	var (
		snap      core.StateSnapshot
		stackRaw  string
		frame     int64
		createdAt int64
	)
	if err := row.Scan(&snap.ID, &snap.AppID, &snap.StateType, &stackRaw, &frame, &snap.Version, &createdAt); err != nil {
		return core.StateSnapshot{}, err
	}
	var stack []any
	if err := json.Unmarshal([]byte(stackRaw), &stack); err != nil {
		return core.StateSnapshot{}, fmt.Errorf("unmarshal stack: %w", err)
	}
	snap.Stack = stack
	snap.Frame = uint64(frame)
	snap.Timestamp = time.Unix(0, createdAt).UTC()
	return snap, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (h *SQLiteHistory) Latest(ctx context.Context, key string) (core.StateSnapshot, error) {
	row := h.db.QueryRowContext(ctx,
		selectSnapshot+` WHERE key = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, key)
	snap, err := scanSnapshot(row)
	if err != nil {
		return core.StateSnapshot{}, notFound(err, fmt.Sprintf("key %q", key))
	}
	return snap, nil
}

func (h *SQLiteHistory) Version(ctx context.Context, key, version string) (core.StateSnapshot, error) {
	row := h.db.QueryRowContext(ctx,
		selectSnapshot+` WHERE key = ? AND version = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, key, version)
	snap, err := scanSnapshot(row)
	if err != nil {
		return core.StateSnapshot{}, notFound(err, fmt.Sprintf("key %q version %q", key, version))
	}
	return snap, nil
}

func (h *SQLiteHistory) ListVersions(ctx context.Context, key string) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT version FROM snapshots WHERE key = ? ORDER BY created_at DESC, rowid DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("key %q: %w", key, core.ErrNotFound)
	}
	return versions, nil
}

func (h *SQLiteHistory) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT key FROM snapshots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
