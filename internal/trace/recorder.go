package trace

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/vellum/internal/serial"
)

//go:embed schema.sql
var schemaSQL string

// Recorder writes serial events into a SQLite database.
// Uses WAL mode for concurrent read access while recording.
//
// Thread-safety: Record may be called concurrently; writes serialize on
// the single SQLite connection.
type Recorder struct {
	db *sql.DB

	mu      sync.Mutex
	lastErr error
}

// Open creates or opens a trace database at the given path. Use ":memory:"
// for a throwaway in-process trace.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (trace data is expendable)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call on an existing trace file.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to trace database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record implements serial.Sink. Recording is best-effort: the first
// failure is retained for Err and later events are still attempted.
func (r *Recorder) Record(ev serial.Event) {
	_, err := r.db.Exec(`
		INSERT INTO events (kind, node, serial, detail)
		VALUES (?, ?, ?, ?)
	`,
		string(ev.Kind),
		ev.Node,
		int64(ev.Serial),
		ev.Detail,
	)
	if err != nil {
		r.mu.Lock()
		if r.lastErr == nil {
			r.lastErr = fmt.Errorf("record event: %w", err)
		}
		r.mu.Unlock()
	}
}

// Err returns the first recording failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
