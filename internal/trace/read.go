package trace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/vellum/internal/serial"
)

// Row is one recorded event with its insertion order.
type Row struct {
	ID     int64
	Kind   serial.EventKind
	Node   string
	Serial serial.Serial
	Detail string
}

// Events returns all recorded events in insertion order.
func (r *Recorder) Events(ctx context.Context) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, node, serial, detail
		FROM events
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// NodeEvents returns the events recorded for one node, in insertion order.
func (r *Recorder) NodeEvents(ctx context.Context, node string) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, node, serial, detail
		FROM events
		WHERE node = ?
		ORDER BY id
	`, node)
	if err != nil {
		return nil, fmt.Errorf("query node events: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Count returns the total number of recorded events.
func (r *Recorder) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var row Row
		var kind string
		var s int64
		if err := rows.Scan(&row.ID, &kind, &row.Node, &s, &row.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		row.Kind = serial.EventKind(kind)
		row.Serial = serial.Serial(s)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
