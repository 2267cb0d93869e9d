package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rpggio/aoiforge/internal/domain/activity"
)

// ActivityRepository stores console events in the console_events table.
type ActivityRepository struct {
	db *DB
}

var _ activity.Repository = (*ActivityRepository)(nil)

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts entry and sets its ID.
func (r *ActivityRepository) Append(ctx context.Context, entry *activity.ActivityEntry) error {
	var details sql.NullString
	if entry.Details != "" {
		details = sql.NullString{String: entry.Details, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO console_events (session_id, kind, summary, details, at) VALUES (?, ?, ?, ?, ?)`,
		entry.SessionID, string(entry.ActivityType), entry.Summary, details, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting %s event: %w", entry.ActivityType, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Recent returns events matching q, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, q activity.Query) ([]activity.ActivityEntry, error) {
	var (
		where []string
		args  []any
	)
	if q.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if len(q.Types) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(q.Types)), ",")
		where = append(where, "kind IN ("+marks+")")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if !q.Since.IsZero() {
		where = append(where, "at >= ?")
		args = append(args, q.Since.UTC())
	}

	stmt := "SELECT id, session_id, kind, summary, details, at FROM console_events"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY at DESC, id DESC"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying console events: %w", err)
	}
	defer rows.Close()

	var out []activity.ActivityEntry
	for rows.Next() {
		var (
			e       activity.ActivityEntry
			kind    string
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Summary, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning console event: %w", err)
		}
		e.ActivityType = activity.ActivityType(kind)
		e.Details = details.String
		out = append(out, e)
	}
	return out, rows.Err()
}
