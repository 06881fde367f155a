package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "votilio/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL-backed audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var electionID any
	if event.ElectionID != uuid.Nil {
		electionID = event.ElectionID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, election_id, count, reason, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), string(event.Action), electionID, event.Count, event.Reason, event.Detail, event.RequestID, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, election_id, count, reason, detail, request_id, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		var action string
		var electionID uuid.NullUUID
		if err := rows.Scan(&action, &electionID, &e.Count, &e.Reason, &e.Detail, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		if electionID.Valid {
			e.ElectionID = electionID.UUID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
