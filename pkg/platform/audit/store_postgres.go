package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events
			(id, category, action, subject, user_id, actor_id, decision, reason, request_id, client_ip, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		event.Action,
		event.Subject,
		event.UserID,
		event.ActorID,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT category, action, subject, user_id, actor_id, decision, reason, request_id, client_ip, occurred_at
		FROM audit_events
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR action = $3)
		ORDER BY occurred_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, filter.UserID, string(filter.Category), filter.Action, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var category string
		if err := rows.Scan(&category, &e.Action, &e.Subject, &e.UserID, &e.ActorID,
			&e.Decision, &e.Reason, &e.RequestID, &e.ClientIP, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = EventCategory(category)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
