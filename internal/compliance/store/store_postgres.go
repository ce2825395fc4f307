package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rbi-platform/internal/compliance/models"
	"rbi-platform/pkg/apperrors"
)

// PostgresItemStore persists compliance items in the compliance_items table.
type PostgresItemStore struct {
	db *sql.DB
}

// NewPostgresItemStore creates a Postgres-backed item store.
func NewPostgresItemStore(db *sql.DB) *PostgresItemStore {
	return &PostgresItemStore{db: db}
}

const itemColumns = "id, circular_id, title, category, severity, status, owner, due_date, created_at, updated_at"

// Create inserts an item.
func (s *PostgresItemStore) Create(ctx context.Context, item models.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO compliance_items (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.CircularID, item.Title, item.Category,
		string(item.Severity), string(item.Status), item.Owner,
		item.DueDate, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to insert compliance item")
	}
	return nil
}

// FindByID returns an item by its id.
func (s *PostgresItemStore) FindByID(ctx context.Context, id string) (models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM compliance_items WHERE id = $1`, id)
	return scanItem(row)
}

// Update replaces a stored item.
func (s *PostgresItemStore) Update(ctx context.Context, item models.Item) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE compliance_items
		 SET circular_id = $2, title = $3, category = $4, severity = $5,
		     status = $6, owner = $7, due_date = $8, updated_at = $9
		 WHERE id = $1`,
		item.ID, item.CircularID, item.Title, item.Category,
		string(item.Severity), string(item.Status), item.Owner,
		item.DueDate, item.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to update compliance item")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to update compliance item")
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	return nil
}

// Delete removes an item.
func (s *PostgresItemStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM compliance_items WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to delete compliance item")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to delete compliance item")
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	return nil
}

// List returns items newest first, narrowed by the filter.
func (s *PostgresItemStore) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM compliance_items`
	var conditions []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list compliance items")
	}
	defer rows.Close()

	var out []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list compliance items")
	}
	return out, nil
}

// CountByStatus tallies items per status for the dashboard.
func (s *PostgresItemStore) CountByStatus(ctx context.Context) (map[models.ItemStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM compliance_items GROUP BY status`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to count compliance items")
	}
	defer rows.Close()

	out := make(map[models.ItemStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to count compliance items")
		}
		out[models.ItemStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to count compliance items")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	var severity, status string
	var dueDate sql.NullTime
	err := row.Scan(
		&item.ID, &item.CircularID, &item.Title, &item.Category,
		&severity, &status, &item.Owner, &dueDate,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	if err != nil {
		return models.Item{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan compliance item")
	}
	item.Severity = models.Severity(severity)
	item.Status = models.ItemStatus(status)
	if dueDate.Valid {
		item.DueDate = &dueDate.Time
	}
	return item, nil
}
