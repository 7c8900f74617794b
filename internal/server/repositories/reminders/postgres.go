// Package reminders stores reminders. The schema keeps at most one row per
// payment and per document; writes rely on ON CONFLICT instead of
// check-then-insert so concurrent sweeps stay idempotent.
package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
)

const columns = `id, client_id, payment_id, document_id, type, title, notes, due_date, is_active, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateForDocument(ctx context.Context, rem *models.Reminder) (bool, error) {
	return r.insertOnce(ctx, "document_id", rem)
}

func (r *PostgresRepository) CreateForPayment(ctx context.Context, rem *models.Reminder) (bool, error) {
	return r.insertOnce(ctx, "payment_id", rem)
}

func (r *PostgresRepository) insertOnce(ctx context.Context, conflictColumn string, rem *models.Reminder) (bool, error) {
	query := `INSERT INTO reminder (client_id, payment_id, document_id, type, title, notes, due_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (` + conflictColumn + `) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		rem.ClientID, dbx.NullInt64(rem.PaymentID), dbx.NullInt64(rem.DocumentID), string(rem.Type),
		rem.Title, dbx.NullString(rem.Notes), rem.DueDate, rem.IsActive,
	).Scan(&rem.ID, &rem.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case dbx.IsUniqueViolation(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

// UpsertForPayment creates the payment's reminder or refreshes its title,
// notes, due date and active flag.
func (r *PostgresRepository) UpsertForPayment(ctx context.Context, rem *models.Reminder) (*models.Reminder, error) {
	if rem.PaymentID == nil {
		return nil, fmt.Errorf("upsert payment reminder: %w", common.ErrorValidation)
	}
	query := `INSERT INTO reminder (client_id, payment_id, type, title, notes, due_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (payment_id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			notes = EXCLUDED.notes,
			due_date = EXCLUDED.due_date,
			is_active = EXCLUDED.is_active
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		rem.ClientID, *rem.PaymentID, string(rem.Type), rem.Title, dbx.NullString(rem.Notes), rem.DueDate, rem.IsActive,
	).Scan(&rem.ID, &rem.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rem, nil
}

func (r *PostgresRepository) DeleteForPayment(ctx context.Context, paymentID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminder WHERE payment_id = $1`, paymentID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) GetForPayment(ctx context.Context, paymentID int64) (*models.Reminder, error) {
	rem, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM reminder WHERE payment_id = $1`, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rem, nil
}

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID int64) ([]*models.Reminder, error) {
	return r.query(ctx, `SELECT `+columns+` FROM reminder WHERE client_id = $1 ORDER BY due_date, id`, clientID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Reminder
	for rows.Next() {
		rem, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListActive returns active reminders ordered by due date.
func (r *PostgresRepository) ListActive(ctx context.Context, f Filter) ([]*models.Reminder, error) {
	where := []string{"is_active"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.ClientID != 0 {
		add("client_id = $%d", f.ClientID)
	}
	if f.From != nil {
		add("due_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("due_date <= $%d", *f.To)
	}
	query := `SELECT ` + columns + ` FROM reminder WHERE ` + strings.Join(where, " AND ") + ` ORDER BY due_date, id`
	return r.query(ctx, query, args...)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	rem, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM reminder WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rem, nil
}

// Deactivate marks the reminder as done.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE reminder SET is_active = FALSE WHERE id = $1`, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM reminder WHERE id = $1`, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, id int64) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Reminder, error) {
	var (
		rem                   models.Reminder
		kind                  string
		paymentID, documentID sql.NullInt64
		notes                 sql.NullString
	)
	if err := row.Scan(&rem.ID, &rem.ClientID, &paymentID, &documentID, &kind, &rem.Title, &notes,
		&rem.DueDate, &rem.IsActive, &rem.CreatedAt); err != nil {
		return nil, err
	}
	rem.PaymentID = dbx.Int64Ptr(paymentID)
	rem.DocumentID = dbx.Int64Ptr(documentID)
	rem.Type = models.ReminderType(kind)
	rem.Notes = notes.String
	return &rem, nil
}
