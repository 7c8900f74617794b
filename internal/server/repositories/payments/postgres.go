package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
)

const columns = `id, client_id, service_description, total_amount, amount_paid, status, payment_method,
		payment_date, due_date, transaction_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	query :=
		`INSERT INTO payment (client_id, service_description, total_amount, amount_paid, status,
			payment_method, payment_date, due_date, transaction_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ClientID, p.ServiceDescription, p.TotalAmount, p.AmountPaid, string(p.Status),
		dbx.NullString(p.PaymentMethod), dbx.NullTime(p.PaymentDate), dbx.NullTime(p.DueDate),
		dbx.NullString(p.TransactionID),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Payment) error {
	query :=
		`UPDATE payment SET service_description = $2, total_amount = $3, amount_paid = $4, status = $5,
			payment_method = $6, payment_date = $7, due_date = $8, transaction_id = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.ServiceDescription, p.TotalAmount, p.AmountPaid, string(p.Status),
		dbx.NullString(p.PaymentMethod), dbx.NullTime(p.PaymentDate), dbx.NullTime(p.DueDate),
		dbx.NullString(p.TransactionID),
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM payment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment WHERE id = $1`, id)
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

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID int64) ([]*models.Payment, error) {
	return r.query(ctx, `SELECT `+columns+` FROM payment WHERE client_id = $1 ORDER BY created_at DESC, id DESC`, clientID)
}

func (r *PostgresRepository) ListDueWithoutReminder(ctx context.Context, day time.Time) ([]*models.Payment, error) {
	query := `SELECT p.id, p.client_id, p.service_description, p.total_amount, p.amount_paid, p.status,
			p.payment_method, p.payment_date, p.due_date, p.transaction_id, p.created_at, p.updated_at
		FROM payment p
		LEFT JOIN reminder r ON r.payment_id = p.id
		WHERE p.status IN ('pending', 'partial') AND p.due_date = $1 AND r.id IS NULL
		ORDER BY p.id`
	return r.query(ctx, query, day)
}

// RemapService rewrites the service code on the client's payments that
// still carry from.
func (r *PostgresRepository) RemapService(ctx context.Context, clientID int64, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment SET service_description = $3, updated_at = now()
		 WHERE client_id = $1 AND service_description = $2 AND status = 'pending'`, clientID, from, to)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Payment
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Payment, error) {
	var (
		p             models.Payment
		status        string
		method, txID  sql.NullString
		paidOn, dueOn sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.ClientID, &p.ServiceDescription, &p.TotalAmount, &p.AmountPaid, &status,
		&method, &paidOn, &dueOn, &txID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	p.PaymentMethod = method.String
	p.PaymentDate = dbx.TimePtr(paidOn)
	p.DueDate = dbx.TimePtr(dueOn)
	p.TransactionID = txID.String
	return &p, nil
}
