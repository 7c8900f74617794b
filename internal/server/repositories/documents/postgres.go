package documents

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

const columns = `id, client_id, document_type, file, expiry_date, uploaded_at, verified, awaiting_confirmation`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO document (client_id, document_type, file, expiry_date, verified, awaiting_confirmation)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, uploaded_at`

	err := r.db.QueryRowContext(ctx, query,
		d.ClientID, d.DocumentType, d.File, dbx.NullTime(d.ExpiryDate), d.Verified, d.AwaitingConfirmation,
	).Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM document WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Update(ctx context.Context, d *models.Document) error {
	query :=
		`UPDATE document SET document_type = $2, file = $3, expiry_date = $4, verified = $5,
			awaiting_confirmation = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		d.ID, d.DocumentType, d.File, dbx.NullTime(d.ExpiryDate), d.Verified, d.AwaitingConfirmation)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM document WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID int64) ([]*models.Document, error) {
	return r.query(ctx, `SELECT `+columns+` FROM document WHERE client_id = $1 ORDER BY uploaded_at, id`, clientID)
}

func (r *PostgresRepository) ListExpiringWithoutReminder(ctx context.Context, from, to time.Time) ([]*models.Document, error) {
	query := `SELECT d.id, d.client_id, d.document_type, d.file, d.expiry_date, d.uploaded_at, d.verified,
			d.awaiting_confirmation
		FROM document d
		LEFT JOIN reminder r ON r.document_id = d.id
		WHERE d.expiry_date BETWEEN $1 AND $2 AND r.id IS NULL
		ORDER BY d.expiry_date, d.id`
	return r.query(ctx, query, from, to)
}

func (r *PostgresRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Document, error) {
	query := `SELECT ` + columns + ` FROM document
		WHERE expiry_date BETWEEN $1 AND $2
		ORDER BY client_id, expiry_date, id`
	return r.query(ctx, query, from, to)
}

// ListExpiredByClient returns the client's documents whose expiry_date is on
// or before day.
func (r *PostgresRepository) ListExpiredByClient(ctx context.Context, clientID int64, day time.Time) ([]*models.Document, error) {
	query := `SELECT ` + columns + ` FROM document
		WHERE client_id = $1 AND expiry_date IS NOT NULL AND expiry_date <= $2
		ORDER BY expiry_date, id`
	return r.query(ctx, query, clientID, day)
}

func (r *PostgresRepository) SetVerifiedForClient(ctx context.Context, clientID int64, verified bool) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE document SET verified = $2 WHERE client_id = $1 AND verified <> $2`, clientID, verified)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Document, error) {
	var (
		d      models.Document
		expiry sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.ClientID, &d.DocumentType, &d.File, &expiry, &d.UploadedAt,
		&d.Verified, &d.AwaitingConfirmation); err != nil {
		return nil, err
	}
	d.ExpiryDate = dbx.TimePtr(expiry)
	return &d, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
