// Package requirements stores the per-purpose document catalog overrides.
package requirements

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
)

const columns = `id, application_purpose, document_type, position, is_required,
		custom_name, custom_name_pl, custom_name_en, custom_name_ru`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByPurpose returns rows ordered by (position, id).
func (r *PostgresRepository) ListByPurpose(ctx context.Context, purpose string) ([]*models.DocumentRequirement, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM document_requirement WHERE application_purpose = $1 ORDER BY position, id`, purpose)
}

// Upsert inserts a requirement or replaces the one with the same
// (purpose, document type).
func (r *PostgresRepository) Upsert(ctx context.Context, req *models.DocumentRequirement) (*models.DocumentRequirement, error) {
	query :=
		`INSERT INTO document_requirement (application_purpose, document_type, position, is_required,
			custom_name, custom_name_pl, custom_name_en, custom_name_ru)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (application_purpose, document_type) DO UPDATE SET
			position = EXCLUDED.position,
			is_required = EXCLUDED.is_required,
			custom_name = EXCLUDED.custom_name,
			custom_name_pl = EXCLUDED.custom_name_pl,
			custom_name_en = EXCLUDED.custom_name_en,
			custom_name_ru = EXCLUDED.custom_name_ru
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		req.ApplicationPurpose, req.DocumentType, req.Position, req.IsRequired,
		dbx.NullString(req.CustomName), dbx.NullString(req.CustomNamePL),
		dbx.NullString(req.CustomNameEN), dbx.NullString(req.CustomNameRU),
	).Scan(&req.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) SetRequired(ctx context.Context, purpose, documentType string, required bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE document_requirement SET is_required = $3 WHERE application_purpose = $1 AND document_type = $2`,
		purpose, documentType, required)
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

// ListWithCustomName returns every row carrying a generic custom name.
func (r *PostgresRepository) ListWithCustomName(ctx context.Context) ([]*models.DocumentRequirement, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM document_requirement WHERE custom_name IS NOT NULL AND custom_name <> '' ORDER BY id`)
}

func (r *PostgresRepository) ClearCustomName(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE document_requirement SET custom_name = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.DocumentRequirement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.DocumentRequirement
	for rows.Next() {
		var (
			req                models.DocumentRequirement
			custom, pl, en, ru sql.NullString
		)
		if err := rows.Scan(&req.ID, &req.ApplicationPurpose, &req.DocumentType, &req.Position, &req.IsRequired,
			&custom, &pl, &en, &ru); err != nil {
			return nil, err
		}
		req.CustomName, req.CustomNamePL, req.CustomNameEN, req.CustomNameRU = custom.String, pl.String, en.String, ru.String
		result = append(result, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
