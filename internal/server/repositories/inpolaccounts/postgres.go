package inpolaccounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Active(ctx context.Context) (*models.InpolAccount, error) {
	query :=
		`SELECT id, name, base_url, email, password, is_active, updated_at
		 FROM inpol_account
		 WHERE is_active
		 ORDER BY updated_at DESC, id DESC
		 LIMIT 1`

	a := &models.InpolAccount{}
	err := r.db.QueryRowContext(ctx, query).
		Scan(&a.ID, &a.Name, &a.BaseURL, &a.Email, &a.Password, &a.IsActive, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.InpolAccount) (*models.InpolAccount, error) {
	query :=
		`INSERT INTO inpol_account (name, base_url, email, password, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, updated_at`

	err := r.db.QueryRowContext(ctx, query, a.Name, a.BaseURL, a.Email, a.Password, a.IsActive).
		Scan(&a.ID, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
