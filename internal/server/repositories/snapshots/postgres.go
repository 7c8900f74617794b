package snapshots

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LoadAll(ctx context.Context) (map[string]models.Proceeding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT proceeding_id, case_number, status, raw_payload, updated_at FROM inpol_proceeding_snapshot`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make(map[string]models.Proceeding)
	for rows.Next() {
		var (
			p   models.Proceeding
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.CaseNumber, &p.Status, &raw, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p.Raw); err != nil {
				return nil, fmt.Errorf("snapshot %s: decode payload: %w", p.ID, err)
			}
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveSnapshot upserts every proceeding by id. Rows for proceedings absent
// from the batch are left untouched.
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, proceedings []models.Proceeding) error {
	query :=
		`INSERT INTO inpol_proceeding_snapshot (proceeding_id, case_number, status, raw_payload, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (proceeding_id) DO UPDATE SET
			case_number = EXCLUDED.case_number,
			status = EXCLUDED.status,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = EXCLUDED.updated_at`

	for _, p := range proceedings {
		raw := p.Raw
		if raw == nil {
			raw = map[string]any{}
		}
		payload, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("snapshot %s: encode payload: %w", p.ID, err)
		}
		if _, err := r.db.ExecContext(ctx, query, p.ID, p.CaseNumber, p.Status, string(payload)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}
