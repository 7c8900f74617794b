// Package clients persists client records. Passport and case numbers are
// encrypted on the way in and decrypted on the way out; the case-number hash
// is recomputed on every write.
package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
)

const columns = `id, user_id, first_name, last_name, citizenship, birth_date, phone, email,
		passport_num, case_number, case_number_hash, application_purpose, basis_of_stay,
		language, status, created_at, legal_basis_end_date, submission_date, employer_phone,
		fingerprints_date, fingerprints_time, fingerprints_location, decision_date, notes,
		has_checklist_access, inpol_status, inpol_updated_at`

type PostgresRepository struct {
	db      dbx.DBTX
	keyring *cryptox.Keyring
}

func NewPostgresRepository(db dbx.DBTX, keyring *cryptox.Keyring) *PostgresRepository {
	return &PostgresRepository{db: db, keyring: keyring}
}

func (r *PostgresRepository) sealed(c *models.Client) (passport, caseNumber sql.NullString, err error) {
	p, err := r.keyring.Seal(c.PassportNum)
	if err != nil {
		return passport, caseNumber, fmt.Errorf("encrypt passport: %w", err)
	}
	cn, err := r.keyring.Seal(c.CaseNumber)
	if err != nil {
		return passport, caseNumber, fmt.Errorf("encrypt case number: %w", err)
	}
	return dbx.NullString(p), dbx.NullString(cn), nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	c.ApplyDefaults()
	c.RefreshCaseNumberHash()
	passport, caseNumber, err := r.sealed(c)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO client (user_id, first_name, last_name, citizenship, birth_date, phone, email,
			passport_num, case_number, case_number_hash, application_purpose, basis_of_stay,
			language, status, legal_basis_end_date, submission_date, employer_phone,
			fingerprints_date, fingerprints_time, fingerprints_location, decision_date, notes,
			has_checklist_access, inpol_status, inpol_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		dbx.NullInt64(c.UserID), c.FirstName, c.LastName, c.Citizenship, dbx.NullTime(c.BirthDate),
		c.Phone, c.Email, passport, caseNumber, c.CaseNumberHash, c.ApplicationPurpose,
		dbx.NullString(c.BasisOfStay), c.Language, string(c.Status), dbx.NullTime(c.LegalBasisEndDate),
		dbx.NullTime(c.SubmissionDate), dbx.NullString(c.EmployerPhone), dbx.NullTime(c.FingerprintsDate),
		dbx.NullString(c.FingerprintsTime), dbx.NullString(c.FingerprintsLocation), dbx.NullTime(c.DecisionDate),
		dbx.NullString(c.Notes), c.HasChecklistAccess, dbx.NullString(c.InpolStatus), dbx.NullTime(c.InpolUpdatedAt),
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Client) error {
	c.RefreshCaseNumberHash()
	passport, caseNumber, err := r.sealed(c)
	if err != nil {
		return err
	}

	query := `UPDATE client SET user_id = $2, first_name = $3, last_name = $4, citizenship = $5,
			birth_date = $6, phone = $7, email = $8, passport_num = $9, case_number = $10,
			case_number_hash = $11, application_purpose = $12, basis_of_stay = $13, language = $14,
			status = $15, legal_basis_end_date = $16, submission_date = $17, employer_phone = $18,
			fingerprints_date = $19, fingerprints_time = $20, fingerprints_location = $21,
			decision_date = $22, notes = $23, has_checklist_access = $24, inpol_status = $25,
			inpol_updated_at = $26
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, c.ID,
		dbx.NullInt64(c.UserID), c.FirstName, c.LastName, c.Citizenship, dbx.NullTime(c.BirthDate),
		c.Phone, c.Email, passport, caseNumber, c.CaseNumberHash, c.ApplicationPurpose,
		dbx.NullString(c.BasisOfStay), c.Language, string(c.Status), dbx.NullTime(c.LegalBasisEndDate),
		dbx.NullTime(c.SubmissionDate), dbx.NullString(c.EmployerPhone), dbx.NullTime(c.FingerprintsDate),
		dbx.NullString(c.FingerprintsTime), dbx.NullString(c.FingerprintsLocation), dbx.NullTime(c.DecisionDate),
		dbx.NullString(c.Notes), c.HasChecklistAccess, dbx.NullString(c.InpolStatus), dbx.NullTime(c.InpolUpdatedAt),
	)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
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

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + columns + ` FROM client WHERE id = $1`

	c, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM client WHERE id = $1`, id)
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

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Client, error) {
	return r.query(ctx, `SELECT `+columns+` FROM client ORDER BY id`)
}

// FindByCaseNumber matches on the normalized case-number hash.
func (r *PostgresRepository) FindByCaseNumber(ctx context.Context, caseNumber string) ([]*models.Client, error) {
	h := models.HashCaseNumber(caseNumber)
	if h == nil {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+columns+` FROM client WHERE case_number_hash = $1 ORDER BY id`, *h)
}

// FindByEmail matches case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) ([]*models.Client, error) {
	if email == "" {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+columns+` FROM client WHERE lower(email) = lower($1) ORDER BY id`, email)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Client, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Client
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row scanner) (*models.Client, error) {
	var (
		c                                        models.Client
		status                                   string
		userID                                   sql.NullInt64
		birth, legalEnd, submission, fpDate      sql.NullTime
		decision, inpolAt                        sql.NullTime
		passport, caseNumber, hash, basis        sql.NullString
		employer, fpTime, fpLoc, notes, inpolSts sql.NullString
	)
	err := row.Scan(&c.ID, &userID, &c.FirstName, &c.LastName, &c.Citizenship, &birth, &c.Phone, &c.Email,
		&passport, &caseNumber, &hash, &c.ApplicationPurpose, &basis,
		&c.Language, &status, &c.CreatedAt, &legalEnd, &submission, &employer,
		&fpDate, &fpTime, &fpLoc, &decision, &notes,
		&c.HasChecklistAccess, &inpolSts, &inpolAt)
	if err != nil {
		return nil, err
	}

	c.UserID = dbx.Int64Ptr(userID)
	c.BirthDate = dbx.TimePtr(birth)
	c.PassportNum = r.keyring.Open(passport.String)
	c.CaseNumber = r.keyring.Open(caseNumber.String)
	c.CaseNumberHash = dbx.StringPtr(hash)
	c.BasisOfStay = basis.String
	c.Status = models.ClientStatus(status)
	c.LegalBasisEndDate = dbx.TimePtr(legalEnd)
	c.SubmissionDate = dbx.TimePtr(submission)
	c.EmployerPhone = employer.String
	c.FingerprintsDate = dbx.TimePtr(fpDate)
	c.FingerprintsTime = fpTime.String
	c.FingerprintsLocation = fpLoc.String
	c.DecisionDate = dbx.TimePtr(decision)
	c.Notes = notes.String
	c.InpolStatus = inpolSts.String
	c.InpolUpdatedAt = dbx.TimePtr(inpolAt)
	return &c, nil
}
