// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/migrations"
	"github.com/legalize/backoffice/internal/server/repositories/clients"
	"github.com/legalize/backoffice/internal/server/repositories/documents"
	"github.com/legalize/backoffice/internal/server/repositories/inpolaccounts"
	"github.com/legalize/backoffice/internal/server/repositories/payments"
	"github.com/legalize/backoffice/internal/server/repositories/reminders"
	"github.com/legalize/backoffice/internal/server/repositories/requirements"
	"github.com/legalize/backoffice/internal/server/repositories/snapshots"
	"github.com/legalize/backoffice/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to a
// DBTX, so the same constructors serve plain connections and transactions.
type PostgresRepositoryManager struct {
	keyring *cryptox.Keyring
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Clients encrypts and decrypts sensitive columns with the manager's keyring.
func (m *PostgresRepositoryManager) Clients(db dbx.DBTX) clients.Repository {
	return clients.NewPostgresRepository(db, m.keyring)
}

func (m *PostgresRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Requirements(db dbx.DBTX) requirements.Repository {
	return requirements.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Payments(db dbx.DBTX) payments.Repository {
	return payments.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Reminders(db dbx.DBTX) reminders.Repository {
	return reminders.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Snapshots(db dbx.DBTX) snapshots.Repository {
	return snapshots.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) InpolAccounts(db dbx.DBTX) inpolaccounts.Repository {
	return inpolaccounts.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func NewPostgresRepositoryManager(keyring *cryptox.Keyring) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{keyring: keyring}
}
