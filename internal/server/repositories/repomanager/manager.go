package repomanager

import (
	"context"
	"database/sql"

	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/repositories/clients"
	"github.com/legalize/backoffice/internal/server/repositories/documents"
	"github.com/legalize/backoffice/internal/server/repositories/inpolaccounts"
	"github.com/legalize/backoffice/internal/server/repositories/payments"
	"github.com/legalize/backoffice/internal/server/repositories/reminders"
	"github.com/legalize/backoffice/internal/server/repositories/requirements"
	"github.com/legalize/backoffice/internal/server/repositories/snapshots"
	"github.com/legalize/backoffice/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Clients(db dbx.DBTX) clients.Repository
	Documents(db dbx.DBTX) documents.Repository
	Requirements(db dbx.DBTX) requirements.Repository
	Payments(db dbx.DBTX) payments.Repository
	Reminders(db dbx.DBTX) reminders.Repository
	Snapshots(db dbx.DBTX) snapshots.Repository
	InpolAccounts(db dbx.DBTX) inpolaccounts.Repository
}
