// Package memory is a map-backed RepositoryManager. Every repository it
// vends shares one Store regardless of the DBTX it is bound to, so it suits
// tests and local experiments, not concurrent production use.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/clients"
	"github.com/legalize/backoffice/internal/server/repositories/documents"
	"github.com/legalize/backoffice/internal/server/repositories/inpolaccounts"
	"github.com/legalize/backoffice/internal/server/repositories/payments"
	"github.com/legalize/backoffice/internal/server/repositories/reminders"
	"github.com/legalize/backoffice/internal/server/repositories/requirements"
	"github.com/legalize/backoffice/internal/server/repositories/snapshots"
	"github.com/legalize/backoffice/internal/server/repositories/users"

	_ "modernc.org/sqlite"
)

// Store holds all rows.
type Store struct {
	mu sync.Mutex

	seq int64
	now func() time.Time

	Users         map[int64]*models.User
	Clients       map[int64]*models.Client
	Documents     map[int64]*models.Document
	Requirements  map[int64]*models.DocumentRequirement
	Payments      map[int64]*models.Payment
	Reminders     map[int64]*models.Reminder
	Snapshots     map[string]models.Proceeding
	InpolAccounts map[int64]*models.InpolAccount
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		Users:         map[int64]*models.User{},
		Clients:       map[int64]*models.Client{},
		Documents:     map[int64]*models.Document{},
		Requirements:  map[int64]*models.DocumentRequirement{},
		Payments:      map[int64]*models.Payment{},
		Reminders:     map[int64]*models.Reminder{},
		Snapshots:     map[string]models.Proceeding{},
		InpolAccounts: map[int64]*models.InpolAccount{},
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

type InMemoryRepositoryManager struct {
	store *Store
}

func NewInMemoryRepositoryManager(store *Store) *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: store}
}

func (m *InMemoryRepositoryManager) Store() *Store { return m.store }

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return userRepo{m.store} }

func (m *InMemoryRepositoryManager) Clients(dbx.DBTX) clients.Repository { return clientRepo{m.store} }

func (m *InMemoryRepositoryManager) Documents(dbx.DBTX) documents.Repository {
	return documentRepo{m.store}
}

func (m *InMemoryRepositoryManager) Requirements(dbx.DBTX) requirements.Repository {
	return requirementRepo{m.store}
}

func (m *InMemoryRepositoryManager) Payments(dbx.DBTX) payments.Repository {
	return paymentRepo{m.store}
}

func (m *InMemoryRepositoryManager) Reminders(dbx.DBTX) reminders.Repository {
	return reminderRepo{m.store}
}

func (m *InMemoryRepositoryManager) Snapshots(dbx.DBTX) snapshots.Repository {
	return snapshotRepo{m.store}
}

func (m *InMemoryRepositoryManager) InpolAccounts(dbx.DBTX) inpolaccounts.Repository {
	return inpolAccountRepo{m.store}
}

// SetClock overrides the timestamp source used for created/updated columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// OpenTxDB opens an empty in-memory SQLite database. Services still need a
// *sql.DB to begin and commit transactions; the rows themselves live in the
// Store.
func OpenTxDB(name string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
