package inpol

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/legalize/backoffice/internal/timex"
)

// Updater writes proceeding changes onto the matching client records.
type Updater struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audit       audit.Recorder
	clock       timex.Clock
	log         logging.Logger
}

func NewUpdater(db *sql.DB, m repomanager.RepositoryManager, rec audit.Recorder, clock timex.Clock, log logging.Logger) *Updater {
	if clock == nil {
		clock = time.Now
	}
	return &Updater{db: db, repomanager: m, audit: rec, clock: clock, log: log.With("module", "inpol")}
}

// Applied is one client updated from one change.
type Applied struct {
	ClientID int64
	Change   models.ProceedingChange
}

// Apply updates every client matched by a change: by case number when the
// proceeding has one and a client carries it, otherwise by the login e-mail
// of the account.
func (u *Updater) Apply(ctx context.Context, changes []models.ProceedingChange, accountEmail string) ([]Applied, error) {
	return u.apply(ctx, changes, accountEmail, nil)
}

// ApplyToClient is Apply restricted to one client. It returns the changes
// that matched that client.
func (u *Updater) ApplyToClient(ctx context.Context, changes []models.ProceedingChange, accountEmail string, clientID int64) ([]Applied, error) {
	return u.apply(ctx, changes, accountEmail, &clientID)
}

func (u *Updater) apply(ctx context.Context, changes []models.ProceedingChange, accountEmail string, only *int64) ([]Applied, error) {
	var applied []Applied
	now := u.clock()
	err := dbx.WithTx(ctx, u.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		clients := u.repomanager.Clients(tx)
		for _, ch := range changes {
			targets, err := u.match(ctx, tx, ch.Proceeding, accountEmail)
			if err != nil {
				return err
			}
			for _, c := range targets {
				if only != nil && c.ID != *only {
					continue
				}
				c.InpolStatus = ch.Proceeding.Status
				c.InpolUpdatedAt = &now
				if c.CaseNumber.IsEmpty() && ch.Proceeding.CaseNumber != "" {
					c.CaseNumber = cryptox.NewSecret(ch.Proceeding.CaseNumber)
				}
				if err := clients.Update(ctx, c); err != nil {
					return fmt.Errorf("client %d: %w", c.ID, err)
				}
				applied = append(applied, Applied{ClientID: c.ID, Change: ch})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, a := range applied {
		u.audit.Record(ctx, audit.System("inpol"), audit.Event{
			Action:   "inpol_status",
			Entity:   "client",
			EntityID: a.ClientID,
			Changes:  []string{FormatChange(a.Change)},
		})
	}
	return applied, nil
}

func (u *Updater) match(ctx context.Context, tx dbx.DBTX, p models.Proceeding, accountEmail string) ([]*models.Client, error) {
	clients := u.repomanager.Clients(tx)
	if strings.TrimSpace(p.CaseNumber) != "" {
		found, err := clients.FindByCaseNumber(ctx, p.CaseNumber)
		if err != nil || len(found) > 0 {
			return found, err
		}
	}
	if strings.TrimSpace(accountEmail) != "" {
		return clients.FindByEmail(ctx, accountEmail)
	}
	return nil, nil
}

// FormatChange renders a change as "case-or-id: previous -> current".
func FormatChange(ch models.ProceedingChange) string {
	prev := "(new)"
	if ch.PreviousStatus != nil {
		prev = *ch.PreviousStatus
	}
	curr := ch.Proceeding.Status
	if curr == "" {
		curr = "(empty)"
	}
	label := ch.Proceeding.CaseNumber
	if label == "" {
		label = ch.Proceeding.ID
	}
	return fmt.Sprintf("%s: %s -> %s", label, prev, curr)
}
