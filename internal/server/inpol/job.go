package inpol

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
)

// CheckResult is the outcome of one check-and-update run.
type CheckResult struct {
	Changes []models.ProceedingChange
	Applied []Applied
}

// CheckAndUpdate runs the watcher and applies its changes to clients. The
// login e-mail is the fallback match for proceedings without a case number.
func CheckAndUpdate(ctx context.Context, w *Watcher, u *Updater, cr Credentials) (*CheckResult, error) {
	changes, err := w.Check(ctx, cr)
	if err != nil {
		return nil, err
	}
	applied, err := u.Apply(ctx, changes, cr.Email)
	if err != nil {
		return &CheckResult{Changes: changes}, fmt.Errorf("apply changes: %w", err)
	}
	return &CheckResult{Changes: changes, Applied: applied}, nil
}

// Job resolves the portal configuration on every run so account edits take
// effect without a restart.
type Job struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	updater     *Updater
	settings    Settings
	timeout     time.Duration
	log         logging.Logger
}

func NewJob(db *sql.DB, m repomanager.RepositoryManager, u *Updater, settings Settings, timeout time.Duration, log logging.Logger) *Job {
	return &Job{db: db, repomanager: m, updater: u, settings: settings, timeout: timeout, log: log.With("module", "inpol")}
}

func (j *Job) Run(ctx context.Context) (*CheckResult, error) {
	cfg, err := ResolveConfig(ctx, j.settings, j.repomanager.InpolAccounts(j.db))
	if err != nil {
		return nil, err
	}
	client, err := NewClient(cfg.BaseURL, WithTimeout(j.timeout))
	if err != nil {
		return nil, err
	}
	res, err := CheckAndUpdate(ctx, NewWatcher(client, j.db, j.repomanager, j.log), j.updater, cfg.Credentials)
	if err != nil {
		return res, err
	}
	for _, ch := range res.Changes {
		j.log.Info(ctx, "inpol change", "change", FormatChange(ch))
	}
	return res, nil
}

// WriteReport prints one line per change followed by a summary line.
func WriteReport(w io.Writer, res *CheckResult) {
	if len(res.Changes) == 0 {
		fmt.Fprintln(w, "No changes detected.")
		return
	}
	for _, ch := range res.Changes {
		fmt.Fprintln(w, FormatChange(ch))
	}
	fmt.Fprintf(w, "Applied %d change(s) to client records.\n", len(res.Applied))
}
