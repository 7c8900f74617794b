package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/config"
	"github.com/legalize/backoffice/internal/server/filestore"
	"github.com/legalize/backoffice/internal/server/fx"
	"github.com/legalize/backoffice/internal/server/inpol"
	"github.com/legalize/backoffice/internal/server/intake"
	"github.com/legalize/backoffice/internal/server/metrics"
	"github.com/legalize/backoffice/internal/server/notify"
	"github.com/legalize/backoffice/internal/server/reminders"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/legalize/backoffice/internal/server/services"
	"github.com/legalize/backoffice/internal/server/shared/db"
	"github.com/legalize/backoffice/internal/server/summons"
	"github.com/shopspring/decimal"
)

// Components is the wired object graph shared by the daemon and the
// management commands.
type Components struct {
	Config       *config.Config
	Logger       logging.Logger
	DB           *sql.DB
	Repos        repomanager.RepositoryManager
	Files        filestore.Store
	Notifier     *notify.Notifier
	Audit        audit.Recorder
	Clients      *services.ClientService
	Documents    *services.DocumentService
	Payments     *services.PaymentService
	Requirements *services.RequirementService
	Intake       *intake.Service
	Reminders    *reminders.Scheduler
	InpolUpdate  *inpol.Updater
	InpolJob     *inpol.Job
	Rates        *fx.Provider

	closers []io.Closer
}

// NewLogger builds the configured logger writing to w.
func NewLogger(w io.Writer, c *config.Config) (logging.Logger, error) {
	return logging.New(w, c.LogOptions())
}

// Build opens the database and wires every service.
func Build(ctx context.Context, c *config.Config, logger logging.Logger) (*Components, error) {
	keyring, err := cryptox.NewKeyring(c.FernetKeys)
	if err != nil {
		return nil, fmt.Errorf("fernet keys: %w", err)
	}

	conn, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	comp := &Components{Config: c, Logger: logger, DB: conn, closers: []io.Closer{conn}}
	comp.Repos = repomanager.NewPostgresRepositoryManager(keyring)
	if err := comp.Repos.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	if c.S3Bucket != "" {
		s3, err := filestore.NewS3Store(ctx, filestore.S3Config{
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Endpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			_ = comp.Close()
			return nil, err
		}
		comp.Files = s3
	} else {
		logger.Warn(ctx, "no S3 bucket configured, documents are kept in memory")
		comp.Files = filestore.NewMemoryStore()
	}

	var sender notify.Sender
	if c.SMTPHost != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
			ReplyTo:  c.SMTPReplyTo,
		}, logger)
	} else {
		sender = notify.NewLogSender(logger)
	}
	comp.Notifier, err = notify.NewNotifier(sender, logger, time.Now)
	if err != nil {
		_ = comp.Close()
		return nil, err
	}
	comp.Audit = audit.NewLogRecorder(logger)

	comp.Reminders = reminders.NewScheduler(conn, comp.Repos, comp.Notifier, comp.Audit, time.Now, logger)
	comp.Clients = services.NewClientService(conn, comp.Repos, comp.Files, comp.Notifier, comp.Reminders, comp.Audit, logger)
	comp.Documents = services.NewDocumentService(conn, comp.Repos, comp.Files, comp.Notifier, comp.Audit, time.Now, logger)
	comp.Payments = services.NewPaymentService(conn, comp.Repos, comp.Reminders, comp.Audit, logger)
	comp.Requirements = services.NewRequirementService(conn, comp.Repos, comp.Audit)

	extractor := summons.NewFileExtractor(
		summons.NewTesseractOCR(c.TesseractPath),
		summons.NewPdftoppm(c.PdftoppmPath),
		metrics.OCRDuration,
		logger)
	comp.Intake = intake.NewService(conn, comp.Repos, comp.Files, summons.NewParser(extractor, logger),
		comp.Notifier, comp.Audit, time.Now, logger)

	comp.InpolUpdate = inpol.NewUpdater(conn, comp.Repos, comp.Audit, time.Now, logger)
	comp.InpolJob = inpol.NewJob(conn, comp.Repos, comp.InpolUpdate, comp.InpolSettings(), c.InpolTimeout, logger)

	comp.Rates = comp.newRateProvider(ctx)
	return comp, nil
}

// InpolSettings are the ambient portal settings from the configuration.
func (c *Components) InpolSettings() inpol.Settings {
	return inpol.Settings{Email: c.Config.InpolEmail, Password: c.Config.InpolPassword, BaseURL: c.Config.InpolBaseURL}
}

func (c *Components) newRateProvider(ctx context.Context) *fx.Provider {
	fallback, err := decimal.NewFromString(c.Config.FXFallback)
	if err != nil {
		c.Logger.Warn(ctx, "bad fx fallback, using default", "value", c.Config.FXFallback, "error", err)
		fallback = fx.DefaultFallback
	}
	var cache fx.Cache
	if c.Config.RedisAddr != "" {
		rc := fx.NewRedisCache(c.Config.RedisAddr)
		c.closers = append(c.closers, rc)
		cache = rc
	} else {
		cache = fx.NewMemoryCache(16, c.Config.FXTTL)
	}
	return fx.NewProvider(fx.NewNBPClient(c.Config.NBPURL, c.Config.NBPTimeout), cache, c.Config.FXTTL, fallback, c.Logger)
}

// Close releases the database pool and the cache connection.
func (c *Components) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
