// Package server wires the back office together and runs the daemon: the
// JSON API, the gRPC health service and the scheduled inPOL and reminder
// jobs, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/config"
	"github.com/legalize/backoffice/internal/server/httpapi"
	"github.com/legalize/backoffice/internal/server/inpol"

	gs "github.com/legalize/backoffice/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	components *Components
	health     *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := NewLogger(os.Stdout, c)
	if err != nil {
		return nil, err
	}
	comp, err := Build(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("init error: %w", err)
	}
	return &App{
		config:     c,
		logger:     logger,
		components: comp,
		health:     gs.NewHealthServer(c.EndpointAddrGRPC, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) handler() http.Handler {
	c := app.components
	return httpapi.New(httpapi.Services{
		Intake:       c.Intake,
		Clients:      c.Clients,
		Documents:    c.Documents,
		Payments:     c.Payments,
		Reminders:    c.Reminders,
		Requirements: c.Requirements,
		Rates:        c.Rates,
	}, time.Now, app.logger, httpapi.WithTokenSecret(app.config.APISecret)).Router()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// scheduleJobs registers the inPOL poll and the daily reminder sweep.
func (app *App) scheduleJobs(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	comp := app.components

	if _, err := c.AddFunc(app.config.InpolPollCron, func() {
		res, err := comp.InpolJob.Run(ctx)
		switch {
		case errors.Is(err, common.ErrMissingCredentials):
			app.logger.Debug(ctx, "inpol poll skipped, no credentials")
			err = nil
		case err != nil:
			app.logger.Error(ctx, "inpol poll failed", "error", err)
		default:
			app.logger.Info(ctx, "inpol poll done", "changes", len(res.Changes), "applied", len(res.Applied))
		}
		app.health.Report(gs.ServiceInpol, err)
	}); err != nil {
		return nil, fmt.Errorf("inpol cron %q: %w", app.config.InpolPollCron, err)
	}

	if _, err := c.AddFunc(app.config.ReminderCron, func() {
		res, err := comp.Reminders.Sweep(ctx)
		if err != nil {
			app.logger.Error(ctx, "reminder sweep failed", "error", err)
		} else {
			app.logger.Info(ctx, "reminder sweep done", "result", res.String())
		}
		app.health.Report(gs.ServiceReminders, err)
	}); err != nil {
		return nil, fmt.Errorf("reminder cron %q: %w", app.config.ReminderCron, err)
	}
	return c, nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	jobs, err := app.scheduleJobs(ctx)
	if err != nil {
		return err
	}
	jobs.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	wg.Wait()

	<-jobs.Stop().Done()
	app.logger.Info(ctx, "Stopped")
	return app.components.Close()
}

// CheckInpol runs one watcher pass with explicit settings layered over the
// configured ones.
func CheckInpol(ctx context.Context, comp *Components, explicit inpol.Settings) (*inpol.CheckResult, error) {
	s := comp.InpolSettings()
	if explicit.Email != "" {
		s.Email = explicit.Email
	}
	if explicit.Password != "" {
		s.Password = explicit.Password
	}
	if explicit.BaseURL != "" {
		s.BaseURL = explicit.BaseURL
	}
	job := inpol.NewJob(comp.DB, comp.Repos, comp.InpolUpdate, s, comp.Config.InpolTimeout, comp.Logger)
	return job.Run(ctx)
}
