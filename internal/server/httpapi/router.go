// Package httpapi is the staff-facing JSON API of the back office. Handlers
// decode requests, call the services and render the success/error envelope;
// no business rules live here.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/fx"
	"github.com/legalize/backoffice/internal/server/intake"
	"github.com/legalize/backoffice/internal/server/metrics"
	"github.com/legalize/backoffice/internal/server/models"
	remindersrepo "github.com/legalize/backoffice/internal/server/repositories/reminders"
	"github.com/legalize/backoffice/internal/server/services"
	"github.com/legalize/backoffice/internal/timex"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OperatorHeader carries the staff login set by an authenticating proxy. It
// is only trusted when no token secret is configured.
const OperatorHeader = "X-Forwarded-User"

const maxUploadBytes = 32 << 20

type IntakeService interface {
	Propose(ctx context.Context, rc audit.RequestContext, clientID int64, up services.Upload) (*intake.Proposal, error)
	Confirm(ctx context.Context, rc audit.RequestContext, documentID int64, in intake.ConfirmInput) (*intake.Result, error)
	Apply(ctx context.Context, rc audit.RequestContext, clientID int64, up services.Upload) (*intake.Result, error)
	Abandon(ctx context.Context, rc audit.RequestContext, documentID int64) error
}

type ClientService interface {
	Create(ctx context.Context, rc audit.RequestContext, c *models.Client) (*models.Client, error)
	Update(ctx context.Context, rc audit.RequestContext, c *models.Client) error
	Get(ctx context.Context, id int64) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Delete(ctx context.Context, rc audit.RequestContext, id int64) error
	Checklist(ctx context.Context, id int64) (*models.Client, []catalog.ChecklistEntry, error)
	Summary(ctx context.Context, id int64, asOf time.Time) (*services.Summary, error)
	SendMissingDocuments(ctx context.Context, id int64) (int, error)
}

type DocumentService interface {
	Add(ctx context.Context, rc audit.RequestContext, clientID int64, docType string, up services.Upload) (*models.Document, error)
	Delete(ctx context.Context, rc audit.RequestContext, id int64) error
	ToggleVerified(ctx context.Context, rc audit.RequestContext, id int64) (bool, int, error)
	VerifyAll(ctx context.Context, rc audit.RequestContext, clientID int64) (int64, int, error)
	DownloadURL(ctx context.Context, id int64) (string, error)
}

type PaymentService interface {
	Save(ctx context.Context, rc audit.RequestContext, in services.PaymentInput) (*models.Payment, error)
	ListByClient(ctx context.Context, clientID int64) ([]*models.Payment, error)
	Delete(ctx context.Context, rc audit.RequestContext, id int64) error
}

type ReminderService interface {
	List(ctx context.Context, f remindersrepo.Filter) ([]*models.Reminder, error)
	Complete(ctx context.Context, rc audit.RequestContext, id int64) error
	Remove(ctx context.Context, rc audit.RequestContext, id int64) error
	SendExpiring(ctx context.Context, clientID int64) (int, error)
}

type RequirementService interface {
	List(ctx context.Context, purpose string) ([]*models.DocumentRequirement, error)
	Save(ctx context.Context, rc audit.RequestContext, req *models.DocumentRequirement) (*models.DocumentRequirement, error)
	SetRequired(ctx context.Context, rc audit.RequestContext, purpose, documentType string, required bool) error
}

type RateProvider interface {
	EURRate(ctx context.Context) fx.Quote
}

// Services are the collaborators of the API.
type Services struct {
	Intake       IntakeService
	Clients      ClientService
	Documents    DocumentService
	Payments     PaymentService
	Reminders    ReminderService
	Requirements RequirementService
	Rates        RateProvider
}

type API struct {
	svc    Services
	clock  timex.Clock
	secret []byte
	log    logging.Logger
}

func New(svc Services, clock timex.Clock, log logging.Logger, opts ...Option) *API {
	if clock == nil {
		clock = time.Now
	}
	a := &API{svc: svc, clock: clock, log: log.With("module", "httpapi")}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Router mounts the API under /api and the Prometheus handler at /metrics.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		success(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(a.authenticate)
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", a.listClients)
			r.Post("/", a.createClient)
			r.Route("/{clientID}", func(r chi.Router) {
				r.Get("/", a.getClient)
				r.Put("/", a.updateClient)
				r.Delete("/", a.deleteClient)
				r.Get("/checklist", a.checklist)
				r.Get("/summary", a.summary)
				r.Post("/missing-documents", a.sendMissing)
				r.Post("/expiring-documents", a.sendExpiring)
				r.Post("/documents", a.addDocument)
				r.Post("/documents/verify-all", a.verifyAll)
				r.Get("/payments", a.listPayments)
				r.Post("/summons", a.proposeSummons)
				r.Post("/summons/apply", a.applySummons)
			})
		})
		r.Route("/documents/{documentID}", func(r chi.Router) {
			r.Delete("/", a.deleteDocument)
			r.Get("/download", a.downloadDocument)
			r.Post("/verify", a.toggleVerified)
			r.Post("/confirm", a.confirmSummons)
			r.Post("/abandon", a.abandonSummons)
		})
		r.Post("/payments", a.savePayment)
		r.Put("/payments/{paymentID}", a.savePayment)
		r.Delete("/payments/{paymentID}", a.deletePayment)

		r.Get("/reminders", a.listReminders)
		r.Post("/reminders/{reminderID}/complete", a.completeReminder)
		r.Delete("/reminders/{reminderID}", a.deleteReminder)

		r.Route("/requirements/{purpose}", func(r chi.Router) {
			r.Get("/", a.listRequirements)
			r.Put("/{documentType}", a.saveRequirement)
			r.Patch("/{documentType}", a.setRequired)
		})

		r.Get("/fx/eur", a.eurRate)
		r.Post("/calculator", a.calculate)
	})
	return r
}

func (a *API) requestContext(r *http.Request) audit.RequestContext {
	return audit.FromRequest(r, operatorFrom(r.Context()))
}

// fail renders err and logs the ones that are not the caller's fault.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.failWith(w, r, err, nil)
}

func (a *API) failWith(w http.ResponseWriter, r *http.Request, err error, data envelope) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	failure(w, status, messageFor(status, err), fieldErrors(err), data)
}
