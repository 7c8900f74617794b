package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/auth"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/fx"
	"github.com/legalize/backoffice/internal/server/intake"
	"github.com/legalize/backoffice/internal/server/models"
	remindersrepo "github.com/legalize/backoffice/internal/server/repositories/reminders"
	"github.com/legalize/backoffice/internal/server/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type fakeIntake struct {
	rc       audit.RequestContext
	body     string
	proposal *intake.Proposal
	err      error
	confirm  intake.ConfirmInput
}

func (f *fakeIntake) Propose(_ context.Context, rc audit.RequestContext, clientID int64, up services.Upload) (*intake.Proposal, error) {
	f.rc = rc
	b, _ := io.ReadAll(up.Body)
	f.body = string(b)
	return f.proposal, f.err
}

func (f *fakeIntake) Confirm(_ context.Context, rc audit.RequestContext, documentID int64, in intake.ConfirmInput) (*intake.Result, error) {
	f.rc = rc
	f.confirm = in
	if f.err != nil {
		return nil, f.err
	}
	return &intake.Result{DocumentID: documentID, ClientID: 1, AutoUpdates: []string{"case_number: WSC-1"}, RequiredDocuments: []string{}}, nil
}

func (f *fakeIntake) Apply(context.Context, audit.RequestContext, int64, services.Upload) (*intake.Result, error) {
	return nil, f.err
}

func (f *fakeIntake) Abandon(context.Context, audit.RequestContext, int64) error { return f.err }

type fakeReminders struct {
	filter remindersrepo.Filter
	rems   []*models.Reminder
}

func (f *fakeReminders) List(_ context.Context, flt remindersrepo.Filter) ([]*models.Reminder, error) {
	f.filter = flt
	return f.rems, nil
}

func (f *fakeReminders) Complete(_ context.Context, _ audit.RequestContext, id int64) error {
	if id != 1 {
		return fmt.Errorf("reminder %d: %w", id, common.ErrorNotFound)
	}
	return nil
}

func (f *fakeReminders) Remove(context.Context, audit.RequestContext, int64) error { return nil }

func (f *fakeReminders) SendExpiring(context.Context, int64) (int, error) { return 1, nil }

type fakePayments struct {
	in services.PaymentInput
}

func (f *fakePayments) Save(_ context.Context, _ audit.RequestContext, in services.PaymentInput) (*models.Payment, error) {
	f.in = in
	return &models.Payment{ID: 7, ClientID: in.ClientID, TotalAmount: in.Total, AmountPaid: in.Paid, Status: models.PaymentPartial, DueDate: in.DueDate}, nil
}

func (f *fakePayments) ListByClient(context.Context, int64) ([]*models.Payment, error) { return nil, nil }

func (f *fakePayments) Delete(context.Context, audit.RequestContext, int64) error { return nil }

type fixedRate struct{}

func (fixedRate) EURRate(context.Context) fx.Quote {
	return fx.Quote{Rate: decimal.RequireFromString("4.3"), Source: fx.FromFallback}
}

func newServer(t *testing.T, svc Services) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(svc, func() time.Time { return now }, logging.Discard()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func multipartFile(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "wezwanie.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(content))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProposeSummons(t *testing.T) {
	in := &fakeIntake{proposal: &intake.Proposal{DocumentID: 5, ClientID: 3, CaseNumber: "WSC-1", RequiredDocuments: []string{}}}
	srv := newServer(t, Services{Intake: in})

	body, ct := multipartFile(t, "%PDF")
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/clients/3/summons", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set(OperatorHeader, "anna")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "WSC-1", out["proposal"].(map[string]any)["case_number"])
	assert.Equal(t, "%PDF", in.body)
	assert.Equal(t, "anna", in.rc.User)
	assert.Equal(t, "/api/clients/3/summons", in.rc.Path)
}

func TestProposeSummons_NothingParsedKeepsDocumentID(t *testing.T) {
	in := &fakeIntake{
		proposal: &intake.Proposal{DocumentID: 5, ClientID: 3},
		err:      fmt.Errorf("summons: %w", common.ErrNothingParsed),
	}
	srv := newServer(t, Services{Intake: in})

	body, ct := multipartFile(t, "x")
	resp, err := http.Post(srv.URL+"/api/clients/3/summons", ct, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, "error", out["status"])
	assert.EqualValues(t, 5, out["document_id"])
}

func TestProposeSummons_MissingFile(t *testing.T) {
	srv := newServer(t, Services{Intake: &fakeIntake{}})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())
	resp, err := http.Post(srv.URL+"/api/clients/3/summons", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfirmSummons(t *testing.T) {
	in := &fakeIntake{}
	srv := newServer(t, Services{Intake: in})

	resp, err := http.Post(srv.URL+"/api/documents/5/confirm", "application/json",
		strings.NewReader(`{"case_number":"WSC-1","fingerprints_date":"2024-06-12"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, []any{"case_number: WSC-1"}, out["auto_updates"])
	assert.Equal(t, "Updated 1 field(s)", out["message"])
	assert.Equal(t, "2024-06-12", in.confirm.FingerprintsDate)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("doc: %w", common.ErrorNotFound), http.StatusNotFound},
		{common.ErrNotSummons, http.StatusConflict},
		{common.ErrNotAwaiting, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		srv := newServer(t, Services{Intake: &fakeIntake{err: tt.err}})
		resp, err := http.Post(srv.URL+"/api/documents/5/abandon", "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, tt.err.Error())
		out := decodeBody(t, resp)
		assert.Equal(t, "error", out["status"])
		if tt.want == http.StatusInternalServerError {
			assert.Equal(t, "internal error", out["message"])
		}
	}
}

func TestBadID(t *testing.T) {
	srv := newServer(t, Services{Intake: &fakeIntake{}})
	resp, err := http.Post(srv.URL+"/api/documents/abc/abandon", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalculator(t *testing.T) {
	srv := newServer(t, Services{Rates: fixedRate{}})

	resp, err := http.Post(srv.URL+"/api/calculator", "application/json", strings.NewReader(
		`{"total_end_date":"2024-08-31","tuition_fee":"2000","months_in_period":12,"rent_and_bills":"1000","num_people":1}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	result := out["result"].(map[string]any)
	assert.Equal(t, "fallback", out["rate_source"])
	assert.EqualValues(t, 4, result["months_for_calc"])
	assert.Equal(t, "2500", result["return_ticket"])
}

func TestCalculator_FieldErrors(t *testing.T) {
	srv := newServer(t, Services{Rates: fixedRate{}})

	resp, err := http.Post(srv.URL+"/api/calculator", "application/json", strings.NewReader(`{"num_people":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeBody(t, resp)
	errs := out["errors"].(map[string]any)
	assert.Contains(t, errs, "total_end_date")
}

func TestEURRate(t *testing.T) {
	srv := newServer(t, Services{Rates: fixedRate{}})
	resp, err := http.Get(srv.URL + "/api/fx/eur")
	require.NoError(t, err)
	out := decodeBody(t, resp)
	assert.Equal(t, "4.3", out["rate"])
	assert.Equal(t, "fallback", out["source"])
}

func TestReminders(t *testing.T) {
	rems := &fakeReminders{rems: []*models.Reminder{{ID: 1, ClientID: 2, Type: models.ReminderPayment, Title: "t", DueDate: now, IsActive: true}}}
	srv := newServer(t, Services{Reminders: rems})

	resp, err := http.Get(srv.URL + "/api/reminders?type=payment&client_id=2&from=2024-05-01")
	require.NoError(t, err)
	out := decodeBody(t, resp)
	list := out["reminders"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-05-10", list[0].(map[string]any)["due_date"])
	assert.Equal(t, models.ReminderPayment, rems.filter.Type)
	assert.EqualValues(t, 2, rems.filter.ClientID)
	require.NotNil(t, rems.filter.From)
	assert.Nil(t, rems.filter.To)

	resp, err = http.Post(srv.URL+"/api/reminders/1/complete", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, err = http.Post(srv.URL+"/api/reminders/9/complete", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSavePayment(t *testing.T) {
	pay := &fakePayments{}
	srv := newServer(t, Services{Payments: pay})

	resp, err := http.Post(srv.URL+"/api/payments", "application/json", strings.NewReader(
		`{"client_id":3,"service_description":"work_service","total_amount":"1800","amount_paid":"900","due_date":"2024-06-01"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeBody(t, resp)
	p := out["payment"].(map[string]any)
	assert.Equal(t, "900", p["amount_due"])
	assert.Equal(t, "2024-06-01", p["due_date"])
	assert.Zero(t, pay.in.ID)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/payments/7", strings.NewReader(`{"client_id":3}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 7, pay.in.ID)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, Services{})
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "total_end_date", snakeCase("TotalEndDate"))
	assert.Equal(t, "client_id", snakeCase("ClientID"))
}

func TestTokenAuth(t *testing.T) {
	rems := &fakeReminders{}
	srv := httptest.NewServer(New(Services{Reminders: rems}, nil, logging.Discard(), WithTokenSecret("s3cret")).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/reminders")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/reminders", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := auth.GenerateToken("anna", []byte("s3cret"), time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type fakeClients struct {
	stored  *models.Client
	updated *models.Client
	rc      audit.RequestContext
}

func (f *fakeClients) Create(_ context.Context, _ audit.RequestContext, c *models.Client) (*models.Client, error) {
	c.ID = 1
	return c, nil
}

func (f *fakeClients) Update(_ context.Context, rc audit.RequestContext, c *models.Client) error {
	if !c.Status.Valid() {
		return fmt.Errorf("status %q: %w", c.Status, common.ErrorValidation)
	}
	f.rc = rc
	f.updated = c
	return nil
}

func (f *fakeClients) Get(_ context.Context, id int64) (*models.Client, error) {
	if f.stored == nil || f.stored.ID != id {
		return nil, fmt.Errorf("client %d: %w", id, common.ErrorNotFound)
	}
	cp := *f.stored
	return &cp, nil
}

func (f *fakeClients) List(context.Context) ([]*models.Client, error) { return nil, nil }

func (f *fakeClients) Delete(context.Context, audit.RequestContext, int64) error { return nil }

func (f *fakeClients) Checklist(context.Context, int64) (*models.Client, []catalog.ChecklistEntry, error) {
	return nil, nil, nil
}

func (f *fakeClients) Summary(context.Context, int64, time.Time) (*services.Summary, error) {
	return nil, nil
}

func (f *fakeClients) SendMissingDocuments(context.Context, int64) (int, error) { return 0, nil }

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OperatorHeader, "anna")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUpdateClient(t *testing.T) {
	fingerprints := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	clients := &fakeClients{stored: &models.Client{
		ID: 4, FirstName: "Olena", Email: "olena@example.com", ApplicationPurpose: models.PurposeStudy,
		Status: models.ClientStatusNew, FingerprintsDate: &fingerprints, InpolStatus: "open",
	}}
	srv := newServer(t, Services{Clients: clients})

	resp := put(t, srv.URL+"/api/clients/4", `{"first_name":"Olena","last_name":"Shevchenko",
		"email":"olena@example.com","application_purpose":"work","case_number":"WSC-1","status":"pending"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, "Client updated", out["message"])

	require.NotNil(t, clients.updated)
	assert.Equal(t, int64(4), clients.updated.ID)
	assert.Equal(t, models.PurposeWork, clients.updated.ApplicationPurpose)
	assert.Equal(t, models.ClientStatusPending, clients.updated.Status)
	assert.Equal(t, "WSC-1", clients.updated.CaseNumber.Reveal())
	assert.Equal(t, &fingerprints, clients.updated.FingerprintsDate)
	assert.Equal(t, "open", clients.updated.InpolStatus)
	assert.Equal(t, "anna", clients.rc.User)
	assert.Equal(t, "pending", out["client"].(map[string]any)["status"])
}

func TestUpdateClient_Errors(t *testing.T) {
	clients := &fakeClients{stored: &models.Client{ID: 4, Status: models.ClientStatusNew}}
	srv := newServer(t, Services{Clients: clients})

	resp := put(t, srv.URL+"/api/clients/9", `{"first_name":"A","last_name":"B","email":"a@example.com"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = put(t, srv.URL+"/api/clients/4", `{"first_name":"A","last_name":"B","email":"a@example.com","status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Contains(t, out["errors"], "status")
	assert.Nil(t, clients.updated)
}

type fakeRequirements struct {
	saved    *models.DocumentRequirement
	purpose  string
	docType  string
	required bool
}

func (f *fakeRequirements) List(_ context.Context, purpose string) ([]*models.DocumentRequirement, error) {
	return []*models.DocumentRequirement{{ID: 1, ApplicationPurpose: purpose, DocumentType: "passport", IsRequired: true}}, nil
}

func (f *fakeRequirements) Save(_ context.Context, _ audit.RequestContext, req *models.DocumentRequirement) (*models.DocumentRequirement, error) {
	req.ID = 2
	f.saved = req
	return req, nil
}

func (f *fakeRequirements) SetRequired(_ context.Context, _ audit.RequestContext, purpose, documentType string, required bool) error {
	if documentType != "photos" {
		return fmt.Errorf("requirement: %w", common.ErrorNotFound)
	}
	f.purpose, f.docType, f.required = purpose, documentType, required
	return nil
}

func TestRequirements(t *testing.T) {
	reqs := &fakeRequirements{}
	srv := newServer(t, Services{Requirements: reqs})

	resp, err := http.Get(srv.URL + "/api/requirements/study")
	require.NoError(t, err)
	out := decodeBody(t, resp)
	list := out["requirements"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "study", list[0].(map[string]any)["application_purpose"])

	resp = put(t, srv.URL+"/api/requirements/work/work_permit", `{"position":3,"is_required":true,"custom_name_en":"Permit"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	require.NotNil(t, reqs.saved)
	assert.Equal(t, "work", reqs.saved.ApplicationPurpose)
	assert.Equal(t, "work_permit", reqs.saved.DocumentType)
	assert.Equal(t, 3, reqs.saved.Position)
	assert.Equal(t, "Permit", reqs.saved.CustomNameEN)

	patch := func(docType, body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/requirements/study/"+docType, strings.NewReader(body))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}
	resp = patch("photos", `{"is_required":false}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "study", reqs.purpose)
	assert.False(t, reqs.required)

	resp = patch("photos", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = patch("visa", `{"is_required":true}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
