package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/calculator"
	"github.com/legalize/backoffice/internal/server/intake"
	"github.com/legalize/backoffice/internal/server/models"
	remindersrepo "github.com/legalize/backoffice/internal/server/repositories/reminders"
	"github.com/legalize/backoffice/internal/server/services"
	"github.com/legalize/backoffice/internal/timex"
)

var validate = validator.New()

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", common.ErrorValidation, name)
	}
	return id, nil
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(common.ISODate, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", common.ErrorValidation, s)
	}
	return &t, nil
}

// upload reads the multipart "file" part. The caller closes the body.
func upload(r *http.Request) (services.Upload, func(), error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return services.Upload{}, nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return services.Upload{}, nil, fmt.Errorf("%w: file is required", common.ErrorValidation)
	}
	expiry, err := optionalDate(r.FormValue("expiry_date"))
	if err != nil {
		_ = f.Close()
		return services.Upload{}, nil, err
	}
	up := services.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        f,
		ExpiryDate:  expiry,
	}
	return up, func() { _ = f.Close() }, nil
}

// Clients

func (a *API) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.svc.Clients.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]clientView, 0, len(clients))
	for _, c := range clients {
		out = append(out, newClientView(c))
	}
	success(w, http.StatusOK, "", envelope{"clients": out})
}

func (a *API) createClient(w http.ResponseWriter, r *http.Request) {
	var in clientInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	c := &models.Client{}
	if err := in.apply(c); err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.svc.Clients.Create(r.Context(), a.requestContext(r), c)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, "Client created", envelope{"client": newClientView(c)})
}

// updateClient replaces the editable fields. Portal and appointment data
// written by intake and the inPOL job are kept.
func (a *API) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in clientInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.svc.Clients.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.apply(c); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Clients.Update(r.Context(), a.requestContext(r), c); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Client updated", envelope{"client": newClientView(c)})
}

func (a *API) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.svc.Clients.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "", envelope{"client": newClientView(c)})
}

func (a *API) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Clients.Delete(r.Context(), a.requestContext(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Client deleted", nil)
}

func (a *API) checklist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, entries, err := a.svc.Clients.Checklist(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "", envelope{
		"client_id":           c.ID,
		"application_purpose": c.ApplicationPurpose,
		"checklist":           newChecklistView(entries),
	})
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sum, err := a.svc.Clients.Summary(r.Context(), id, a.clock())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "", envelope{"summary": sum})
}

func (a *API) sendMissing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sent, err := a.svc.Clients.SendMissingDocuments(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, emailMessage(sent), envelope{"emails_sent": sent})
}

func (a *API) sendExpiring(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sent, err := a.svc.Reminders.SendExpiring(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, emailMessage(sent), envelope{"emails_sent": sent})
}

func emailMessage(sent int) string {
	if sent == 0 {
		return "No e-mail sent"
	}
	return "E-mail sent"
}

// Documents

func (a *API) addDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	up, done, err := upload(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer done()
	docType := r.FormValue("document_type")
	if docType == "" {
		a.fail(w, r, fmt.Errorf("%w: document_type is required", common.ErrorValidation))
		return
	}
	d, err := a.svc.Documents.Add(r.Context(), a.requestContext(r), id, docType, up)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, "Document uploaded", envelope{"document": newDocumentView(d)})
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Documents.Delete(r.Context(), a.requestContext(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Document deleted", nil)
}

func (a *API) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	url, err := a.svc.Documents.DownloadURL(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (a *API) toggleVerified(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	verified, sent, err := a.svc.Documents.ToggleVerified(r.Context(), a.requestContext(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "", envelope{"verified": verified, "emails_sent": sent})
}

func (a *API) verifyAll(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	updated, sent, err := a.svc.Documents.VerifyAll(r.Context(), a.requestContext(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, fmt.Sprintf("Verified %d document(s)", updated), envelope{"updated": updated, "emails_sent": sent})
}

// Summons intake

func (a *API) proposeSummons(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	up, done, err := upload(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer done()
	p, err := a.svc.Intake.Propose(r.Context(), a.requestContext(r), id, up)
	if err != nil {
		var data envelope
		if p != nil {
			data = envelope{"document_id": p.DocumentID}
		}
		a.failWith(w, r, err, data)
		return
	}
	success(w, http.StatusOK, "Review the extracted fields", envelope{"proposal": p})
}

func (a *API) confirmSummons(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in intake.ConfirmInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", common.ErrorValidation, err))
		return
	}
	res, err := a.svc.Intake.Confirm(r.Context(), a.requestContext(r), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.intakeResult(w, res)
}

func (a *API) applySummons(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	up, done, err := upload(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer done()
	res, err := a.svc.Intake.Apply(r.Context(), a.requestContext(r), id, up)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.intakeResult(w, res)
}

func (a *API) intakeResult(w http.ResponseWriter, res *intake.Result) {
	msg := "No changes"
	if len(res.AutoUpdates) > 0 {
		msg = fmt.Sprintf("Updated %d field(s)", len(res.AutoUpdates))
	}
	success(w, http.StatusOK, msg, envelope{
		"document_id":            res.DocumentID,
		"client_id":              res.ClientID,
		"auto_updates":           res.AutoUpdates,
		"required_documents":     res.RequiredDocuments,
		"missing_documents_sent": res.MissingDocumentsSent,
		"appointment_sent":       res.AppointmentSent,
	})
}

func (a *API) abandonSummons(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Intake.Abandon(r.Context(), a.requestContext(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Summons discarded", nil)
}

// Payments

func (a *API) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	payments, err := a.svc.Payments.ListByClient(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, newPaymentView(p))
	}
	success(w, http.StatusOK, "", envelope{"payments": out})
}

func (a *API) savePayment(w http.ResponseWriter, r *http.Request) {
	var id int64
	if chi.URLParam(r, "paymentID") != "" {
		var err error
		if id, err = idParam(r, "paymentID"); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	var in paymentInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	paid, err := optionalDate(in.PaymentDate)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	due, err := optionalDate(in.DueDate)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.svc.Payments.Save(r.Context(), a.requestContext(r), services.PaymentInput{
		ID:            id,
		ClientID:      in.ClientID,
		Service:       in.Service,
		Total:         in.TotalAmount,
		Paid:          in.AmountPaid,
		Status:        models.PaymentStatus(in.Status),
		Method:        in.PaymentMethod,
		PaymentDate:   paid,
		DueDate:       due,
		TransactionID: in.TransactionID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	success(w, status, "Payment saved", envelope{"payment": newPaymentView(p)})
}

func (a *API) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "paymentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Payments.Delete(r.Context(), a.requestContext(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Payment deleted", nil)
}

// Reminders

func (a *API) listReminders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := remindersrepo.Filter{Type: models.ReminderType(q.Get("type"))}
	if s := q.Get("client_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: bad client_id", common.ErrorValidation))
			return
		}
		f.ClientID = id
	}
	var err error
	if f.From, err = optionalDate(q.Get("from")); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.To, err = optionalDate(q.Get("to")); err != nil {
		a.fail(w, r, err)
		return
	}
	rems, err := a.svc.Reminders.List(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]reminderView, 0, len(rems))
	for _, rem := range rems {
		out = append(out, newReminderView(rem))
	}
	success(w, http.StatusOK, "", envelope{"reminders": out})
}

func (a *API) completeReminder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reminderID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Reminders.Complete(r.Context(), a.requestContext(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Reminder completed", nil)
}

func (a *API) deleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reminderID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Reminders.Remove(r.Context(), a.requestContext(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Reminder deleted", nil)
}

// FX and calculator

func (a *API) eurRate(w http.ResponseWriter, r *http.Request) {
	q := a.svc.Rates.EURRate(r.Context())
	success(w, http.StatusOK, "", envelope{"rate": q.Rate, "source": q.Source})
}

func (a *API) calculate(w http.ResponseWriter, r *http.Request) {
	var in calculatorInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	end, err := time.Parse(common.ISODate, in.TotalEndDate)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: total_end_date", common.ErrorValidation))
		return
	}
	q := a.svc.Rates.EURRate(r.Context())
	res, err := calculator.Calculate(calculator.Input{
		TotalEndDate:    end,
		TuitionFee:      in.TuitionFee,
		TuitionCurrency: currencyOrPLN(in.TuitionCurrency),
		MonthsInPeriod:  in.MonthsInPeriod,
		RentAndBills:    in.RentAndBills,
		RentCurrency:    currencyOrPLN(in.RentCurrency),
		NumPeople:       in.NumPeople,
		HasBorder:       in.HasBorder,
	}, q.Rate, timex.Today(a.clock()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "", envelope{"result": res, "rate_source": q.Source})
}

func currencyOrPLN(c string) string {
	if c == "" {
		return calculator.CurrencyPLN
	}
	return c
}

func (a *API) listRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := a.svc.Requirements.List(r.Context(), chi.URLParam(r, "purpose"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]requirementView, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, newRequirementView(req))
	}
	success(w, http.StatusOK, "", envelope{"requirements": out})
}

func (a *API) saveRequirement(w http.ResponseWriter, r *http.Request) {
	var in requirementInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	saved, err := a.svc.Requirements.Save(r.Context(), a.requestContext(r), &models.DocumentRequirement{
		ApplicationPurpose: chi.URLParam(r, "purpose"),
		DocumentType:       chi.URLParam(r, "documentType"),
		Position:           in.Position,
		IsRequired:         in.IsRequired,
		CustomName:         in.CustomName,
		CustomNamePL:       in.CustomNamePL,
		CustomNameEN:       in.CustomNameEN,
		CustomNameRU:       in.CustomNameRU,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Requirement saved", envelope{"requirement": newRequirementView(saved)})
}

func (a *API) setRequired(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsRequired *bool `json:"is_required" validate:"required"`
	}
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	err := a.svc.Requirements.SetRequired(r.Context(), a.requestContext(r),
		chi.URLParam(r, "purpose"), chi.URLParam(r, "documentType"), *in.IsRequired)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "Requirement updated", nil)
}
