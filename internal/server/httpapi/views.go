package httpapi

import (
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/shopspring/decimal"
)

type clientView struct {
	ID                   int64   `json:"id"`
	FirstName            string  `json:"first_name"`
	LastName             string  `json:"last_name"`
	Citizenship          string  `json:"citizenship"`
	Phone                string  `json:"phone"`
	Email                string  `json:"email"`
	CaseNumber           string  `json:"case_number"`
	ApplicationPurpose   string  `json:"application_purpose"`
	Language             string  `json:"language"`
	Status               string  `json:"status"`
	SubmissionDate       *string `json:"submission_date"`
	FingerprintsDate     *string `json:"fingerprints_date"`
	FingerprintsTime     string  `json:"fingerprints_time"`
	FingerprintsLocation string  `json:"fingerprints_location"`
	DecisionDate         *string `json:"decision_date"`
	InpolStatus          string  `json:"inpol_status"`
	InpolUpdatedAt       *string `json:"inpol_updated_at"`
}

func isoPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(common.ISODate)
	return &s
}

func newClientView(c *models.Client) clientView {
	v := clientView{
		ID:                   c.ID,
		FirstName:            c.FirstName,
		LastName:             c.LastName,
		Citizenship:          c.Citizenship,
		Phone:                c.Phone,
		Email:                c.Email,
		CaseNumber:           c.CaseNumber.Reveal(),
		ApplicationPurpose:   c.ApplicationPurpose,
		Language:             c.Language,
		Status:               string(c.Status),
		SubmissionDate:       isoPtr(c.SubmissionDate),
		FingerprintsDate:     isoPtr(c.FingerprintsDate),
		FingerprintsTime:     c.FingerprintsTime,
		FingerprintsLocation: c.FingerprintsLocation,
		DecisionDate:         isoPtr(c.DecisionDate),
		InpolStatus:          c.InpolStatus,
	}
	if c.InpolUpdatedAt != nil {
		s := c.InpolUpdatedAt.Format(time.RFC3339)
		v.InpolUpdatedAt = &s
	}
	return v
}

// clientInput is the create and update form. Dates are ISO.
type clientInput struct {
	FirstName          string `json:"first_name" validate:"required,max=100"`
	LastName           string `json:"last_name" validate:"required,max=100"`
	Citizenship        string `json:"citizenship" validate:"max=100"`
	Phone              string `json:"phone" validate:"max=20"`
	Email              string `json:"email" validate:"required,email"`
	PassportNum        string `json:"passport_num" validate:"max=50"`
	CaseNumber         string `json:"case_number" validate:"max=100"`
	ApplicationPurpose string `json:"application_purpose" validate:"max=50"`
	Language           string `json:"language" validate:"omitempty,oneof=pl en ru"`
	SubmissionDate     string `json:"submission_date" validate:"omitempty,datetime=2006-01-02"`
	Status             string `json:"status" validate:"omitempty,oneof=new pending approved rejected"`
	Notes              string `json:"notes"`
}

// apply copies the form onto c. An empty status keeps the current one.
func (in clientInput) apply(c *models.Client) error {
	submitted, err := optionalDate(in.SubmissionDate)
	if err != nil {
		return err
	}
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Citizenship = in.Citizenship
	c.Phone = in.Phone
	c.Email = in.Email
	c.PassportNum = cryptox.NewSecret(in.PassportNum)
	c.CaseNumber = cryptox.NewSecret(in.CaseNumber)
	c.ApplicationPurpose = in.ApplicationPurpose
	c.Language = in.Language
	c.SubmissionDate = submitted
	c.Notes = in.Notes
	if in.Status != "" {
		c.Status = models.ClientStatus(in.Status)
	}
	return nil
}

type requirementInput struct {
	Position     int    `json:"position" validate:"gte=0"`
	IsRequired   bool   `json:"is_required"`
	CustomName   string `json:"custom_name" validate:"max=255"`
	CustomNamePL string `json:"custom_name_pl" validate:"max=255"`
	CustomNameEN string `json:"custom_name_en" validate:"max=255"`
	CustomNameRU string `json:"custom_name_ru" validate:"max=255"`
}

type requirementView struct {
	ID           int64  `json:"id"`
	Purpose      string `json:"application_purpose"`
	DocumentType string `json:"document_type"`
	Position     int    `json:"position"`
	IsRequired   bool   `json:"is_required"`
	CustomName   string `json:"custom_name"`
	CustomNamePL string `json:"custom_name_pl"`
	CustomNameEN string `json:"custom_name_en"`
	CustomNameRU string `json:"custom_name_ru"`
}

func newRequirementView(r *models.DocumentRequirement) requirementView {
	return requirementView{
		ID:           r.ID,
		Purpose:      r.ApplicationPurpose,
		DocumentType: r.DocumentType,
		Position:     r.Position,
		IsRequired:   r.IsRequired,
		CustomName:   r.CustomName,
		CustomNamePL: r.CustomNamePL,
		CustomNameEN: r.CustomNameEN,
		CustomNameRU: r.CustomNameRU,
	}
}

type documentView struct {
	ID                   int64   `json:"id"`
	ClientID             int64   `json:"client_id"`
	DocumentType         string  `json:"document_type"`
	ExpiryDate           *string `json:"expiry_date"`
	UploadedAt           string  `json:"uploaded_at"`
	Verified             bool    `json:"verified"`
	AwaitingConfirmation bool    `json:"awaiting_confirmation"`
}

func newDocumentView(d *models.Document) documentView {
	return documentView{
		ID:                   d.ID,
		ClientID:             d.ClientID,
		DocumentType:         d.DocumentType,
		ExpiryDate:           isoPtr(d.ExpiryDate),
		UploadedAt:           d.UploadedAt.Format(time.RFC3339),
		Verified:             d.Verified,
		AwaitingConfirmation: d.AwaitingConfirmation,
	}
}

type checklistView struct {
	Code       string         `json:"code"`
	Label      string         `json:"label"`
	IsRequired bool           `json:"is_required"`
	IsUploaded bool           `json:"is_uploaded"`
	Documents  []documentView `json:"documents"`
}

func newChecklistView(entries []catalog.ChecklistEntry) []checklistView {
	out := make([]checklistView, 0, len(entries))
	for _, e := range entries {
		docs := make([]documentView, 0, len(e.Documents))
		for _, d := range e.Documents {
			docs = append(docs, newDocumentView(d))
		}
		out = append(out, checklistView{Code: e.Code, Label: e.Label, IsRequired: e.IsRequired, IsUploaded: e.IsUploaded, Documents: docs})
	}
	return out
}

type paymentView struct {
	ID                 int64           `json:"id"`
	ClientID           int64           `json:"client_id"`
	ServiceDescription string          `json:"service_description"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	AmountDue          decimal.Decimal `json:"amount_due"`
	Status             string          `json:"status"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentDate        *string         `json:"payment_date"`
	DueDate            *string         `json:"due_date"`
	TransactionID      string          `json:"transaction_id"`
}

func newPaymentView(p *models.Payment) paymentView {
	return paymentView{
		ID:                 p.ID,
		ClientID:           p.ClientID,
		ServiceDescription: p.ServiceDescription,
		TotalAmount:        p.TotalAmount,
		AmountPaid:         p.AmountPaid,
		AmountDue:          p.AmountDue(),
		Status:             string(p.Status),
		PaymentMethod:      p.PaymentMethod,
		PaymentDate:        isoPtr(p.PaymentDate),
		DueDate:            isoPtr(p.DueDate),
		TransactionID:      p.TransactionID,
	}
}

type paymentInput struct {
	ClientID      int64           `json:"client_id"`
	Service       string          `json:"service_description"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	TransactionID string          `json:"transaction_id"`
}

type reminderView struct {
	ID         int64  `json:"id"`
	ClientID   int64  `json:"client_id"`
	PaymentID  *int64 `json:"payment_id"`
	DocumentID *int64 `json:"document_id"`
	Type       string `json:"reminder_type"`
	Title      string `json:"title"`
	Notes      string `json:"notes"`
	DueDate    string `json:"due_date"`
	IsActive   bool   `json:"is_active"`
}

func newReminderView(r *models.Reminder) reminderView {
	return reminderView{
		ID:         r.ID,
		ClientID:   r.ClientID,
		PaymentID:  r.PaymentID,
		DocumentID: r.DocumentID,
		Type:       string(r.Type),
		Title:      r.Title,
		Notes:      r.Notes,
		DueDate:    r.DueDate.Format(common.ISODate),
		IsActive:   r.IsActive,
	}
}

// calculatorInput mirrors calculator.Input with an ISO end date.
type calculatorInput struct {
	TotalEndDate    string          `json:"total_end_date" validate:"required,datetime=2006-01-02"`
	TuitionFee      decimal.Decimal `json:"tuition_fee"`
	TuitionCurrency string          `json:"tuition_currency"`
	MonthsInPeriod  int             `json:"months_in_period"`
	RentAndBills    decimal.Decimal `json:"rent_and_bills"`
	RentCurrency    string          `json:"rent_currency"`
	NumPeople       int             `json:"num_people"`
	HasBorder       bool            `json:"has_border"`
}
