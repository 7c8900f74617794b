// Package notify renders and sends the client e-mails: checklists, missing
// and expiring documents, fingerprint appointments. Delivery failures are
// logged and never returned to the caller.
package notify

import (
	"context"
	"sort"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/metrics"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/timex"
)

// Sender delivers one message and reports how many recipients accepted it.
type Sender interface {
	Send(ctx context.Context, subject, body string, recipients []string) (int, error)
}

const (
	expiringSoonDays = 3
	expiringDays     = 7
)

// DocumentLine is a document as it appears in an e-mail body.
type DocumentLine struct {
	Name       string
	ExpiryDate string
}

type emailData struct {
	ClientName string

	Documents          []DocumentLine
	UploadedWithExpiry []DocumentLine

	Expired       []DocumentLine
	ExpiringSoon  []DocumentLine
	ExpiringLater []DocumentLine
	Valid         []DocumentLine
	Missing       []DocumentLine

	FingerprintsDate     string
	FingerprintsTime     string
	FingerprintsLocation string

	Today  string
	Cutoff string
}

type Notifier struct {
	sender    Sender
	templates templates
	log       logging.Logger
	clock     timex.Clock
}

func NewNotifier(sender Sender, log logging.Logger, clock timex.Clock) (*Notifier, error) {
	ts, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return &Notifier{sender: sender, templates: ts, log: log.With("module", "notify"), clock: clock}, nil
}

// RequiredDocuments sends the checklist a new client has to collect.
func (n *Notifier) RequiredDocuments(ctx context.Context, c *models.Client, checklist []catalog.ChecklistEntry) int {
	if c.Email == "" || len(checklist) == 0 {
		return 0
	}
	data := emailData{ClientName: c.FullName()}
	for _, e := range checklist {
		data.Documents = append(data.Documents, DocumentLine{Name: e.Label})
	}
	return n.send(ctx, c, KeyRequiredDocuments, data)
}

// MissingDocuments lists required documents without an upload, together
// with the uploaded ones that carry an expiry date. Nothing is sent when
// the checklist is complete.
func (n *Notifier) MissingDocuments(ctx context.Context, c *models.Client, checklist []catalog.ChecklistEntry) int {
	if c.Email == "" {
		return 0
	}
	data := emailData{ClientName: c.FullName()}
	for _, e := range checklist {
		if !e.IsUploaded {
			data.Documents = append(data.Documents, DocumentLine{Name: e.Label})
			continue
		}
		if latest := latestUpload(e.Documents); latest != nil && latest.ExpiryDate != nil {
			data.UploadedWithExpiry = append(data.UploadedWithExpiry, DocumentLine{
				Name:       e.Label,
				ExpiryDate: latest.ExpiryDate.Format(common.DisplayDate),
			})
		}
	}
	if len(data.Documents) == 0 {
		return 0
	}
	return n.send(ctx, c, KeyMissingDocuments, data)
}

// ExpiringDocuments sends one consolidated notice about the given
// documents. all is every document of the client and feeds the "still
// valid" section.
func (n *Notifier) ExpiringDocuments(ctx context.Context, c *models.Client, expiring, all []*models.Document, checklist []catalog.ChecklistEntry) int {
	if c.Email == "" || len(expiring) == 0 {
		return 0
	}
	lang := c.PreferredLanguage()
	today := timex.Today(n.clock())
	soon := today.AddDate(0, 0, expiringSoonDays)
	cutoff := today.AddDate(0, 0, expiringDays)

	data := emailData{
		ClientName: c.FullName(),
		Today:      today.Format(common.DisplayDate),
		Cutoff:     cutoff.Format(common.DisplayDate),
	}
	for _, d := range byExpiry(expiring) {
		line := documentLine(d, lang)
		switch {
		case d.ExpiryDate.Before(today):
			data.Expired = append(data.Expired, line)
		case !d.ExpiryDate.After(soon):
			data.ExpiringSoon = append(data.ExpiringSoon, line)
		default:
			data.ExpiringLater = append(data.ExpiringLater, line)
		}
	}
	for _, d := range byExpiry(all) {
		if d.ExpiryDate.After(cutoff) {
			data.Valid = append(data.Valid, documentLine(d, lang))
		}
	}
	for _, e := range checklist {
		if !e.IsUploaded {
			data.Missing = append(data.Missing, DocumentLine{Name: e.Label})
		}
	}
	return n.send(ctx, c, KeyExpiringDocuments, data)
}

// ExpiredDocuments reports documents that expired on or before today,
// sent once fingerprints have been taken.
func (n *Notifier) ExpiredDocuments(ctx context.Context, c *models.Client, docs []*models.Document) int {
	if c.Email == "" {
		return 0
	}
	lang := c.PreferredLanguage()
	today := timex.Today(n.clock())
	data := emailData{ClientName: c.FullName(), Today: today.Format(common.DisplayDate)}
	if c.FingerprintsDate != nil {
		data.FingerprintsDate = c.FingerprintsDate.Format(common.DisplayDate)
	}
	for _, d := range byExpiry(docs) {
		if !d.ExpiryDate.After(today) {
			data.Expired = append(data.Expired, documentLine(d, lang))
		}
	}
	if len(data.Expired) == 0 {
		return 0
	}
	return n.send(ctx, c, KeyExpiredDocuments, data)
}

// Appointment announces the fingerprint appointment stored on the client.
func (n *Notifier) Appointment(ctx context.Context, c *models.Client) int {
	if c.Email == "" || c.FingerprintsDate == nil {
		return 0
	}
	data := emailData{
		ClientName:           c.FullName(),
		FingerprintsDate:     c.FingerprintsDate.Format(common.DisplayDate),
		FingerprintsTime:     c.FingerprintsTime,
		FingerprintsLocation: c.FingerprintsLocation,
	}
	return n.send(ctx, c, KeyAppointment, data)
}

func (n *Notifier) send(ctx context.Context, c *models.Client, key Key, data emailData) int {
	lang := c.PreferredLanguage()
	body, err := n.templates.render(key, lang, data)
	if err != nil {
		n.log.Error(ctx, "render email failed", "key", key, "client_id", c.ID, "error", err)
		return 0
	}
	sent, err := n.sender.Send(ctx, Subject(key, lang), body, []string{c.Email})
	if err != nil {
		n.log.Warn(ctx, "send email failed", "key", key, "client_id", c.ID, "error", err)
		return 0
	}
	metrics.EmailsSent.WithLabelValues(string(key)).Add(float64(sent))
	n.log.Info(ctx, "email sent", "key", key, "client_id", c.ID)
	return sent
}

func documentLine(d *models.Document, lang string) DocumentLine {
	line := DocumentLine{Name: catalog.LabelFor(d.DocumentType, lang)}
	if d.ExpiryDate != nil {
		line.ExpiryDate = d.ExpiryDate.Format(common.DisplayDate)
	}
	return line
}

// byExpiry returns the documents that have an expiry date, soonest first.
func byExpiry(docs []*models.Document) []*models.Document {
	out := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if d.ExpiryDate != nil {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(*out[j].ExpiryDate) })
	return out
}

func latestUpload(docs []*models.Document) *models.Document {
	var latest *models.Document
	for _, d := range docs {
		if latest == nil || d.UploadedAt.After(latest.UploadedAt) {
			latest = d
		}
	}
	return latest
}
