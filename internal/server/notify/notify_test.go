package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/models"
)

type sentMail struct {
	subject    string
	body       string
	recipients []string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, subject, body string, recipients []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, sentMail{subject, body, recipients})
	return len(recipients), nil
}

var today = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func newNotifier(t *testing.T, s Sender) *Notifier {
	t.Helper()
	n, err := NewNotifier(s, logging.Discard(), func() time.Time { return today })
	require.NoError(t, err)
	return n
}

func client(lang string) *models.Client {
	return &models.Client{ID: 7, FirstName: "Jan", LastName: "Kowalski", Email: "jan@example.com", Language: lang}
}

func TestTemplatesLoadForEveryKeyAndLanguage(t *testing.T) {
	ts, err := loadTemplates()
	require.NoError(t, err)
	for key := range subjects {
		for _, lang := range []string{"pl", "en", "ru"} {
			_, err := ts.render(key, lang, emailData{})
			assert.NoError(t, err, "%s/%s", lang, key)
			assert.NotEmpty(t, Subject(key, lang))
		}
	}
	assert.Empty(t, Subject("unknown", "pl"))
}

func TestMissingDocuments(t *testing.T) {
	s := &fakeSender{}
	n := newNotifier(t, s)
	checklist := []catalog.ChecklistEntry{
		{Item: catalog.Item{Code: "passport", Label: "Paszport"}, IsUploaded: true, Documents: []*models.Document{
			{DocumentType: "passport", ExpiryDate: day(100), UploadedAt: today.Add(-time.Hour)},
		}},
		{Item: catalog.Item{Code: "photos", Label: "4 zdjęcia"}},
	}

	sent := n.MissingDocuments(context.Background(), client("pl"), checklist)
	require.Equal(t, 1, sent)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "Lista brakujących dokumentów", s.sent[0].subject)
	assert.Equal(t, []string{"jan@example.com"}, s.sent[0].recipients)
	assert.Contains(t, s.sent[0].body, "Jan Kowalski")
	assert.Contains(t, s.sent[0].body, "- 4 zdjęcia")
	assert.Contains(t, s.sent[0].body, "Paszport: ważny do 18.08.2024")
}

func TestMissingDocuments_NothingMissingOrNoEmail(t *testing.T) {
	s := &fakeSender{}
	n := newNotifier(t, s)
	complete := []catalog.ChecklistEntry{{Item: catalog.Item{Code: "passport", Label: "Paszport"}, IsUploaded: true}}

	assert.Zero(t, n.MissingDocuments(context.Background(), client("pl"), complete))

	c := client("pl")
	c.Email = ""
	assert.Zero(t, n.MissingDocuments(context.Background(), c, []catalog.ChecklistEntry{{Item: catalog.Item{Label: "x"}}}))
	assert.Empty(t, s.sent)
}

func TestExpiringDocuments_Sections(t *testing.T) {
	s := &fakeSender{}
	n := newNotifier(t, s)
	soon := &models.Document{DocumentType: "passport", ExpiryDate: day(2)}
	later := &models.Document{DocumentType: "health_insurance", ExpiryDate: day(6)}
	valid := &models.Document{DocumentType: "address_proof", ExpiryDate: day(60)}

	sent := n.ExpiringDocuments(context.Background(), client("en"),
		[]*models.Document{later, soon},
		[]*models.Document{soon, later, valid},
		[]catalog.ChecklistEntry{{Item: catalog.Item{Label: "Photos"}}})
	require.Equal(t, 1, sent)
	body := s.sent[0].body
	assert.Equal(t, "Documents expiring soon", s.sent[0].subject)
	assert.Contains(t, body, "Expiring in the next few days:\n- Passport: 12.05.2024")
	assert.Contains(t, body, "Expiring before 17.05.2024:\n- Health insurance 30,000 EUR: 16.05.2024")
	assert.Contains(t, body, "Still valid:\n- Proof of address (rental agreement, bills): 09.07.2024")
	assert.Contains(t, body, "Missing documents:\n- Photos")
	assert.NotContains(t, body, "Expired:")
}

func TestExpiredDocuments(t *testing.T) {
	s := &fakeSender{}
	n := newNotifier(t, s)
	c := client("ru")
	c.FingerprintsDate = day(-3)

	assert.Zero(t, n.ExpiredDocuments(context.Background(), c, []*models.Document{{DocumentType: "passport", ExpiryDate: day(5)}}))

	sent := n.ExpiredDocuments(context.Background(), c, []*models.Document{{DocumentType: "passport", ExpiryDate: day(0)}})
	require.Equal(t, 1, sent)
	assert.Equal(t, "Истекшие документы после сдачи отпечатков", s.sent[0].subject)
	assert.Contains(t, s.sent[0].body, "07.05.2024")
	assert.Contains(t, s.sent[0].body, "10.05.2024")
}

func TestAppointment(t *testing.T) {
	s := &fakeSender{}
	n := newNotifier(t, s)
	c := client("pl")
	assert.Zero(t, n.Appointment(context.Background(), c))

	c.FingerprintsDate = day(14)
	c.FingerprintsTime = "09:30"
	c.FingerprintsLocation = "pokój 12"
	require.Equal(t, 1, n.Appointment(context.Background(), c))
	body := s.sent[0].body
	assert.Contains(t, body, "Data: 24.05.2024")
	assert.Contains(t, body, "Godzina: 09:30")
	assert.Contains(t, body, "Miejsce: pokój 12")
}

func TestRequiredDocuments(t *testing.T) {
	s := &fakeSender{}
	n := newNotifier(t, s)
	assert.Zero(t, n.RequiredDocuments(context.Background(), client("pl"), nil))

	sent := n.RequiredDocuments(context.Background(), client("de"), []catalog.ChecklistEntry{
		{Item: catalog.Item{Label: "Paszport"}},
	})
	require.Equal(t, 1, sent)
	assert.Equal(t, "Lista wymaganych dokumentów", s.sent[0].subject)
}

func TestSendFailureIsSwallowed(t *testing.T) {
	n := newNotifier(t, &fakeSender{err: errors.New("smtp down")})
	c := client("pl")
	c.FingerprintsDate = day(1)
	assert.Zero(t, n.Appointment(context.Background(), c))
}

func TestLogSender_DeliversNothing(t *testing.T) {
	n, err := NewLogSender(logging.Discard()).Send(context.Background(), "s", "b", []string{"a@example.com"})
	require.NoError(t, err)
	assert.Zero(t, n)
}
