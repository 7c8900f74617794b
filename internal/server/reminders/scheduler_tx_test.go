package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	documentCols = []string{"id", "client_id", "document_type", "file", "expiry_date", "uploaded_at",
		"verified", "awaiting_confirmation"}
	paymentCols = []string{"id", "client_id", "service_description", "total_amount", "amount_paid", "status",
		"payment_method", "payment_date", "due_date", "transaction_id", "created_at", "updated_at"}
)

func newSQLScheduler(t *testing.T) (*Scheduler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	kr, err := cryptox.NewKeyring([]string{"scheduler-test"})
	require.NoError(t, err)
	m := repomanager.NewPostgresRepositoryManager(kr)

	clock := func() time.Time { return today.Add(9 * time.Hour) }
	return NewScheduler(db, m, nil, &nopRecorder{}, clock, logging.Discard()), mock
}

func expiringDocuments(mock sqlmock.Sqlmock, ids ...int64) {
	rows := sqlmock.NewRows(documentCols)
	for _, id := range ids {
		rows.AddRow(id, int64(1), "passport", "documents/passport.pdf", *day(10), today, false, false)
	}
	mock.ExpectQuery(`FROM document d`).WillReturnRows(rows)
}

func TestSweep_DocumentStepRollsBack(t *testing.T) {
	s, mock := newSQLScheduler(t)

	mock.ExpectBegin()
	expiringDocuments(mock, 11, 12)
	mock.ExpectQuery(`INSERT INTO reminder`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(100), today))
	mock.ExpectQuery(`INSERT INTO reminder`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	res, err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document reminders")
	assert.Contains(t, err.Error(), "document 12")
	assert.Equal(t, 1, res.DocumentReminders)
	assert.Zero(t, res.PaymentReminders)

	// the first insert went out with the rolled back tx and no payment tx was opened
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweep_PaymentStepRollsBackOnly(t *testing.T) {
	s, mock := newSQLScheduler(t)

	mock.ExpectBegin()
	expiringDocuments(mock, 11)
	mock.ExpectQuery(`INSERT INTO reminder`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(100), today))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payment p`).WillReturnRows(sqlmock.NewRows(paymentCols).
		AddRow(int64(21), int64(1), "work", "1800.00", "600.00", "partial", "transfer", today, today, nil, today, today).
		AddRow(int64(22), int64(2), "study", "900.00", "0.00", "pending", nil, nil, today, nil, today, today))
	mock.ExpectQuery(`INSERT INTO reminder`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(101), today))
	mock.ExpectQuery(`INSERT INTO reminder`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	res, err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment reminders")
	assert.Contains(t, err.Error(), "payment 22")
	assert.Equal(t, 1, res.DocumentReminders)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweep_ListFailureRollsBack(t *testing.T) {
	s, mock := newSQLScheduler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM document d`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document reminders")
	require.NoError(t, mock.ExpectationsWereMet())
}
