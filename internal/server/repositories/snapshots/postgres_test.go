package snapshots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestLoadAll(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT\s+proceeding_id,\s*case_number,\s*status,\s*raw_payload,\s*updated_at\s+FROM\s+inpol_proceeding_snapshot$`).
		WillReturnRows(sqlmock.NewRows([]string{"proceeding_id", "case_number", "status", "raw_payload", "updated_at"}).
			AddRow("abc", "AB-123", "open", []byte(`{"id":"abc","status":"open"}`), time.Now()).
			AddRow("def", "", "", []byte(`{}`), time.Now()))

	got, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "open", got["abc"].Status)
	assert.Equal(t, "abc", got["abc"].Raw["id"])
}

func TestLoadAll_BadPayload(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+inpol_proceeding_snapshot`).
		WillReturnRows(sqlmock.NewRows([]string{"proceeding_id", "case_number", "status", "raw_payload", "updated_at"}).
			AddRow("abc", "", "", []byte(`{`), time.Now()))

	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
}

func TestSaveSnapshot_UpsertsEach(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^INSERT\s+INTO\s+inpol_proceeding_snapshot.*ON\s+CONFLICT\s+\(proceeding_id\)\s+DO\s+UPDATE`

	mock.ExpectExec(q).WithArgs("abc", "AB-123", "closed", `{"id":"abc","status":"closed"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("def", "", "new", `{}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveSnapshot(context.Background(), []models.Proceeding{
		{ID: "abc", CaseNumber: "AB-123", Status: "closed", Raw: map[string]any{"id": "abc", "status": "closed"}},
		{ID: "def", Status: "new"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSnapshot_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+inpol_proceeding_snapshot`).WillReturnError(errors.New("down"))

	err := repo.SaveSnapshot(context.Background(), []models.Proceeding{{ID: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}
