package inpol

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	items    []map[string]any
	signIns  int
	signInEr error
}

func (p *fakePortal) SignIn(context.Context, Credentials) (*AuthResult, error) {
	p.signIns++
	if p.signInEr != nil {
		return nil, p.signInEr
	}
	return &AuthResult{}, nil
}

func (p *fakePortal) FetchActiveProceedings(context.Context) ([]map[string]any, error) {
	return p.items, nil
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, audit.RequestContext, audit.Event) {}

func newWatcher(t *testing.T, portal Portal) (*Watcher, *memory.InMemoryRepositoryManager) {
	t.Helper()
	db, err := memory.OpenTxDB(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	m := memory.NewInMemoryRepositoryManager(memory.NewStore())
	return NewWatcher(portal, db, m, logging.Discard()), m
}

func TestWatcher_Check(t *testing.T) {
	ctx := context.Background()
	portal := &fakePortal{items: []map[string]any{{"id": "abc", "caseNumber": "AB-123", "status": "open"}}}
	w, m := newWatcher(t, portal)
	cr := Credentials{Email: "staff@example.com", Password: "x"}

	changes, err := w.Check(ctx, cr)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].PreviousStatus)
	assert.Equal(t, "AB-123", changes[0].Proceeding.CaseNumber)

	portal.items = []map[string]any{
		{"id": "abc", "caseNumber": "AB-123", "status": "closed"},
		{"id": "def", "status": "open"},
	}
	changes, err = w.Check(ctx, cr)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.NotNil(t, changes[0].PreviousStatus)
	assert.Equal(t, "open", *changes[0].PreviousStatus)
	assert.Equal(t, "closed", changes[0].Proceeding.Status)
	assert.Nil(t, changes[1].PreviousStatus)
	assert.Equal(t, "def", changes[1].Proceeding.ID)

	changes, err = w.Check(ctx, cr)
	require.NoError(t, err)
	assert.Empty(t, changes)

	stored, err := m.Snapshots(nil).LoadAll(ctx)
	require.NoError(t, err)
	for _, item := range portal.items {
		p, _ := ParseProceeding(item)
		assert.Equal(t, p.Status, stored[p.ID].Status)
	}
	assert.Equal(t, 3, portal.signIns)
}

func TestWatcher_CheckFailsOnBadRecord(t *testing.T) {
	portal := &fakePortal{items: []map[string]any{{"status": "open"}}}
	w, m := newWatcher(t, portal)

	_, err := w.Check(context.Background(), Credentials{})
	assert.ErrorIs(t, err, common.ErrUnexpectedPayload)
	stored, _ := m.Snapshots(nil).LoadAll(context.Background())
	assert.Empty(t, stored)
}

func TestWatcher_SignInFailure(t *testing.T) {
	portal := &fakePortal{signInEr: &StatusError{Code: 403}}
	w, _ := newWatcher(t, portal)
	_, err := w.Check(context.Background(), Credentials{})
	assert.True(t, IsAuthError(err))
}

func TestUpdater_Apply(t *testing.T) {
	ctx := context.Background()
	db, err := memory.OpenTxDB(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	m := memory.NewInMemoryRepositoryManager(memory.NewStore())
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	u := NewUpdater(db, m, nopRecorder{}, func() time.Time { return now }, logging.Discard())

	byCase, err := m.Clients(nil).Create(ctx, &models.Client{CaseNumber: cryptox.NewSecret("AB-123")})
	require.NoError(t, err)
	byEmail, err := m.Clients(nil).Create(ctx, &models.Client{Email: "Owner@Example.com"})
	require.NoError(t, err)

	changes := []models.ProceedingChange{
		{Proceeding: models.Proceeding{ID: "abc", CaseNumber: "AB-123", Status: "decision issued"}},
		{Proceeding: models.Proceeding{ID: "xyz", Status: "open"}},
	}
	applied, err := u.Apply(ctx, changes, "owner@example.com")
	require.NoError(t, err)
	require.Len(t, applied, 2)

	got, _ := m.Clients(nil).GetByID(ctx, byCase.ID)
	assert.Equal(t, "decision issued", got.InpolStatus)
	require.NotNil(t, got.InpolUpdatedAt)
	assert.Equal(t, now, *got.InpolUpdatedAt)
	assert.Equal(t, "AB-123", got.CaseNumber.Reveal())

	got, _ = m.Clients(nil).GetByID(ctx, byEmail.ID)
	assert.Equal(t, "open", got.InpolStatus)
	assert.True(t, got.CaseNumber.IsEmpty())

	other := []models.ProceedingChange{{Proceeding: models.Proceeding{ID: "q", Status: "open"}}}
	applied, err = u.ApplyToClient(ctx, other, "owner@example.com", byCase.ID)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestUpdater_FillsEmptyCaseNumber(t *testing.T) {
	ctx := context.Background()
	db, err := memory.OpenTxDB(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	m := memory.NewInMemoryRepositoryManager(memory.NewStore())
	u := NewUpdater(db, m, nopRecorder{}, nil, logging.Discard())

	c, err := m.Clients(nil).Create(ctx, &models.Client{Email: "user@example.com"})
	require.NoError(t, err)

	applied, err := u.ApplyToClient(ctx, []models.ProceedingChange{
		{Proceeding: models.Proceeding{ID: "xyz", CaseNumber: "CD-456", Status: "processing"}},
	}, "user@example.com", c.ID)
	require.NoError(t, err)
	require.Len(t, applied, 1)

	got, _ := m.Clients(nil).GetByID(ctx, c.ID)
	assert.Equal(t, "CD-456", got.CaseNumber.Reveal())
	assert.Equal(t, "processing", got.InpolStatus)
	require.NotNil(t, got.CaseNumberHash)
	assert.Equal(t, *models.HashCaseNumber("CD-456"), *got.CaseNumberHash)

	// Found by case number now; a later status keeps the stored number.
	_, err = u.Apply(ctx, []models.ProceedingChange{
		{Proceeding: models.Proceeding{ID: "xyz", CaseNumber: " cd-456 ", Status: "closed"}},
	}, "")
	require.NoError(t, err)
	got, _ = m.Clients(nil).GetByID(ctx, c.ID)
	assert.Equal(t, "CD-456", got.CaseNumber.Reveal())
	assert.Equal(t, "closed", got.InpolStatus)
}

func TestFormatChange(t *testing.T) {
	open := "open"
	assert.Equal(t, "AB-123: open -> closed", FormatChange(models.ProceedingChange{
		Proceeding: models.Proceeding{ID: "abc", CaseNumber: "AB-123", Status: "closed"}, PreviousStatus: &open}))
	assert.Equal(t, "abc: (new) -> (empty)", FormatChange(models.ProceedingChange{
		Proceeding: models.Proceeding{ID: "abc"}}))
}

func TestResolveConfig(t *testing.T) {
	ctx := context.Background()
	env := map[string]string{}
	orig := Getenv
	Getenv = func(k string) string { return env[k] }
	t.Cleanup(func() { Getenv = orig })

	m := memory.NewInMemoryRepositoryManager(memory.NewStore())
	accounts := m.InpolAccounts(nil)

	_, err := ResolveConfig(ctx, Settings{}, accounts)
	assert.ErrorIs(t, err, common.ErrMissingCredentials)

	_, err = accounts.Create(ctx, &models.InpolAccount{Email: "acc@example.com", Password: "p", BaseURL: "https://acc", IsActive: true})
	require.NoError(t, err)
	env[EnvBaseURL] = "https://env"

	cfg, err := ResolveConfig(ctx, Settings{Email: "explicit@example.com"}, accounts)
	require.NoError(t, err)
	assert.Equal(t, "explicit@example.com", cfg.Credentials.Email)
	assert.Equal(t, "p", cfg.Credentials.Password)
	assert.Equal(t, "https://env", cfg.BaseURL)
	require.NotNil(t, cfg.Account)

	cfg, err = ResolveConfig(ctx, Settings{Email: "e", Password: "p", BaseURL: "b"}, accounts)
	require.NoError(t, err)
	assert.Nil(t, cfg.Account)
}

func TestWriteReport(t *testing.T) {
	var b strings.Builder
	WriteReport(&b, &CheckResult{})
	assert.Equal(t, "No changes detected.\n", b.String())

	b.Reset()
	ch := models.ProceedingChange{Proceeding: models.Proceeding{ID: "abc", CaseNumber: "AB-123", Status: "open"}}
	WriteReport(&b, &CheckResult{Changes: []models.ProceedingChange{ch}, Applied: []Applied{{ClientID: 1, Change: ch}}})
	assert.Equal(t, "AB-123: (new) -> open\nApplied 1 change(s) to client records.\n", b.String())
}
