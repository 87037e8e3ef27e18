package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calicode24/calicode/internal/config"
	"github.com/calicode24/calicode/internal/domain/compliance"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/domain/profiles"
	"github.com/calicode24/calicode/internal/domain/projects"
	"github.com/calicode24/calicode/internal/domain/reports"
	"github.com/calicode24/calicode/internal/domain/tiers"
	"github.com/calicode24/calicode/internal/infra/db/migrations"
	"github.com/calicode24/calicode/internal/infra/db/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, migrations.NewRunner(cfg, nil).Up(ctx))

	db, err := sqlite.Connect(ctx, cfg.Database.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProfile(t *testing.T, db *sqlx.DB) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, NewProfileRepository(db).Create(context.Background(), &profiles.Profile{
		ID:    id,
		Email: id[:8] + "@example.com",
	}))
	return id
}

func TestProfileLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProfileRepository(db)

	id := seedProfile(t, db)
	p, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tiers.Free, p.Tier())
	assert.Nil(t, p.StripeCustomerID)

	// second create is ignored
	require.NoError(t, repo.Create(ctx, &profiles.Profile{ID: id, Email: "other@example.com", SubscriptionTier: tiers.Pro}))
	p, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tiers.Free, p.Tier())

	require.NoError(t, repo.SetStripeCustomer(ctx, id, "cus_123"))
	require.NoError(t, repo.SetTier(ctx, id, tiers.Pro))
	p, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tiers.Pro, p.Tier())
	require.NotNil(t, p.StripeCustomerID)
	assert.Equal(t, "cus_123", *p.StripeCustomerID)

	require.NoError(t, repo.SetTierByCustomer(ctx, "cus_123", tiers.Free))
	p, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tiers.Free, p.Tier())

	assert.ErrorIs(t, repo.SetTierByCustomer(ctx, "cus_missing", tiers.Free), sql.ErrNoRows)
	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestProjectsScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)
	owner, other := seedProfile(t, db), seedProfile(t, db)

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	old := &projects.Project{ID: uuid.NewString(), UserID: owner, Title: "February job", CreatedAt: now.AddDate(0, -1, 0)}
	cur := &projects.Project{ID: uuid.NewString(), UserID: owner, Title: "March job", CreatedAt: now}
	require.NoError(t, repo.Insert(ctx, old))
	require.NoError(t, repo.Insert(ctx, cur))

	list, err := repo.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, cur.ID, list[0].ID)
	assert.Equal(t, projects.StatusDraft, list[0].Status)

	n, err := repo.CountCreatedSince(ctx, owner, projects.MonthStart(now))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Get(ctx, other, cur.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, other, cur.ID, projects.StatusCompliant), sql.ErrNoRows)

	require.NoError(t, repo.UpdateStatus(ctx, owner, cur.ID, projects.StatusCompliant))
	got, err := repo.Get(ctx, owner, cur.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusCompliant, got.Status)

	empty, err := repo.ListByUser(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInsertWithinQuota(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)
	owner := seedProfile(t, db)

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	since := projects.MonthStart(now)
	one := func(used int) bool { return used < 1 }

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		refused int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &projects.Project{ID: uuid.NewString(), UserID: owner, Title: "Job", CreatedAt: now}
			_, err := repo.InsertWithinQuota(ctx, p, since, one)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, projects.ErrQuotaReached):
				refused++
			default:
				t.Errorf("insert: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, 3, refused)

	n, err := repo.CountCreatedSince(ctx, owner, since)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	used, err := repo.InsertWithinQuota(ctx, &projects.Project{ID: uuid.NewString(), UserID: owner, Title: "Next", CreatedAt: now}, since, one)
	assert.ErrorIs(t, err, projects.ErrQuotaReached)
	assert.Equal(t, 1, used)
}

func TestDocumentsAndReports(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedProfile(t, db)
	projectID := uuid.NewString()
	require.NoError(t, NewProjectRepository(db).Insert(ctx, &projects.Project{ID: projectID, UserID: owner, Title: "Smith residence"}))

	docs := NewDocumentRepository(db)
	size := int64(2048)
	mime := "image/jpeg"
	doc := &documents.Document{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		FileURL:      "https://storage.example.com/project-files/a.jpg",
		FileName:     "a.jpg",
		FileSize:     &size,
		MimeType:     &mime,
		DocumentType: documents.TypeFloorPlan,
	}
	require.NoError(t, docs.Insert(ctx, doc))
	require.NoError(t, docs.Insert(ctx, doc), "duplicate id is ignored")

	listed, err := docs.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, size, *listed[0].FileSize)

	reps := NewReportRepository(db)
	raw := json.RawMessage(`{"candidates":[{"content":{}}]}`)
	rep := reports.FromAnalysis(uuid.NewString(), projectID, &doc.ID, compliance.Demo(), raw, "gemini-2.0-flash")
	require.NoError(t, reps.Insert(ctx, rep))
	require.NoError(t, reps.Insert(ctx, rep))

	noDoc := reports.FromAnalysis(uuid.NewString(), projectID, nil, compliance.LowConfidence("???"), nil, "")
	noDoc.CreatedAt = time.Now().UTC().Add(time.Minute)
	require.NoError(t, reps.Insert(ctx, noDoc))

	got, err := reps.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	latest := got[0]
	assert.Equal(t, noDoc.ID, latest.ID)
	assert.Nil(t, latest.DocumentID)
	assert.Nil(t, latest.RawAIResponse)
	assert.Equal(t, []string{}, latest.Citations)
	assert.Len(t, latest.SuggestedFixes, 1)

	first := got[1]
	assert.Equal(t, compliance.StatusFail, first.PassFailStatus)
	assert.InDelta(t, 0.82, *first.Confidence, 1e-9)
	assert.Len(t, first.Citations, 5)
	assert.JSONEq(t, string(raw), string(first.RawAIResponse))
	assert.Equal(t, compliance.Demo(), first.Analysis())
}

func TestCredentials(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCredentialRepository(db)

	c := &identity.Credential{ID: uuid.NewString(), Email: " Sam@Example.com ", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, c))

	dup := &identity.Credential{ID: uuid.NewString(), Email: "sam@example.com", PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, dup), identity.ErrEmailTaken)

	got, err := repo.ByEmail(ctx, "SAM@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Nil(t, got.ConfirmedAt)

	require.NoError(t, repo.Confirm(ctx, c.ID, time.Now()))
	got, err = repo.ByID(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ConfirmedAt)
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)
	require.NoError(t, l.Scan(nil))
	assert.Equal(t, StringList{}, l)
	assert.Error(t, l.Scan(42))

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
