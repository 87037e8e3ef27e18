package projects

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calicode24/calicode/internal/application"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/profiles"
	domain "github.com/calicode24/calicode/internal/domain/projects"
	"github.com/calicode24/calicode/internal/domain/reports"
	"github.com/calicode24/calicode/internal/domain/tiers"
)

type memProjects struct {
	mu   sync.Mutex
	rows []*domain.Project
}

func (m *memProjects) Insert(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, p)
	return nil
}

func (m *memProjects) Get(_ context.Context, userID, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ID == id && p.UserID == userID {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProjects) ListByUser(_ context.Context, userID string) ([]*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Project{}
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memProjects) CountCreatedSince(_ context.Context, userID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.rows {
		if p.UserID == userID && !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memProjects) InsertWithinQuota(_ context.Context, p *domain.Project, since time.Time, allow func(int) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	used := 0
	for _, r := range m.rows {
		if r.UserID == p.UserID && !r.CreatedAt.Before(since) {
			used++
		}
	}
	if !allow(used) {
		return used, domain.ErrQuotaReached
	}
	m.rows = append(m.rows, p)
	return used, nil
}

func (m *memProjects) UpdateStatus(context.Context, string, string, domain.Status) error { return nil }

type memProfiles struct{ byID map[string]*profiles.Profile }

func (m *memProfiles) Create(_ context.Context, p *profiles.Profile) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memProfiles) Get(_ context.Context, id string) (*profiles.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *memProfiles) SetStripeCustomer(context.Context, string, string) error { return nil }
func (m *memProfiles) SetTier(context.Context, string, tiers.Tier) error       { return nil }
func (m *memProfiles) SetTierByCustomer(context.Context, string, tiers.Tier) error {
	return nil
}

type memDocs struct{}

func (memDocs) Insert(context.Context, *documents.Document) error { return nil }
func (memDocs) ListByProject(_ context.Context, projectID string) ([]*documents.Document, error) {
	return []*documents.Document{{ID: "d1", ProjectID: projectID}}, nil
}

type memReports struct{}

func (memReports) Insert(context.Context, *reports.Report) error { return nil }
func (memReports) ListByProject(_ context.Context, projectID string) ([]*reports.Report, error) {
	return []*reports.Report{{ID: "r2", ProjectID: projectID}, {ID: "r1", ProjectID: projectID}}, nil
}

const user = "u-1"

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newService(tier tiers.Tier) (*Service, *memProjects) {
	mp := &memProjects{}
	return &Service{
		Projects:  mp,
		Documents: memDocs{},
		Reports:   memReports{},
		Profiles:  &memProfiles{byID: map[string]*profiles.Profile{user: {ID: user, Email: "a@b.co", SubscriptionTier: tier}}},
		Clock:     application.FixedClock{T: now},
	}, mp
}

func TestFreeTierQuota(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(tiers.Free)
	// last month's project does not count
	require.NoError(t, repo.Insert(ctx, &domain.Project{ID: "old", UserID: user, Title: "Old", CreatedAt: now.AddDate(0, -1, 0), Status: domain.StatusCompliant}))

	d, err := svc.Dashboard(ctx, user, "", "")
	require.NoError(t, err)
	assert.True(t, d.CanCreate)
	require.NotNil(t, d.Remaining)
	assert.Equal(t, 1, *d.Remaining)

	_, err = svc.Create(ctx, user, "  Smith Residence ", "")
	require.NoError(t, err)

	d, err = svc.Dashboard(ctx, user, "", "")
	require.NoError(t, err)
	assert.False(t, d.CanCreate)
	assert.Equal(t, 0, *d.Remaining)
	assert.Equal(t, 1, d.ProjectsThisMonth)
	assert.Equal(t, Stats{Total: 2, Pass: 1}, d.Stats)
	assert.Equal(t, "Smith Residence", d.Projects[0].Title)
	assert.Equal(t, "Free Tier", d.Limits.Label)

	_, err = svc.Create(ctx, user, "Second", "")
	assert.ErrorIs(t, err, domain.ErrQuotaReached)
}

func TestProTierUnlimited(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(tiers.Pro)
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, user, "Job", "")
		require.NoError(t, err)
	}
	d, err := svc.Dashboard(ctx, user, "", "")
	require.NoError(t, err)
	assert.True(t, d.CanCreate)
	assert.Nil(t, d.Remaining)
	assert.Equal(t, 5, d.ProjectsThisMonth)
}

func TestMissingProfileIsFree(t *testing.T) {
	svc, _ := newService(tiers.Pro)
	d, err := svc.Dashboard(context.Background(), "someone-else", "x@y.co", "")
	require.NoError(t, err)
	assert.Equal(t, tiers.Free, d.Tier)
	assert.Equal(t, "x@y.co", d.Email)
}

func TestDashboardSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(tiers.Pro)
	for _, title := range []string{"Smith Residence", "Jones Remodel", "smith garage"} {
		_, err := svc.Create(ctx, user, title, "")
		require.NoError(t, err)
	}

	d, err := svc.Dashboard(ctx, user, "", "SMITH")
	require.NoError(t, err)
	require.Len(t, d.Projects, 2)
	for _, p := range d.Projects {
		assert.Contains(t, strings.ToLower(p.Title), "smith")
	}
	assert.Equal(t, 3, d.Stats.Total)
}

func TestWorkspace(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(tiers.Pro)
	p, err := svc.Create(ctx, user, "Job", "attic")
	require.NoError(t, err)

	w, err := svc.Workspace(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, w.Project.ID)
	assert.Len(t, w.Documents, 1)
	assert.Equal(t, "r2", w.Latest().ID)
	assert.Equal(t, tiers.Pro, w.Tier)

	_, err = svc.Workspace(ctx, "intruder", p.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = svc.Workspace(ctx, user, "not-a-uuid")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Pass", StatusLabel("PASS"))
	assert.Equal(t, "Pass", StatusLabel("compliant"))
	assert.Equal(t, "Requires Review", StatusLabel("FAIL"))
	assert.Equal(t, "Requires Review", StatusLabel("failed"))
	assert.Equal(t, "Draft", StatusLabel("draft"))
	assert.Equal(t, "Processing", StatusLabel("processing"))
	assert.Equal(t, "Pending", StatusLabel("PENDING"))
}
