// Package projects serves the dashboard and project workspace use cases.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/calicode24/calicode/internal/application"
	"github.com/calicode24/calicode/internal/domain/compliance"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/profiles"
	domain "github.com/calicode24/calicode/internal/domain/projects"
	"github.com/calicode24/calicode/internal/domain/reports"
	"github.com/calicode24/calicode/internal/domain/tiers"
	"github.com/calicode24/calicode/internal/logger"
)

type Service struct {
	Projects  domain.Repository
	Documents documents.Repository
	Reports   reports.Repository
	Profiles  profiles.Repository
	Clock     application.Clock
	Log       logger.Interface
}

// Stats counts projects by outcome
type Stats struct {
	Total int `json:"total"`
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`
}

// Dashboard is everything the dashboard shows for one user. Remaining is nil
// for tiers without a monthly cap.
type Dashboard struct {
	Email             string            `json:"email"`
	FullName          string            `json:"fullName,omitempty"`
	Tier              tiers.Tier        `json:"tier"`
	Limits            tiers.Limits      `json:"limits"`
	Projects          []*domain.Project `json:"projects"`
	ProjectsThisMonth int               `json:"projectsThisMonth"`
	CanCreate         bool              `json:"canCreate"`
	Remaining         *int              `json:"remaining"`
	Stats             Stats             `json:"stats"`
}

// Workspace is one project with its history
type Workspace struct {
	Project   *domain.Project       `json:"project"`
	Documents []*documents.Document `json:"documents"`
	Reports   []*reports.Report     `json:"reports"`
	Tier      tiers.Tier            `json:"tier"`
}

// Latest returns the newest report, if any
func (w *Workspace) Latest() *reports.Report {
	if len(w.Reports) == 0 {
		return nil
	}
	return w.Reports[0]
}

// tier loads the user's tier; a missing profile counts as free.
func (s *Service) tier(ctx context.Context, userID string) (*profiles.Profile, tiers.Tier, error) {
	p, err := s.Profiles.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tiers.Free, nil
	}
	if err != nil {
		return nil, tiers.Free, fmt.Errorf("load profile: %w", err)
	}
	return p, p.Tier(), nil
}

// Dashboard loads the user's projects and quota. query filters titles,
// case-insensitively; stats and quota always cover every project.
func (s *Service) Dashboard(ctx context.Context, userID, email, query string) (*Dashboard, error) {
	var (
		profile *profiles.Profile
		tier    tiers.Tier
		list    []*domain.Project
		used    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, tier, err = s.tier(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		list, err = s.Projects.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		used, err = s.Projects.CountCreatedSince(gctx, userID, domain.MonthStart(s.clock().Now()))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Email:             email,
		Tier:              tier,
		Limits:            tiers.LimitsFor(tier),
		Projects:          filter(list, query),
		ProjectsThisMonth: used,
		CanCreate:         tiers.CanCreateProject(tier, used),
	}
	if profile != nil {
		if profile.Email != "" {
			d.Email = profile.Email
		}
		if profile.FullName != nil {
			d.FullName = *profile.FullName
		}
	}
	if remaining, limited := tiers.ProjectsRemaining(tier, used); limited {
		d.Remaining = &remaining
	}
	for _, p := range list {
		d.Stats.Total++
		switch p.Status {
		case domain.StatusCompliant:
			d.Stats.Pass++
		case domain.StatusFailed:
			d.Stats.Fail++
		}
	}
	return d, nil
}

func filter(list []*domain.Project, query string) []*domain.Project {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]*domain.Project, 0, len(list))
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// Create adds a draft project when the tier allows another one this month.
func (s *Service) Create(ctx context.Context, userID, title, description string) (*domain.Project, error) {
	_, tier, err := s.tier(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock().Now()
	p := &domain.Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Status:    domain.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d := strings.TrimSpace(description); d != "" {
		p.Description = &d
	}
	allow := func(used int) bool { return tiers.CanCreateProject(tier, used) }
	used, err := s.Projects.InsertWithinQuota(ctx, p, domain.MonthStart(now), allow)
	if errors.Is(err, domain.ErrQuotaReached) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	s.logger().Info("project created", "user_id", userID, "project_id", p.ID, "tier", tier, "used_this_month", used+1)
	return p, nil
}

// Workspace loads a project with its documents and reports in parallel.
// A project the user does not own is sql.ErrNoRows.
func (s *Service) Workspace(ctx context.Context, userID, projectID string) (*Workspace, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, sql.ErrNoRows
	}
	project, err := s.Projects.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	w := &Workspace{Project: project}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		w.Documents, err = s.Documents.ListByProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		w.Reports, err = s.Reports.ListByProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		_, w.Tier, err = s.tier(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return w, nil
}

// StatusLabel is the badge text for a project or report status
func StatusLabel(status string) string {
	switch status {
	case string(compliance.StatusPass), string(domain.StatusCompliant):
		return "Pass"
	case string(compliance.StatusFail), string(domain.StatusFailed):
		return "Requires Review"
	case string(domain.StatusDraft):
		return "Draft"
	case string(domain.StatusProcessing):
		return "Processing"
	default:
		return "Pending"
	}
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) logger() logger.Interface {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}
