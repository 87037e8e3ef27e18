package projects

import (
	"context"
	"time"
)

// Repository port for projects. Reads are always scoped to an owner.
type Repository interface {
	Insert(ctx context.Context, p *Project) error
	Get(ctx context.Context, userID, id string) (*Project, error)
	ListByUser(ctx context.Context, userID string) ([]*Project, error)
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)
	// InsertWithinQuota counts the owner's projects created since `since` and
	// inserts p only when allow(count) holds, serialized per owner. It returns
	// the count seen and ErrQuotaReached when p was not inserted.
	InsertWithinQuota(ctx context.Context, p *Project, since time.Time, allow func(used int) bool) (int, error)
	// UpdateStatus changes the status of a project owned by userID.
	// sql.ErrNoRows is returned when no such project exists.
	UpdateStatus(ctx context.Context, userID, id string, status Status) error
}
