package reports

import "context"

// Repository persists report rows
type Repository interface {
	// Insert stores r. Inserting an id that already exists is a no-op.
	Insert(ctx context.Context, r *Report) error
	ListByProject(ctx context.Context, projectID string) ([]*Report, error)
}
