package sqlrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/domain/projects"
)

type ProjectRepository struct{ db *sqlx.DB }

func NewProjectRepository(db *sqlx.DB) *ProjectRepository { return &ProjectRepository{db: db} }

const projectColumns = `id, user_id, title, description, status, created_at, updated_at`

func (r *ProjectRepository) Insert(ctx context.Context, p *projects.Project) error {
	return insertProject(ctx, r.db, p)
}

func insertProject(ctx context.Context, db sqlx.ExtContext, p *projects.Project) error {
	if p.Status == "" {
		p.Status = projects.StatusDraft
	}
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt

	q := db.Rebind(`INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := db.ExecContext(ctx, q, p.ID, p.UserID, p.Title, p.Description, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

// InsertWithinQuota takes a row lock on the owner's profile before counting,
// so concurrent creates for one owner run one after another. The no-op update
// is the lock on every dialect: a row lock on postgres and mysql, the write
// lock on sqlite.
func (r *ProjectRepository) InsertWithinQuota(ctx context.Context, p *projects.Project, since time.Time, allow func(used int) bool) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE profiles SET id = id WHERE id = ?`), p.UserID); err != nil {
		return 0, fmt.Errorf("lock owner: %w", err)
	}

	var used int
	q := tx.Rebind(`SELECT COUNT(*) FROM projects WHERE user_id = ? AND created_at >= ?`)
	if err := tx.GetContext(ctx, &used, q, p.UserID, since.UTC()); err != nil {
		return 0, err
	}
	if !allow(used) {
		return used, projects.ErrQuotaReached
	}
	if err := insertProject(ctx, tx, p); err != nil {
		return used, err
	}
	return used, tx.Commit()
}

// Get by ID + owner
func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (*projects.Project, error) {
	var p projects.Project
	q := r.db.Rebind(`SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? AND id = ?`)
	if err := r.db.GetContext(ctx, &p, q, userID, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the owner's projects, newest first
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*projects.Project, error) {
	out := []*projects.Project{}
	q := r.db.Rebind(`SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProjectRepository) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	q := r.db.Rebind(`SELECT COUNT(*) FROM projects WHERE user_id = ? AND created_at >= ?`)
	if err := r.db.GetContext(ctx, &n, q, userID, since.UTC()); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, userID, id string, status projects.Status) error {
	q := r.db.Rebind(`UPDATE projects SET status = ?, updated_at = ? WHERE user_id = ? AND id = ?`)
	res, err := r.db.ExecContext(ctx, q, status, time.Now().UTC(), userID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
