package sqlrepo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/domain/documents"
)

type DocumentRepository struct{ db *sqlx.DB }

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository { return &DocumentRepository{db: db} }

const documentColumns = `id, project_id, file_url, file_name, file_size, mime_type, document_type, recognized_text, created_at`

func (r *DocumentRepository) Insert(ctx context.Context, d *documents.Document) error {
	if d.DocumentType == "" {
		d.DocumentType = documents.TypeOther
	}
	d.CreatedAt = utc(d.CreatedAt)

	q := insertIgnore(r.db, `INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		d.ID, d.ProjectID, d.FileURL, d.FileName, d.FileSize, d.MimeType, d.DocumentType, d.RecognizedText, d.CreatedAt,
	)
	return err
}

func (r *DocumentRepository) ListByProject(ctx context.Context, projectID string) ([]*documents.Document, error) {
	out := []*documents.Document{}
	q := r.db.Rebind(`SELECT ` + documentColumns + ` FROM documents WHERE project_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &out, q, projectID); err != nil {
		return nil, err
	}
	return out, nil
}
