package sqlrepo

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/domain/reports"
)

type ReportRepository struct{ db *sqlx.DB }

func NewReportRepository(db *sqlx.DB) *ReportRepository { return &ReportRepository{db: db} }

const reportColumns = `id, project_id, document_id, ai_summary, pass_fail_status, confidence, citations, reasoning, suggested_fixes, raw_ai_response, model_version, created_at`

// reportRow carries the JSON columns the domain type keeps out of sqlx
type reportRow struct {
	reports.Report
	CitationsCol StringList `db:"citations"`
	FixesCol     StringList `db:"suggested_fixes"`
	RawCol       RawJSON    `db:"raw_ai_response"`
}

func (r *ReportRepository) Insert(ctx context.Context, rep *reports.Report) error {
	rep.CreatedAt = utc(rep.CreatedAt)

	q := insertIgnore(r.db, `INSERT INTO reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		rep.ID, rep.ProjectID, rep.DocumentID, rep.AISummary, rep.PassFailStatus, rep.Confidence,
		StringList(rep.Citations), rep.Reasoning, StringList(rep.SuggestedFixes), RawJSON(rep.RawAIResponse),
		rep.ModelVersion, rep.CreatedAt,
	)
	return err
}

// ListByProject returns reports newest first
func (r *ReportRepository) ListByProject(ctx context.Context, projectID string) ([]*reports.Report, error) {
	var rows []reportRow
	q := r.db.Rebind(`SELECT ` + reportColumns + ` FROM reports WHERE project_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &rows, q, projectID); err != nil {
		return nil, err
	}

	out := make([]*reports.Report, 0, len(rows))
	for i := range rows {
		rep := rows[i].Report
		rep.Citations = rows[i].CitationsCol
		rep.SuggestedFixes = rows[i].FixesCol
		if len(rows[i].RawCol) > 0 {
			rep.RawAIResponse = json.RawMessage(rows[i].RawCol)
		}
		out = append(out, &rep)
	}
	return out, nil
}
