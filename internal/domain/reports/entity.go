package reports

import (
	"encoding/json"
	"time"

	"github.com/calicode24/calicode/internal/domain/compliance"
)

// Report is the persisted verdict of one classification run. Rows are never updated.
type Report struct {
	ID             string            `json:"id" db:"id"`
	ProjectID      string            `json:"project_id" db:"project_id"`
	DocumentID     *string           `json:"document_id" db:"document_id"`
	AISummary      string            `json:"ai_summary" db:"ai_summary"`
	PassFailStatus compliance.Status `json:"pass_fail_status" db:"pass_fail_status"`
	Confidence     *float64          `json:"confidence" db:"confidence"`
	Citations      []string          `json:"citations" db:"-"`
	Reasoning      *string           `json:"reasoning" db:"reasoning"`
	SuggestedFixes []string          `json:"suggested_fixes" db:"-"`
	RawAIResponse  json.RawMessage   `json:"raw_ai_response" db:"-"`
	ModelVersion   *string           `json:"model_version" db:"model_version"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// FromAnalysis builds a report row for a project from a classifier result.
func FromAnalysis(id, projectID string, documentID *string, a compliance.Analysis, raw json.RawMessage, model string) *Report {
	confidence := a.Confidence
	reasoning := a.Reasoning
	r := &Report{
		ID:             id,
		ProjectID:      projectID,
		DocumentID:     documentID,
		AISummary:      a.Reasoning,
		PassFailStatus: a.Status,
		Confidence:     &confidence,
		Citations:      a.Citations,
		Reasoning:      &reasoning,
		SuggestedFixes: a.Fixes,
		RawAIResponse:  raw,
	}
	if model != "" {
		r.ModelVersion = &model
	}
	return r
}

// Analysis turns a stored report back into the shape shown on the result screen.
func (r *Report) Analysis() compliance.Analysis {
	a := compliance.Analysis{
		Status:    r.PassFailStatus,
		Citations: r.Citations,
		Reasoning: r.AISummary,
		Fixes:     r.SuggestedFixes,
	}
	if r.Confidence != nil {
		a.Confidence = *r.Confidence
	}
	if r.Reasoning != nil && *r.Reasoning != "" {
		a.Reasoning = *r.Reasoning
	}
	if a.Citations == nil {
		a.Citations = []string{}
	}
	if a.Fixes == nil {
		a.Fixes = []string{}
	}
	return a
}
