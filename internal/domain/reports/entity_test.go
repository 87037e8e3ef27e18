package reports

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calicode24/calicode/internal/domain/compliance"
)

func TestFromAnalysisAndBack(t *testing.T) {
	a := compliance.Demo()
	docID := "doc-1"
	r := FromAnalysis("rep-1", "proj-1", &docID, a, json.RawMessage(`{}`), "gemini-1.5-pro")

	assert.Equal(t, a.Reasoning, r.AISummary)
	require.NotNil(t, r.ModelVersion)
	assert.Equal(t, "gemini-1.5-pro", *r.ModelVersion)
	assert.Equal(t, a, r.Analysis())
}

func TestAnalysisFillsNilLists(t *testing.T) {
	r := &Report{PassFailStatus: compliance.StatusPass, AISummary: "ok"}
	a := r.Analysis()
	assert.Equal(t, "ok", a.Reasoning)
	assert.NotNil(t, a.Citations)
	assert.NotNil(t, a.Fixes)
	assert.Zero(t, a.Confidence)
}
