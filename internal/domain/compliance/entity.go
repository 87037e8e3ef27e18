package compliance

import "strings"

// Status is the verdict of a classification
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Analysis is the normalized classifier result returned to clients and
// persisted as a report.
type Analysis struct {
	Status     Status   `json:"status"`
	Confidence float64  `json:"confidence"`
	Citations  []string `json:"citations"`
	Reasoning  string   `json:"reasoning"`
	Fixes      []string `json:"fixes"`
}

// Source tells where an Analysis came from
type Source string

const (
	SourceModel     Source = "model"
	SourceDemo      Source = "demo"
	SourceMalformed Source = "malformed"
)

// Normalize upper-cases the status, clamps confidence to [0,1] and replaces
// nil lists with empty ones. It reports false when the status is not PASS/FAIL.
func (a *Analysis) Normalize() bool {
	switch Status(strings.ToUpper(strings.TrimSpace(string(a.Status)))) {
	case StatusPass:
		a.Status = StatusPass
	case StatusFail:
		a.Status = StatusFail
	default:
		return false
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	if a.Citations == nil {
		a.Citations = []string{}
	}
	if a.Fixes == nil {
		a.Fixes = []string{}
	}
	return true
}

// lowConfidenceExcerpt is how much raw model text is echoed back
const lowConfidenceExcerpt = 500

// LowConfidence builds the result for model output that could not be decoded.
func LowConfidence(raw string) Analysis {
	excerpt := []rune(raw)
	if len(excerpt) > lowConfidenceExcerpt {
		excerpt = excerpt[:lowConfidenceExcerpt]
	}
	return Analysis{
		Status:     StatusFail,
		Confidence: 0.2,
		Citations:  []string{},
		Reasoning:  "AI returned non-structured response: " + string(excerpt),
		Fixes:      []string{"Please re-upload a clearer image for better analysis."},
	}
}
