package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/calicode24/calicode/internal/domain/compliance"
)

var fence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// MalformedError carries model text that is not a valid analysis.
type MalformedError struct {
	Raw   string
	Cause error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed analysis: %v", e.Cause)
}

func (e *MalformedError) Unwrap() error { return e.Cause }

// StripFence returns the body of the first code fence in text, or text itself, trimmed.
func StripFence(text string) string {
	if m := fence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ParseAnalysis decodes model text into an Analysis. Anything that is not a
// JSON object with a PASS/FAIL status yields a *MalformedError.
func ParseAnalysis(text string) (compliance.Analysis, error) {
	var a compliance.Analysis
	if err := json.Unmarshal([]byte(StripFence(text)), &a); err != nil {
		return compliance.Analysis{}, &MalformedError{Raw: text, Cause: err}
	}
	if !a.Normalize() {
		return compliance.Analysis{}, &MalformedError{Raw: text, Cause: fmt.Errorf("status %q", a.Status)}
	}
	return a, nil
}
