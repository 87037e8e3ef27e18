// Package workflow models the per-project upload -> scanning -> result screen flow.
package workflow

import "time"

// Step is the screen a project workspace shows
type Step string

const (
	StepUpload   Step = "upload"
	StepScanning Step = "scanning"
	StepResult   Step = "result"
)

// ScanSchedule is when the cosmetic scan indicator advances, relative to the
// start of scanning. The indicator never passes MaxTimedStep on its own.
var ScanSchedule = []time.Duration{
	800 * time.Millisecond,
	1500 * time.Millisecond,
	2500 * time.Millisecond,
	3500 * time.Millisecond,
}

const (
	MaxTimedStep = 4
	FinalStep    = 5
)

// Grace delays after the response lands: first the indicator jumps to
// FinalStep, then the result screen is shown.
const (
	FinalStepDelay = 500 * time.Millisecond
	ResultDelay    = 600 * time.Millisecond
)

// ScanLabels are the indicator captions, one per step
var ScanLabels = []string{
	"Uploading document...",
	"Extracting plan details...",
	"Checking Title 24 requirements...",
	"Analyzing HVAC specifications...",
	"Generating compliance report...",
}

// InitialStep is the screen a workspace opens on: the result when the
// project already has a report, otherwise the upload form. Transitions after
// that run in the page script, driven by ScanSchedule and the delays above.
func InitialStep(hasReport bool) Step {
	if hasReport {
		return StepResult
	}
	return StepUpload
}

// ScheduleMillis is ScanSchedule in milliseconds, for the page script.
func ScheduleMillis() []int64 {
	out := make([]int64, len(ScanSchedule))
	for i, d := range ScanSchedule {
		out[i] = d.Milliseconds()
	}
	return out
}
