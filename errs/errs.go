// Package errs defines the error taxonomy for the splitting pipeline. Every
// error is fatal: the pipeline terminates without producing partial outputs.
package errs

import "fmt"

// Stage names used in diagnostics.
const (
	StageLoad     = "load"
	StageIdentify = "identify"
	StagePrune    = "prune"
	StageSimplify = "simplify"
	StageUnify    = "unify"
	StageValidate = "validate"
)

// InvalidScoreError reports input that does not conform to the expected
// shape (wrong number of parts, missing voice id, empty score).
type InvalidScoreError struct {
	Detail string
}

func (e *InvalidScoreError) Error() string {
	return "invalid score: " + e.Detail
}

// VoiceDetectionError reports that the identifier could not produce a
// voice mapping.
type VoiceDetectionError struct {
	Expected string
	Actual   string
}

func (e *VoiceDetectionError) Error() string {
	return fmt.Sprintf("voice detection failed: expected %v, found %v", e.Expected, e.Actual)
}

// VoiceRemovalError reports an unexpected structural condition during voice
// removal. Measure is 0 when the condition is not tied to one measure.
type VoiceRemovalError struct {
	Voice   string
	Measure int
	Detail  string
}

func (e *VoiceRemovalError) Error() string {
	if e.Measure > 0 {
		return fmt.Sprintf("voice removal failed for %v at measure %d: %v", e.Voice, e.Measure, e.Detail)
	}
	return fmt.Sprintf("voice removal failed for %v: %v", e.Voice, e.Detail)
}

// UnificationError reports a contract violation inside a unifier sub-policy.
type UnificationError struct {
	Policy  string
	Measure int
	Detail  string
}

func (e *UnificationError) Error() string {
	if e.Measure > 0 {
		return fmt.Sprintf("unification (%v) failed at measure %d: %v", e.Policy, e.Measure, e.Detail)
	}
	return fmt.Sprintf("unification (%v) failed: %v", e.Policy, e.Detail)
}

// ProcessingError is the catch-all for structural problems not covered by a
// more specific type. Stage records where the pipeline fired it.
type ProcessingError struct {
	Stage  string
	Detail string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed at stage %v: %v", e.Stage, e.Detail)
}
