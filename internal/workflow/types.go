package workflow

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/protrace/internal/tms"
)

// StatusNotFound is reported for a PRO with no upstream row.
const StatusNotFound = "Not Found"

// Mode selects how far the workflow runs.
type Mode string

// Workflow modes.
const (
	ModeTrace    Mode = "trace"
	ModeOverride Mode = "override"
)

// Phase names a workflow state.
type Phase string

// Workflow phases in execution order.
const (
	PhaseAuth     Phase = "AUTH"
	PhaseTrace1   Phase = "TRACE1"
	PhaseOverride Phase = "OVERRIDE"
	PhaseTrace2   Phase = "TRACE2"
	PhaseDone     Phase = "DONE"
)

// OverrideSpec is the caller's requested stage change. StageCode is a pointer
// so a missing code can be told apart from code 0.
type OverrideSpec struct {
	Enabled    bool   `json:"enabled"`
	StageCode  *int   `json:"stage_code"`
	StageLabel string `json:"stage_label,omitempty"`
	Action     string `json:"action,omitempty"`
}

// Request is one workflow invocation.
type Request struct {
	PROs     []string      `json:"pros"`
	Mode     Mode          `json:"mode,omitempty"`
	Override *OverrideSpec `json:"override,omitempty"`

	// RunID identifies the execution. A zero value is replaced by Execute.
	RunID uuid.UUID `json:"-"`
}

// Validate checks presence constraints and defaults Mode to trace.
// A maxBatch of zero disables the batch size limit.
func (r *Request) Validate(maxBatch int) error {
	if len(r.PROs) == 0 {
		return fmt.Errorf("%w: pros must be a non-empty list", ErrValidation)
	}
	if !slices.ContainsFunc(r.PROs, func(p string) bool { return tms.NormalizePRO(p) != "" }) {
		return fmt.Errorf("%w: pros must contain at least one non-blank PRO", ErrValidation)
	}
	if maxBatch > 0 && len(r.PROs) > maxBatch {
		return fmt.Errorf("%w: pros exceeds the batch limit of %d", ErrValidation, maxBatch)
	}

	switch r.Mode {
	case "":
		r.Mode = ModeTrace
	case ModeTrace, ModeOverride:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrValidation, r.Mode)
	}

	if r.Override != nil && r.Override.Enabled && r.Override.StageCode == nil {
		return fmt.Errorf("%w: override.stage_code is required when override is enabled", ErrValidation)
	}
	return nil
}

// OverrideRequested reports whether the request continues past TRACE1.
func (r *Request) OverrideRequested() bool {
	return r.Mode == ModeOverride && r.Override != nil && r.Override.Enabled && r.Override.StageCode != nil
}

func (r *Request) overrideRequest() tms.OverrideRequest {
	if r.Override == nil || r.Override.StageCode == nil {
		return tms.OverrideRequest{}
	}
	return tms.OverrideRequest{
		Enabled:    r.Override.Enabled,
		StageCode:  *r.Override.StageCode,
		StageLabel: r.Override.StageLabel,
		Action:     r.Override.Action,
	}
}

// ResultItem is the outcome for one input PRO.
type ResultItem struct {
	PRO               string `json:"pro"`
	Status            string `json:"status"`
	Substatus         string `json:"substatus"`
	OrderID           string `json:"order_id"`
	Location          string `json:"loc"`
	Pickup            string `json:"pu"`
	OverrideOK        bool   `json:"override_ok"`
	OverrideSkipped   bool   `json:"override_skipped"`
	OverrideError     string `json:"override_error"`
	Verified          bool   `json:"verified"`
	VerifiedStatus    string `json:"verified_status"`
	VerifiedSubstatus string `json:"verified_substatus"`
}

// Result is the workflow output. Results has one item per input PRO, in input order.
type Result struct {
	RunID        uuid.UUID    `json:"run_id"`
	Results      []ResultItem `json:"results"`
	TargetStatus string       `json:"target_status,omitempty"`
	VerifyError  string       `json:"verify_error,omitempty"`
	Debug        *Debug       `json:"debug,omitempty"`
}

// Attempted returns the items that were sent to the override endpoint.
func (r *Result) Attempted() []ResultItem {
	var items []ResultItem
	for _, item := range r.Results {
		if !item.OverrideSkipped {
			items = append(items, item)
		}
	}
	return items
}

// Debug carries execution diagnostics, returned only when debug output is enabled.
type Debug struct {
	Phases           []PhaseTiming `json:"phases"`
	UpstreamCalls    int           `json:"upstream_calls"`
	Trace1Rows       int           `json:"trace1_rows"`
	Trace2Rows       int           `json:"trace2_rows"`
	Overrides        int           `json:"overrides"`
	GroupSwitchError string        `json:"group_switch_error,omitempty"`
}

// PhaseTiming records how long one phase took.
type PhaseTiming struct {
	Phase    Phase   `json:"phase"`
	Duration float64 `json:"duration_ms"`
}

func newPhaseTiming(p Phase, d time.Duration) PhaseTiming {
	return PhaseTiming{Phase: p, Duration: float64(d.Microseconds()) / 1000}
}
