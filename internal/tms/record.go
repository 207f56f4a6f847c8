package tms

import "strings"

// Session is the upstream credential for one workflow execution.
// It is never cached or persisted.
type Session struct {
	UserID string
	Token  string
	Cookie string

	// GroupSwitched reports that the group switch call was made, successfully or not.
	GroupSwitched bool
	// GroupSwitchErr holds the group switch failure, if any. Authentication
	// still succeeds when it is set.
	GroupSwitchErr error
}

// Record is one upstream trace row.
type Record struct {
	PRO       string
	Stage     string
	Substatus string
	OrderID   string
	Location  string
	Pickup    string
	GroupID   string
}

// LookupTable maps a normalized PRO to its record. When the upstream returns
// the same PRO twice the later row wins.
type LookupTable map[string]Record

// OverrideRequest is the caller's requested stage change.
type OverrideRequest struct {
	Enabled    bool
	StageCode  int
	StageLabel string
	Action     string
}

// OverrideOutcome is the per-item result of an override call.
type OverrideOutcome struct {
	OK      bool
	Skipped bool
	Error   string
}

// NormalizePRO trims surrounding whitespace from a tracking identifier.
func NormalizePRO(pro string) string {
	return strings.TrimSpace(pro)
}
