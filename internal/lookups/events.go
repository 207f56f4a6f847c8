package lookups

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/protrace/internal/workflow"
)

// Routing keys for override events.
const (
	EventOverrideApplied = "override.applied"
	EventOverrideFailed  = "override.failed"
)

// OverrideEvent is published once per attempted override after verification.
type OverrideEvent struct {
	RunID          uuid.UUID `json:"run_id"`
	PRO            string    `json:"pro"`
	OrderID        string    `json:"order_id"`
	StageCode      int       `json:"stage_code"`
	TargetStatus   string    `json:"target_status"`
	OK             bool      `json:"ok"`
	Error          string    `json:"error,omitempty"`
	Verified       bool      `json:"verified"`
	VerifiedStatus string    `json:"verified_status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func overrideEvents(req workflow.Request, result *workflow.Result, now time.Time) []OverrideEvent {
	var code int
	if req.Override != nil && req.Override.StageCode != nil {
		code = *req.Override.StageCode
	}

	attempted := result.Attempted()
	events := make([]OverrideEvent, 0, len(attempted))
	for _, item := range attempted {
		events = append(events, OverrideEvent{
			RunID:          result.RunID,
			PRO:            item.PRO,
			OrderID:        item.OrderID,
			StageCode:      code,
			TargetStatus:   result.TargetStatus,
			OK:             item.OverrideOK,
			Error:          item.OverrideError,
			Verified:       item.Verified,
			VerifiedStatus: item.VerifiedStatus,
			OccurredAt:     now,
		})
	}
	return events
}

func (e OverrideEvent) routingKey() string {
	if e.OK {
		return EventOverrideApplied
	}
	return EventOverrideFailed
}
