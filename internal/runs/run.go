package runs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run is a journaled workflow execution.
type Run struct {
	ID           uuid.UUID       `json:"id"`
	Mode         string          `json:"mode"`
	PROCount     int             `json:"pro_count"`
	StageCode    *int            `json:"stage_code,omitempty"`
	TargetStatus string          `json:"target_status,omitempty"`
	Results      json.RawMessage `json:"results"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RecordCommand carries the outcome of one workflow execution.
// Results is encoded as JSON; nil records an empty list.
type RecordCommand struct {
	ID           uuid.UUID
	Mode         string
	PROCount     int
	StageCode    *int
	TargetStatus string
	Results      any
	Error        string
}
