package tms

import (
	"sort"
	"strconv"
	"strings"
)

// Fallback steps for target stage derivation.
const (
	StepTable  = "table"
	StepLabel  = "label"
	StepAction = "action"
	StepCode   = "code"
)

// DefaultFallback is the derivation order used when none is configured.
var DefaultFallback = []string{StepTable, StepLabel, StepAction, StepCode}

var actionSeparators = []string{" to ", " as ", "->"}

// StageResolver derives the human-readable target status for an override.
// Each fallback step either yields a description or defers to the next.
type StageResolver struct {
	table map[int]string
	chain []string
}

// NewStageResolver builds a resolver from cfg. Table keys that are not
// decimal integers are ignored; Config validation rejects them earlier.
func NewStageResolver(cfg *StagesConfig) *StageResolver {
	table := make(map[int]string, len(cfg.Table))
	for k, v := range cfg.Table {
		code, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		table[code] = v
	}

	chain := cfg.Fallback
	if len(chain) == 0 {
		chain = DefaultFallback
	}

	return &StageResolver{table: table, chain: chain}
}

// Resolve returns the expected stage description for req. The bare code is
// the last resort even when the chain omits it.
func (r *StageResolver) Resolve(req OverrideRequest) string {
	for _, step := range r.chain {
		if desc, ok := r.step(step, req); ok {
			return desc
		}
	}
	return strconv.Itoa(req.StageCode)
}

func (r *StageResolver) step(step string, req OverrideRequest) (string, bool) {
	switch step {
	case StepTable:
		desc, ok := r.table[req.StageCode]
		return desc, ok && desc != ""
	case StepLabel:
		label := strings.TrimSpace(req.StageLabel)
		return label, label != ""
	case StepAction:
		target := ParseAction(req.Action)
		return target, target != ""
	case StepCode:
		return strconv.Itoa(req.StageCode), true
	}
	return "", false
}

// Codes returns the known stage codes and descriptions in code order.
func (r *StageResolver) Codes() []Stage {
	stages := make([]Stage, 0, len(r.table))
	for code, desc := range r.table {
		stages = append(stages, Stage{Code: code, Description: desc})
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Code < stages[j].Code })
	return stages
}

// Stage is one entry of the stage table.
type Stage struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// ParseAction extracts the target stage from free text such as
// "move to Delivered" or "Dispatched -> Out-For-Delivery". The text after the
// last separator wins; text without a separator is returned trimmed.
func ParseAction(action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		return ""
	}

	lower := strings.ToLower(action)
	if len(lower) != len(action) {
		lower = action
	}
	cut := -1
	for _, sep := range actionSeparators {
		if i := strings.LastIndex(lower, sep); i >= 0 && i+len(sep) > cut {
			cut = i + len(sep)
		}
	}
	if cut >= 0 {
		action = action[cut:]
	}

	return strings.Trim(strings.TrimSpace(action), `"'.`)
}
