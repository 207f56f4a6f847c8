package runs

import (
	"net/url"
	"time"

	"github.com/JaimeStill/protrace/pkg/query"
	"github.com/JaimeStill/protrace/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("mode", "Mode").
	Project("pro_count", "PROCount").
	Project("stage_code", "StageCode").
	Project("target_status", "TargetStatus").
	Project("results", "Results").
	Project("error", "Error").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored. Since and Until bound CreatedAt as [Since, Until).
type Filters struct {
	Mode  *string    `json:"mode,omitempty"`
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Mode", f.Mode).
		WhereAtLeast("CreatedAt", f.Since).
		WhereBefore("CreatedAt", f.Until)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Timestamps are RFC 3339; unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("mode"); m != "" {
		f.Mode = &m
	}

	if s := values.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			f.Since = &t
		}
	}

	if u := values.Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			f.Until = &t
		}
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var (
		r       Run
		results []byte
	)
	err := s.Scan(
		&r.ID,
		&r.Mode,
		&r.PROCount,
		&r.StageCode,
		&r.TargetStatus,
		&results,
		&r.Error,
		&r.CreatedAt,
	)
	r.Results = results
	return r, err
}
