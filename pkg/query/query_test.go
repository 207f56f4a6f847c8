package query_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/protrace/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "runs", "r").
		Project("id", "ID").
		Project("mode", "Mode").
		Project("created_at", "CreatedAt")
}

var newest = query.SortField{Field: "CreatedAt", Descending: true}

func ptr[T any](v T) *T { return &v }

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.From(); got != "public.runs r" {
		t.Errorf("From() = %q", got)
	}
	if got := p.Columns(); got != "r.id, r.mode, r.created_at" {
		t.Errorf("Columns() = %q", got)
	}

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "Mode", "r.mode"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestBuildPage(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		build    func(*query.Builder)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no conditions",
			build:   func(*query.Builder) {},
			wantSQL: "SELECT r.id, r.mode, r.created_at FROM public.runs r ORDER BY r.created_at DESC LIMIT 20 OFFSET 20",
		},
		{
			name: "nil values skipped",
			build: func(b *query.Builder) {
				var mode *string
				b.WhereEquals("Mode", mode).WhereAtLeast("CreatedAt", nil)
			},
			wantSQL: "SELECT r.id, r.mode, r.created_at FROM public.runs r ORDER BY r.created_at DESC LIMIT 20 OFFSET 20",
		},
		{
			name: "numbered parameters",
			build: func(b *query.Builder) {
				b.WhereEquals("Mode", ptr("override")).
					WhereAtLeast("CreatedAt", since).
					WhereBefore("CreatedAt", since.Add(time.Hour))
			},
			wantSQL: "SELECT r.id, r.mode, r.created_at FROM public.runs r WHERE r.mode = $1 AND r.created_at >= $2 AND r.created_at < $3 ORDER BY r.created_at DESC LIMIT 20 OFFSET 20",
			wantArgs: []any{
				ptr("override"),
				since,
				since.Add(time.Hour),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb := query.NewBuilder(testProjection(), newest)
			tt.build(qb)

			sql, args := qb.BuildPage(2, 20)
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got %s\nwant %s", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildCount(t *testing.T) {
	sql, args := query.NewBuilder(testProjection(), newest).
		WhereEquals("Mode", "trace").
		BuildCount()

	if sql != "SELECT COUNT(*) FROM public.runs r WHERE r.mode = $1" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "trace" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("ID", "abc")

	if sql != "SELECT r.id, r.mode, r.created_at FROM public.runs r WHERE r.id = $1" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args = %v", args)
	}
}
