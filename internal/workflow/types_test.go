package workflow_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/protrace/internal/workflow"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		max     int
		wantErr string
	}{
		{"trace default", `{"pros": ["A"]}`, 0, ""},
		{"override", `{"pros": ["A"], "mode": "override", "override": {"enabled": true, "stage_code": 4}}`, 0, ""},
		{"stage code zero is present", `{"pros": ["A"], "mode": "override", "override": {"enabled": true, "stage_code": 0}}`, 0, ""},
		{"disabled override needs no code", `{"pros": ["A"], "mode": "override", "override": {"enabled": false}}`, 0, ""},
		{"empty pros", `{"pros": []}`, 0, "non-empty"},
		{"missing pros", `{}`, 0, "non-empty"},
		{"only blank pros", `{"pros": [" ", ""]}`, 0, "non-blank"},
		{"blank among real", `{"pros": [" ", "A"]}`, 0, ""},
		{"unknown mode", `{"pros": ["A"], "mode": "verify"}`, 0, "unknown mode"},
		{"missing stage code", `{"pros": ["A"], "mode": "override", "override": {"enabled": true}}`, 0, "stage_code"},
		{"batch limit", `{"pros": ["A", "B", "C"]}`, 2, "batch limit"},
		{"at batch limit", `{"pros": ["A", "B"]}`, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req workflow.Request
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			err := req.Validate(tt.max)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.Mode == "" {
					t.Error("mode should be defaulted")
				}
				return
			}

			if !errors.Is(err, workflow.ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
			if workflow.MapHTTPStatus(err) != http.StatusBadRequest {
				t.Errorf("status: got %d", workflow.MapHTTPStatus(err))
			}
		})
	}
}

func TestResultItemJSON(t *testing.T) {
	data, err := json.Marshal(workflow.ResultItem{PRO: "A", Status: workflow.StatusNotFound, OverrideSkipped: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{
		"pro", "status", "substatus", "order_id", "loc", "pu",
		"override_ok", "override_skipped", "override_error",
		"verified", "verified_status", "verified_substatus",
	} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing field %q", key)
		}
	}
	if fields["order_id"] != "" {
		t.Errorf("order_id should serialize as empty string, got %v", fields["order_id"])
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("default serial", func(t *testing.T) {
		cfg := workflow.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if cfg.OverrideConcurrency != 1 {
			t.Errorf("got %d, want 1", cfg.OverrideConcurrency)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("TEST_OVERRIDE_CONCURRENCY", "4")
		cfg := workflow.Config{}
		if err := cfg.Finalize(&workflow.Env{OverrideConcurrency: "TEST_OVERRIDE_CONCURRENCY"}); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if cfg.OverrideConcurrency != 4 {
			t.Errorf("got %d, want 4", cfg.OverrideConcurrency)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		cfg := workflow.Config{OverrideConcurrency: -1}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error")
		}
	})
}
