package tms_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/protrace/internal/tms"
)

func validConfig() tms.Config {
	return tms.Config{
		BaseURL:  "https://tms.example.com",
		Username: "svc",
		Password: "secret",
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"request_timeout", cfg.RequestTimeoutDuration(), 5 * time.Second},
		{"list_encoding", cfg.Trace.ListEncoding, tms.ListEncodingNewline},
		{"list_field", cfg.Trace.ListField, "pro_list"},
		{"pro row field", cfg.Trace.Rows.PRO, "tms_order_pro"},
		{"order row field", cfg.Trace.Rows.OrderID, "OrderID"},
		{"login endpoint", cfg.Endpoints.Login, "/write/check_login.php"},
		{"trace endpoint", cfg.Endpoints.Trace, "/write_new/search_tms_order_pro_status_v2.php"},
		{"page name", cfg.Login.Extra["pageName"], "/index.html"},
		{"empty markers", len(cfg.Trace.EmptyMarkers), 4},
		{"fallback length", len(cfg.Stages.Fallback), 4},
		{"stage 4", cfg.Stages.Table["4"], "Out-For-Delivery"},
		{"status code D", cfg.Trace.StatusCodes["D"], "Delivered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestDefaultStatusLabelsUseStageTableSpelling(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	stages := make(map[string]bool, len(cfg.Stages.Table))
	for _, desc := range cfg.Stages.Table {
		stages[desc] = true
	}

	for _, code := range []string{"P", "O", "D", "X"} {
		label := cfg.Trace.StatusCodes[code]
		if !stages[label] {
			t.Errorf("status code %s label %q is not a stage table description", code, label)
		}
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_TMS_BASE_URL", "https://env.example.com")
	t.Setenv("TEST_TMS_USERNAME", "env-user")
	t.Setenv("TEST_TMS_PASSWORD", "env-pass")
	t.Setenv("TEST_TMS_GROUP_ID", "31")
	t.Setenv("TEST_TMS_REQUEST_TIMEOUT", "2s")

	cfg := tms.Config{}
	err := cfg.Finalize(&tms.Env{
		BaseURL:        "TEST_TMS_BASE_URL",
		Username:       "TEST_TMS_USERNAME",
		Password:       "TEST_TMS_PASSWORD",
		GroupID:        "TEST_TMS_GROUP_ID",
		RequestTimeout: "TEST_TMS_REQUEST_TIMEOUT",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" || cfg.Username != "env-user" || cfg.Password != "env-pass" {
		t.Errorf("credentials not loaded from env: %s %s", cfg.BaseURL, cfg.Username)
	}
	if cfg.GroupID != "31" {
		t.Errorf("group_id: got %s", cfg.GroupID)
	}
	if cfg.RequestTimeoutDuration() != 2*time.Second {
		t.Errorf("request_timeout: got %v", cfg.RequestTimeoutDuration())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*tms.Config)
		wantErr string
	}{
		{"missing base url", func(c *tms.Config) { c.BaseURL = "" }, "base_url required"},
		{"relative base url", func(c *tms.Config) { c.BaseURL = "tms.example.com" }, "invalid base_url"},
		{"missing username", func(c *tms.Config) { c.Username = "" }, "username required"},
		{"missing password", func(c *tms.Config) { c.Password = "" }, "password required"},
		{"bad timeout", func(c *tms.Config) { c.RequestTimeout = "soon" }, "invalid request_timeout"},
		{"zero timeout", func(c *tms.Config) { c.RequestTimeout = "0s" }, "must be positive"},
		{"bad encoding", func(c *tms.Config) { c.Trace.ListEncoding = "csv" }, "invalid trace.list_encoding"},
		{"bad fallback", func(c *tms.Config) { c.Stages.Fallback = []string{"table", "guess"} }, "invalid stages.fallback"},
		{"bad table code", func(c *tms.Config) { c.Stages.Table = map[string]string{"four": "x"} }, "invalid stages.table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := validConfig()
	if err := base.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	base.Merge(&tms.Config{
		GroupID: "9",
		Trace: tms.TraceConfig{
			ListEncoding: tms.ListEncodingJSON,
			Rows:         tms.RowMapping{PRO: "pro_number"},
		},
		Stages: tms.StagesConfig{Fallback: []string{"label", "code"}},
	})

	if base.GroupID != "9" {
		t.Errorf("group_id: got %s", base.GroupID)
	}
	if base.Trace.ListEncoding != tms.ListEncodingJSON {
		t.Errorf("list_encoding: got %s", base.Trace.ListEncoding)
	}
	if base.Trace.Rows.PRO != "pro_number" || base.Trace.Rows.OrderID != "OrderID" {
		t.Errorf("rows: got %+v", base.Trace.Rows)
	}
	if len(base.Stages.Fallback) != 2 {
		t.Errorf("fallback should be replaced: %v", base.Stages.Fallback)
	}
	if base.Username != "svc" {
		t.Errorf("username should be preserved: %s", base.Username)
	}
}

func TestBuildPayload(t *testing.T) {
	schema := tms.Schema{Name: "override", Required: []string{"order_id", "stage"}, Optional: []string{"group_id"}}

	t.Run("valid", func(t *testing.T) {
		form, err := tms.BuildPayload(schema, map[string]string{"order_id": "1", "stage": "4", "group_id": ""})
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if form.Get("order_id") != "1" || form.Get("stage") != "4" {
			t.Errorf("form: %v", form)
		}
		if form.Has("group_id") {
			t.Error("empty optional field should be dropped")
		}
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := tms.BuildPayload(schema, map[string]string{"order_id": "1"})
		if !errors.Is(err, tms.ErrPayload) || !strings.Contains(err.Error(), "stage") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := tms.BuildPayload(schema, map[string]string{"order_id": "1", "stage": "4", "orderid": "1"})
		if !errors.Is(err, tms.ErrPayload) || !strings.Contains(err.Error(), "orderid") {
			t.Errorf("got %v", err)
		}
	})
}
