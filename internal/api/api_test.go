package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/protrace/internal/api"
	"github.com/JaimeStill/protrace/internal/config"
	"github.com/JaimeStill/protrace/internal/infrastructure"
	"github.com/JaimeStill/protrace/internal/tms"
	"github.com/JaimeStill/protrace/pkg/middleware"
	"github.com/JaimeStill/protrace/pkg/module"
	"github.com/JaimeStill/protrace/pkg/pagination"
)

func validConfig(t *testing.T, upstream string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		API: config.APIConfig{
			BasePath:     "/api",
			MaxBatchSize: 10,
			CORS: middleware.CORSConfig{
				Enabled:        true,
				Origins:        []string{"http://ui.example.com"},
				AllowedMethods: []string{"POST"},
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		TMS: tms.Config{
			BaseURL:  upstream,
			Username: "svc",
			Password: "secret",
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
	if err := cfg.TMS.Finalize(nil); err != nil {
		t.Fatalf("finalize tms: %v", err)
	}
	if err := cfg.Workflow.Finalize(nil); err != nil {
		t.Fatalf("finalize workflow: %v", err)
	}
	return cfg
}

func setup(t *testing.T, upstream string) http.Handler {
	t.Helper()
	cfg := validConfig(t, upstream)

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s", m.Prefix())
	}

	router := module.NewRouter()
	if err := router.Mount(m); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return router
}

func TestModuleRoutes(t *testing.T) {
	handler := setup(t, "http://127.0.0.1:1")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"lookup validation", http.MethodPost, "/api/tms", `{"pros": []}`, http.StatusBadRequest},
		{"lookup wrong method", http.MethodGet, "/api/tms", "", http.StatusMethodNotAllowed},
		{"journal disabled", http.MethodGet, "/api/runs", "", http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if rec.Header().Get(middleware.HeaderRequestID) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestModuleUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "gateway down")
	}))
	defer upstream.Close()

	handler := setup(t, upstream.URL)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tms", bytes.NewBufferString(`{"pros": ["1234567"]}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["details"] != "gateway down" {
		t.Errorf("details: got %q", body["details"])
	}
}

func TestModuleCORSPreflight(t *testing.T) {
	handler := setup(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/tms", nil)
	req.Header.Set("Origin", "http://ui.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://ui.example.com" {
		t.Errorf("allow-origin: got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
