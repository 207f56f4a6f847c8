package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/protrace/internal/workflow"
)

type upstream struct {
	mu     sync.Mutex
	stages map[string]string
}

func newUpstream(t *testing.T) string {
	t.Helper()
	u := &upstream{stages: map[string]string{"1234567": "Open"}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"UserID": 7, "UserToken": "tok"}`)
	})
	mux.HandleFunc("POST /trace", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		u.mu.Lock()
		defer u.mu.Unlock()

		var rows []map[string]string
		for _, pro := range strings.Split(r.PostForm.Get("pro_list"), "\n") {
			if stage, ok := u.stages[pro]; ok {
				rows = append(rows, map[string]string{"tms_order_pro": pro, "stage": stage, "OrderID": "9001"})
			}
		}
		if len(rows) == 0 {
			io.WriteString(w, "no record found")
			return
		}
		json.NewEncoder(w).Encode(rows)
	})
	mux.HandleFunc("POST /override", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		u.mu.Lock()
		u.stages["1234567"] = r.PostForm.Get("status_desc")
		u.mu.Unlock()
		io.WriteString(w, `{"success": true}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	content := fmt.Sprintf(`
[tms]
base_url = %q
username = "svc"
password = "pw"

[tms.endpoints]
login = "/login"
switch_group = "/group"
trace = "/trace"
override = "/override"

[tms.stages.table]
1 = "Open"
4 = "Out For Delivery"
`, baseURL)

	path := filepath.Join(t.TempDir(), "protrace.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTraceCommand(t *testing.T) {
	cfg := writeTestConfig(t, newUpstream(t))

	out, err := execute(t, "trace", "--config", cfg, "1234567", "0000000")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}

	for _, want := range []string{"1234567", "Open", "0000000", workflow.StatusNotFound} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Override") {
		t.Errorf("trace output should not include override columns:\n%s", out)
	}
}

func TestTraceCommandJSON(t *testing.T) {
	cfg := writeTestConfig(t, newUpstream(t))

	out, err := execute(t, "trace", "--config", cfg, "--json", "1234567")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}

	var result workflow.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(result.Results) != 1 || result.Results[0].Status != "Open" {
		t.Errorf("unexpected result: %+v", result.Results)
	}
}

func TestOverrideCommand(t *testing.T) {
	cfg := writeTestConfig(t, newUpstream(t))

	out, err := execute(t, "override", "--config", cfg, "--json", "--stage", "4", "1234567")
	if err != nil {
		t.Fatalf("override: %v", err)
	}

	var result workflow.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result.TargetStatus != "Out For Delivery" {
		t.Errorf("target: got %q", result.TargetStatus)
	}
	item := result.Results[0]
	if !item.OverrideOK || !item.Verified || item.VerifiedStatus != "Out For Delivery" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestOverrideCommandRequiresStage(t *testing.T) {
	cfg := writeTestConfig(t, newUpstream(t))

	_, err := execute(t, "override", "--config", cfg, "1234567")
	if err == nil || !strings.Contains(err.Error(), "--stage") {
		t.Fatalf("got %v, want --stage error", err)
	}
}

func TestStagesCommand(t *testing.T) {
	cfg := writeTestConfig(t, newUpstream(t))

	out, err := execute(t, "stages", "--config", cfg)
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	if strings.Index(out, "Open") > strings.Index(out, "Out For Delivery") {
		t.Errorf("stages should be in code order:\n%s", out)
	}
}

func TestCollectPROs(t *testing.T) {
	t.Run("args and stdin", func(t *testing.T) {
		stdin := strings.NewReader("# header\nB\n\n  C  \n")
		got, err := collectPROs(stdin, []string{"A"}, "-")
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if strings.Join(got, ",") != "A,B,C" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := collectPROs(strings.NewReader(""), nil, ""); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := collectPROs(nil, nil, filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRenderResultsOverrideCells(t *testing.T) {
	result := &workflow.Result{
		TargetStatus: "Delivered",
		Results: []workflow.ResultItem{
			{PRO: "A", Status: "Open", OverrideOK: true, Verified: true, VerifiedStatus: "Delivered"},
			{PRO: "B", Status: workflow.StatusNotFound, OverrideSkipped: true},
			{PRO: "C", Status: "Open", OverrideError: "HTTP 500", VerifiedStatus: "Open"},
		},
	}

	out := renderResults(result, true)
	for _, want := range []string{"target: Delivered", "skipped", "failed: HTTP 500", "no (Open)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
