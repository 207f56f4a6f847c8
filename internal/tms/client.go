package tms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 8 << 20

// HTTPDoer describes the HTTP client used to reach the TMS.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type response struct {
	status  int
	cookies []*http.Cookie
	body    []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

type client struct {
	baseURL string
	referer string
	timeout time.Duration
	http    HTTPDoer
	logger  *slog.Logger
}

func newClient(cfg *Config, doer HTTPDoer, logger *slog.Logger) *client {
	if doer == nil {
		doer = http.DefaultClient
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &client{
		baseURL: base,
		referer: base + cfg.RefererPath,
		timeout: cfg.RequestTimeoutDuration(),
		http:    doer,
		logger:  logger,
	}
}

// postForm sends form to path with the per-call timeout applied. Only transport
// failures are returned as errors; status handling belongs to the caller.
func (c *client) postForm(ctx context.Context, op, path string, form url.Values, sess *Session) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.referer)
	if sess != nil && sess.Cookie != "" {
		req.Header.Set("Cookie", sess.Cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}

	c.logger.Debug("tms call",
		"op", op,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	return &response{
		status:  resp.StatusCode,
		cookies: resp.Cookies(),
		body:    body,
	}, nil
}

func joinCookies(cookies []*http.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}
