package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"exhibition/internal/adapters/http/perf"
	"exhibition/internal/domain/failure"
)

// DefaultTimeout bounds a single backend round trip.
const DefaultTimeout = 10 * time.Second

// DefaultSlowUpstreamMs is the default threshold for slow backend call warnings.
const DefaultSlowUpstreamMs = 300

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 4 << 20

// Client talks to the project-exhibition REST API.
// Every authenticated call takes the caller's bearer token explicitly; the client holds no session state.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	collector *perf.Collector
	slowMs    float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCollector records each backend call to the perf collector.
func WithCollector(collector *perf.Collector) Option {
	return func(c *Client) { c.collector = collector }
}

// WithSlowThreshold sets the slow_upstream warning threshold.
func WithSlowThreshold(ms int) Option {
	return func(c *Client) {
		if ms > 0 {
			c.slowMs = float64(ms)
		}
	}
}

// New creates a backend client rooted at baseURL (scheme and host; path prefix optional).
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a ready-to-use client or an error for a malformed URL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q has no host", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		slowMs:  DefaultSlowUpstreamMs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// bearer wraps a raw access token for the Authorization header.
func bearer(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}

// do issues one request and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx responses are classified in the failure taxonomy.
func (c *Client) do(ctx context.Context, method, path string, tok *oauth2.Token, body, out any) error {
	op := method + " " + path
	target := c.baseURL.JoinPath(path).String()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &failure.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != nil {
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.logCall(op, status, start)
	if err != nil {
		return &failure.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &failure.NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(op, resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &failure.NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// logCall logs and optionally records a backend call timing.
func (c *Client) logCall(op string, status int, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if durationMs >= c.slowMs {
		slog.Warn("slow_upstream", "op", op, "status", status, "duration_ms", durationMs)
	} else {
		slog.Debug("upstream", "op", op, "status", status, "duration_ms", durationMs)
	}
	c.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       op,
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}

// classify maps a non-2xx backend response onto the failure taxonomy.
func classify(op string, status int, body []byte) error {
	msg := serverMessage(body)
	switch {
	case status == http.StatusForbidden:
		if msg == "" {
			msg = "forbidden"
		}
		return &failure.AccessDenied{Reason: msg}
	case status == http.StatusUnauthorized:
		// Expired or invalid bearer token; no refresh is attempted.
		var cause error
		if msg != "" {
			cause = errors.New(msg)
		}
		return &failure.NetworkError{Op: op, Status: status, Err: cause}
	case status >= 400 && status < 500 && msg != "":
		return &failure.ValidationError{Status: status, Message: msg}
	}
	return &failure.NetworkError{Op: op, Status: status}
}

// serverMessage extracts a human-readable message from a backend error body.
// Recognised shapes: {"detail"|"error"|"message": "..."}, {"non_field_errors": [...]},
// {"<field>": ["..."]}, ["..."] (a bare ValidationError) and "...".
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if raw, ok := obj[key]; ok {
				if s := firstString(raw); s != "" {
					return s
				}
			}
		}
		if raw, ok := obj["non_field_errors"]; ok {
			if s := firstString(raw); s != "" {
				return s
			}
		}
		// Field errors: {"project": ["Invalid pk ..."]}, first field by name.
		fields := make([]string, 0, len(obj))
		for name := range obj {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		for _, name := range fields {
			if s := firstInList(obj[name]); s != "" {
				return s
			}
		}
		return ""
	}
	return firstString(body)
}

// firstString decodes raw as a string or returns the first element of a string list.
func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

// firstInList returns the first element of a string list, or "".
func firstInList(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return ""
	}
	return strings.TrimSpace(list[0])
}
