// Package apiclient is the HTTP adapter between the portal and the backend REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/i18n"
	"github.com/volunteerhub/portal/internal/observability"
	"github.com/volunteerhub/portal/internal/session"
	"github.com/volunteerhub/portal/internal/shared"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api"

const maxErrorBody = 1 << 20

// SessionSource supplies bearer credentials and is cleared on a 401.
type SessionSource interface {
	Namespace() session.Namespace
	Tokens(ctx context.Context) (auth.TokenPair, bool)
	ClearAuth(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Language   string
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Client sends authenticated requests and normalizes backend errors.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	sessions   SessionSource
	translator *i18n.Translator
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New builds a Client bound to one session namespace.
func New(sessions SessionSource, opts Options) (*Client, error) {
	if sessions == nil {
		return nil, fmt.Errorf("apiclient: session source is required")
	}
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base url %q must be http or https", raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		sessions:   sessions,
		translator: i18n.New(opts.Language),
		logger:     logger.With(slog.String("namespace", string(sessions.Namespace()))),
		metrics:    opts.Metrics,
	}, nil
}

// Request describes one backend call.
type Request struct {
	// Endpoint labels the call in logs and metrics.
	Endpoint string
	Method   string
	Path     string
	Query    url.Values
	Body     any
}

// Do sends req and decodes a 2xx JSON answer into out (which may be nil).
//
// A 401 answer clears the session before Do returns, so the caller and anything
// running afterwards observe a logged-out state.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveAPICall(req.Endpoint, 0, time.Since(start))
		c.logger.Warn("api transport failure", slog.String("endpoint", req.Endpoint), slog.Any("error", err))
		return &shared.Error{Kind: shared.KindNetworkOrServer, Message: c.translator.T(i18n.KeyNetworkFailed), Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPICall(req.Endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := normalize(resp.StatusCode, raw, c.translator.T(i18n.KeyRequestFailed))
		if apiErr.Kind == shared.KindAuthRejected {
			c.invalidate(ctx)
		}
		c.logger.Info("api call rejected",
			slog.String("endpoint", req.Endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &shared.Error{Kind: shared.KindNetworkOrServer, StatusCode: resp.StatusCode, Message: c.translator.T(i18n.KeyNetworkFailed), Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return unexpectedResponse(req.Endpoint, resp.StatusCode, body, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s body: %w", req.Endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build %s request: %w", req.Endpoint, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Language", c.translator.Tag().String())
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if tokens, ok := c.sessions.Tokens(ctx); ok {
		httpReq.Header.Set("Authorization", "Bearer "+tokens.Access)
	}
	return httpReq, nil
}

// invalidate runs synchronously on the response path; a failed clear is logged
// and the AuthRejected error is still returned.
func (c *Client) invalidate(ctx context.Context) {
	c.metrics.SessionInvalidated(string(c.sessions.Namespace()))
	if err := c.sessions.ClearAuth(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("clear session after 401", slog.Any("error", err))
		return
	}
	c.logger.Info("session cleared after 401")
}

// Translator exposes the client's message catalog for callers that render errors.
func (c *Client) Translator() *i18n.Translator {
	return c.translator
}
