package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/platform/metrics"
)

// authFunc decorates an outgoing request with credentials.
type authFunc func(ctx context.Context, req *http.Request) error

// restClient is the shared JSON-over-HTTP plumbing used by the concrete
// connectors. Every call is bounded by the configured timeout and
// instrumented; upstream failures are classified, never retried.
type restClient struct {
	family  SystemFamily
	baseURL string
	http    *http.Client
	timeout time.Duration
	auth    authFunc
}

func newRestClient(family SystemFamily, cfg Config, auth authFunc) *restClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &restClient{
		family:  family,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		auth:    auth,
	}
}

// sapErrorBody is the error envelope SAP-family systems return.
type sapErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// doJSON issues one JSON request. A cancelled or ambiguous outcome is
// returned as an error: the caller must treat the operation as failed,
// never assumed-succeeded.
func (c *restClient) doJSON(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.auth(ctx, req); err != nil {
		metrics.ERPCalls.WithLabelValues(string(c.family), operation, "auth_error").Inc()
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ERPCallDuration.WithLabelValues(string(c.family), operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ERPCalls.WithLabelValues(string(c.family), operation, "transport_error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return newExternalError(c.family, operation, http.StatusGatewayTimeout, CodeTimeout, err.Error())
		}
		return newExternalError(c.family, operation, 0, CodeServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.ERPCalls.WithLabelValues(string(c.family), operation, fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		code, message := parseUpstreamError(raw)
		if message == "" {
			message = resp.Status
		}
		return newExternalError(c.family, operation, resp.StatusCode, code, message)
	}

	metrics.ERPCalls.WithLabelValues(string(c.family), operation, "ok").Inc()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newExternalError(c.family, operation, resp.StatusCode, CodeValidation,
			fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// parseUpstreamError extracts code and message from an SAP-style error
// envelope, tolerating flat shapes.
func parseUpstreamError(raw []byte) (code, message string) {
	var sapErr sapErrorBody
	if err := json.Unmarshal(raw, &sapErr); err == nil && sapErr.Error.Message.Value != "" {
		return sapErr.Error.Code, sapErr.Error.Message.Value
	}
	var flat struct {
		Code    string `json:"code"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil {
		msg := flat.Message
		if msg == "" {
			msg = flat.Error
		}
		return flat.Code, msg
	}
	return "", strings.TrimSpace(string(raw))
}

// bearerAuth authorizes requests with a token from the cache.
func bearerAuth(tokens *tokenCache) authFunc {
	return func(ctx context.Context, req *http.Request) error {
		tok, err := tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("token acquisition failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		return nil
	}
}

// basicAuth authorizes requests with static credentials.
func basicAuth(username, password string) authFunc {
	return func(_ context.Context, req *http.Request) error {
		req.SetBasicAuth(username, password)
		return nil
	}
}
