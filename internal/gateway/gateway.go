// Package gateway performs every outbound call to the remote content API.
//
// Each request is built explicitly from a CredentialSource read at call time,
// so the transport never holds session state of its own. Unauthorized
// responses are reported on the event bus and returned to the caller; the
// session layer decides what to do about them.
package gateway

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
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"go-admin-console/internal/event"
	"go-admin-console/internal/model"
	"go-admin-console/internal/token"
	"go-admin-console/pkg/apierror"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// CredentialSource yields the credential to attach, or "" for none.
type CredentialSource interface {
	Credential() string
}

type Gateway struct {
	baseURL     string
	client      *http.Client
	credentials CredentialSource
	bus         event.Bus
	limiter     *rate.Limiter
}

func New(baseURL string, client *http.Client, credentials CredentialSource, bus event.Bus) (*Gateway, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Gateway{
		baseURL:     strings.TrimRight(parsed.String(), "/"),
		client:      client,
		credentials: credentials,
		bus:         bus,
	}, nil
}

// SetRateLimit caps outbound requests per second. rps <= 0 disables the cap.
func (g *Gateway) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		g.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Request describes one outbound call. At most one of JSON and Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   *Multipart
}

// Do sends req and decodes a successful body into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, req Request, out any) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	httpReq, credential, err := g.build(ctx, req)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		slog.Warn("remote call failed", "method", req.Method, "path", req.Path, "error", err)
		return apierror.New(apierror.CodeUnavailable, "", err.Error(), http.StatusBadGateway)
	}
	defer resp.Body.Close()

	slog.Debug("remote call",
		"request_id", httpReq.Header.Get(requestIDHeader),
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.failure(req, resp, credential)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apierror.New(apierror.CodeRemote, "", "invalid JSON response: "+err.Error(), http.StatusBadGateway)
	}

	return nil
}

func (g *Gateway) build(ctx context.Context, req Request) (*http.Request, string, error) {
	target := g.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		encoded, ct, err := req.Form.Encode()
		if err != nil {
			return nil, "", fmt.Errorf("encode multipart body: %w", err)
		}
		body, contentType = encoded, ct
	case req.JSON != nil:
		encoded, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("encode JSON body: %w", err)
		}
		body, contentType = bytes.NewReader(encoded), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	credential := ""
	if g.credentials != nil {
		credential = g.credentials.Credential()
	}
	if credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}

	return httpReq, credential, nil
}

func (g *Gateway) failure(req Request, resp *http.Response, credential string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed model.RemoteError
	message := ""
	if err := json.Unmarshal(raw, &parsed); err == nil {
		message = strings.TrimSpace(parsed.Message)
		if message == "" {
			message = strings.TrimSpace(parsed.Error)
		}
	}

	apiErr := apierror.FromStatus(resp.StatusCode, message, "")
	apiErr.Details = fmt.Sprintf("%s %s -> %d", req.Method, req.Path, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		slog.Warn("remote API rejected credential", "method", req.Method, "path", req.Path, "has_credential", credential != "")
		if g.bus != nil {
			g.bus.Publish(event.New(event.TypeUnauthorized, map[string]string{
				"credential": token.Fingerprint(credential),
				"path":       req.Path,
			}))
		}
	}

	return apiErr
}

// IsUnauthorized reports whether err is a 401 from the remote API.
func IsUnauthorized(err error) bool {
	var apiErr *apierror.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusUnauthorized
}
