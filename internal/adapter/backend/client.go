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
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// Options configures a Client
type Options struct {
	BaseURL        string
	Tokens         domain.TokenRepository
	RateLimit      float64 // requests per second; <= 0 disables limiting
	Burst          int
	FamilyCacheTTL time.Duration
	HTTPClient     *http.Client // base transport; nil uses http.DefaultTransport

	// OnUnauthorized is called after a 401 once the stored tokens are cleared
	OnUnauthorized func()
}

// Client talks to the FinAI backend REST API.
// It implements domain.AssetRepository, domain.FamilyMemberRepository and domain.ChatRepository.
// No timeout is configured on outbound calls; cancellation goes through the context.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         domain.TokenRepository
	limiter        *rate.Limiter
	cache          *cache.Cache
	onUnauthorized func()
}

// NewClient creates a new backend client
func NewClient(opts Options) *Client {
	base := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		base = opts.HTTPClient.Transport
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	ttl := opts.FamilyCacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Transport: &oauth2.Transport{
				Source: &tokenSource{repo: opts.Tokens, now: time.Now},
				Base:   base,
			},
		},
		tokens:         opts.Tokens,
		limiter:        limiter,
		cache:          cache.New(ttl, 2*ttl),
		onUnauthorized: opts.OnUnauthorized,
	}
}

// do sends a JSON request and decodes the JSON answer into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(ctx, req, out)
}

// send executes a prepared request and classifies failures
func (c *Client) send(ctx context.Context, req *http.Request, out any) error {
	log := logger.FromContext(ctx).With(slog.String("method", req.Method), slog.String("path", req.URL.Path))

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.forceLogout(ctx)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Backend request failed", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", domain.ErrBackendUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		log.Warn("Backend rejected session token")
		c.forceLogout(ctx)
		return domain.ErrUnauthorized
	case resp.StatusCode >= 400:
		log.Debug("Backend rejected request", "status", resp.StatusCode)
		return &domain.RejectedError{Status: resp.StatusCode, Message: errorMessage(payload)}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// forceLogout clears the stored tokens and notifies the owner
func (c *Client) forceLogout(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		logger.FromContext(ctx).Error("Failed to clear session tokens", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// errorMessage extracts a human readable message from an error body
func errorMessage(payload []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return strings.TrimSpace(string(payload))
	}

	var detail string
	if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	if len(body.Detail) > 0 {
		return string(body.Detail)
	}
	return ""
}
