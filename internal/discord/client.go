package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tbourn/gitcord/internal/observability"
)

// UserAgent follows the format Discord requires for bot clients.
const UserAgent = "DiscordBot (https://github.com/tbourn/gitcord, 1.0)"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// APIError is a non rate-limit error answered by the Discord API.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: %d %s (code %d)", e.Status, e.Message, e.Code)
}

// RateLimitError is returned once the retry budget is exhausted.
type RateLimitError struct {
	RetryAfter time.Duration
	Global     bool
	Attempts   int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discord api: rate limited after %d attempts (retry after %s)", e.Attempts, e.RetryAfter)
}

// Client is a rate-limit aware Discord REST client. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	token      string
	appID      string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	maxWait    time.Duration
	sleep      func(context.Context, time.Duration) error
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithGlobalRate caps outbound requests per second across all routes.
func WithGlobalRate(rps float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryPolicy bounds rate-limit retries: at most maxRetries extra
// attempts, each wait clamped to maxWait.
func WithRetryPolicy(maxRetries int, maxWait time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.maxWait = maxWait
	}
}

// WithSleep replaces the wait between rate-limited attempts (tests).
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithLogger sets the logger used for rate-limit notices.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient returns a client for the API rooted at baseURL
// (e.g. https://discord.com/api/v10) authenticating as the bot.
func NewClient(baseURL, token, appID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		appID:      appID,
		http:       &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(50, 50),
		maxRetries: 5,
		maxWait:    time.Minute,
		sleep:      sleepCtx,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AppID returns the application id the client acts for.
func (c *Client) AppID() string { return c.appID }

// rateLimitBody is the shape of a 429 body.
type rateLimitBody struct {
	RetryAfter *float64 `json:"retry_after"`
	Global     bool     `json:"global"`
	Message    string   `json:"message"`
}

// Do sends a JSON request and decodes the response into out (when non-nil).
// Rate-limit answers (status 429 or a body carrying retry_after) are retried
// after the larger of the Retry-After header and the body's retry_after.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		status, header, raw, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}

		if wait, global, limited := rateLimited(status, header, raw); limited {
			if attempt >= c.maxRetries {
				observability.DiscordRateLimited.WithLabelValues("gave_up").Inc()
				return &RateLimitError{RetryAfter: wait, Global: global, Attempts: attempt + 1}
			}
			d := time.Duration(float64(wait) * 1.01)
			if d > c.maxWait {
				d = c.maxWait
			}
			observability.DiscordRateLimited.WithLabelValues("retried").Inc()
			c.log.Warn().
				Str("method", method).
				Str("path", path).
				Dur("wait", d).
				Bool("global", global).
				Int("attempt", attempt+1).
				Msg("discord rate limited")
			if err := c.sleep(ctx, d); err != nil {
				return err
			}
			continue
		}

		if status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			_ = json.Unmarshal(raw, apiErr)
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(status)
			}
			return apiErr
		}
		if out != nil && len(raw) > 0 && status != http.StatusNoContent {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode %s %s: %w", method, path, err)
			}
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, http.Header, []byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.DiscordRequests.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return 0, nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	observability.DiscordRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, resp.Header, raw, nil
}

// rateLimited inspects a response for a rate-limit signal and returns the
// wait it asks for.
func rateLimited(status int, header http.Header, raw []byte) (time.Duration, bool, bool) {
	var rl rateLimitBody
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &rl)
	}
	if status != http.StatusTooManyRequests && rl.RetryAfter == nil {
		return 0, false, false
	}
	secs := 0.0
	if rl.RetryAfter != nil {
		secs = *rl.RetryAfter
	}
	if h, err := strconv.ParseFloat(header.Get("Retry-After"), 64); err == nil && h > secs {
		secs = h
	}
	if secs < 0 {
		secs = 0
	}
	global := rl.Global || header.Get("X-RateLimit-Global") == "true"
	return time.Duration(secs * float64(time.Second)), global, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// EditOriginal patches the original response of the interaction identified
// by token.
func (c *Client) EditOriginal(ctx context.Context, token string, edit MessageEdit) error {
	if token == "" {
		return errors.New("discord: empty interaction token")
	}
	return c.Do(ctx, http.MethodPatch, "/webhooks/"+c.appID+"/"+token+"/messages/@original", edit, nil)
}

// Followup posts a follow-up message for the interaction identified by token.
func (c *Client) Followup(ctx context.Context, token string, data ResponseData) error {
	if token == "" {
		return errors.New("discord: empty interaction token")
	}
	return c.Do(ctx, http.MethodPost, "/webhooks/"+c.appID+"/"+token, data, nil)
}

// PutCommands overwrites the application's global commands, or a guild's
// commands when guildID is set.
func (c *Client) PutCommands(ctx context.Context, guildID string, cmds []ApplicationCommand) ([]ApplicationCommand, error) {
	path := "/applications/" + c.appID + "/commands"
	if guildID != "" {
		path = "/applications/" + c.appID + "/guilds/" + guildID + "/commands"
	}
	var out []ApplicationCommand
	if err := c.Do(ctx, http.MethodPut, path, cmds, &out); err != nil {
		return nil, err
	}
	return out, nil
}
