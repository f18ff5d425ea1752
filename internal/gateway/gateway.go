package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/staffdesk/internal"
)

// TokenSource yields the current bearer token, or "" when signed out. The
// session store satisfies this.
type TokenSource interface {
	Token() string
}

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client wraps every outbound request with auth headers, JSON
// encoding/decoding and uniform error surfacing. It never retries; retry
// policy belongs to the caller.
type Client struct {
	baseURL    string
	timeout    time.Duration
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, tokens TokenSource, logger *slog.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		timeout:    timeout,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Get(ctx context.Context, endpoint string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Do performs one request against the API. body is JSON-encoded when
// non-nil; a successful response is decoded into out when out is non-nil.
// Failures come back as *internal.AppError, with throttle metadata attached
// when the server sent any.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return internal.NewValidationError("failed to encode request body", internal.ErrCodeValidationFailed).WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := internal.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return internal.NewValidationError("failed to build request", internal.ErrCodeValidationFailed).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request transport failure", "method", method, "endpoint", endpoint, "error", err)
		return internal.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(method, endpoint, resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("failed to decode response", "method", method, "endpoint", endpoint, "error", err)
		return internal.NewServerError("malformed response from server", resp.StatusCode).WithCause(err)
	}

	return nil
}

// errorBody is the shape every non-2xx response carries. The throttle
// fields only ever appear on login failures.
type errorBody struct {
	Error             string `json:"error"`
	Locked            bool   `json:"locked"`
	RemainingCooldown int    `json:"remaining_cooldown"`
	Warning           bool   `json:"warning"`
	AttemptsRemaining *int   `json:"attempts_remaining"`
}

func (c *Client) errorFromResponse(method, endpoint string, resp *http.Response) error {
	var body errorBody
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.logger.Debug("non-JSON error body", "endpoint", endpoint, "status", resp.StatusCode)
		}
	}

	message := body.Error
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	appErr := c.classify(resp.StatusCode, message, &body)

	c.logger.Warn("api error",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"type", appErr.Type,
		"code", appErr.Code)

	return appErr
}

func (c *Client) classify(status int, message string, body *errorBody) *internal.AppError {
	throttled := body.Locked || body.Warning || body.AttemptsRemaining != nil

	switch {
	case body.Locked:
		// locked wins over warning and over a bare attempts_remaining
		return internal.NewAuthError(message, internal.ErrCodeAccountLocked).
			WithDetails(&internal.ThrottleDetails{
				Locked:            true,
				RemainingCooldown: body.RemainingCooldown,
			})
	case body.Warning:
		return internal.NewAuthError(message, internal.ErrCodeLoginWarning).
			WithDetails(&internal.ThrottleDetails{
				Warning:           true,
				AttemptsRemaining: body.AttemptsRemaining,
			})
	case throttled:
		return internal.NewAuthError(message, internal.ErrCodeInvalidCredentials).
			WithDetails(&internal.ThrottleDetails{
				AttemptsRemaining: body.AttemptsRemaining,
			})
	}

	switch status {
	case http.StatusUnauthorized:
		return internal.NewAuthError(message, internal.ErrCodeInvalidToken)
	case http.StatusForbidden:
		return internal.NewAuthorizationError(message, internal.ErrCodeAdminOnly)
	case http.StatusNotFound:
		return internal.NewNotFoundError(message)
	case http.StatusBadRequest:
		return internal.NewValidationError(message, internal.ErrCodeValidationFailed)
	default:
		return internal.NewServerError(message, status)
	}
}
