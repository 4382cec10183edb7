package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"maintenance-service/prometheus"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	verifyTokenPath = "/api/verify-token"
	userInfoPath    = "/api/userinfo"
)

var (
	// ErrTokenRejected means the authority answered with a non-success status
	ErrTokenRejected = errors.New("token rejected by authorization server")
	// ErrUnavailable means the authority could not be reached or the breaker is open
	ErrUnavailable = errors.New("authorization server unavailable")
)

// UserInfo is the identity payload returned by the authorization server
type UserInfo struct {
	Sub         string   `json:"sub"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ErrorResponse represents an OAuth error response
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// Client talks to the remote authorization server
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
	breaker    *gobreaker.CircuitBreaker[*UserInfo]
}

// NewClient creates a new OAuth client instance
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// WithCircuitBreaker guards outgoing calls with a breaker named name.
// Rejected tokens count as successful calls; transport errors, 5xx and unreadable bodies trip it.
func (c *Client) WithCircuitBreaker(name string) *Client {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrTokenRejected)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		c.Logger.Warn("Authorization server circuit breaker changed state",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	c.breaker = gobreaker.NewCircuitBreaker[*UserInfo](st)
	return c
}

// VerifyToken asks the authority whether token is valid and who it belongs to
func (c *Client) VerifyToken(ctx context.Context, token string) (*UserInfo, error) {
	return c.identity(ctx, http.MethodPost, verifyTokenPath, token)
}

// GetUserInfo loads the current roles and permissions for token
func (c *Client) GetUserInfo(ctx context.Context, token string) (*UserInfo, error) {
	return c.identity(ctx, http.MethodGet, userInfoPath, token)
}

func (c *Client) identity(ctx context.Context, method, path, token string) (*UserInfo, error) {
	track := prometheus.TrackRemoteCall(path)

	info, err := c.execute(ctx, method, path, token)
	track(err)
	return info, err
}

func (c *Client) execute(ctx context.Context, method, path, token string) (*UserInfo, error) {
	if c.breaker == nil {
		return c.fetch(ctx, method, path, token)
	}

	info, err := c.breaker.Execute(func() (*UserInfo, error) {
		return c.fetch(ctx, method, path, token)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return info, err
}

func (c *Client) fetch(ctx context.Context, method, path, token string) (*UserInfo, error) {
	body, err := c.do(ctx, method, path, token)
	if err != nil {
		return nil, err
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		c.Logger.Error("Failed to parse authorization server response",
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: invalid response body: %w", ErrUnavailable, err)
	}
	return &info, nil
}

func (c *Client) do(ctx context.Context, method, path, token string) ([]byte, error) {
	// A started validation runs to completion: caller cancellation is not propagated,
	// only the client timeout bounds it.
	ctx = context.WithoutCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Authorization server request failed",
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read authorization server response", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp ErrorResponse
		_ = json.Unmarshal(body, &errorResp)
		c.Logger.Warn("Authorization server rejected token",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("error", errorResp.Error),
			zap.String("description", firstNonEmpty(errorResp.ErrorDescription, errorResp.Message)))

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", ErrTokenRejected, resp.StatusCode)
	}

	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
