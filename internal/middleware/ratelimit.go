package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"maintenance-service/internal/model"
	"maintenance-service/pkg/logger"
	"maintenance-service/pkg/ratelimit"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxLoginBody = 1 << 20

var errLoginBodyTooLarge = errors.New("login body too large")

// LoginRateLimit limits login attempts per client IP and email.
// Limiter failures let the request through.
func LoginRateLimit(limiter ratelimit.Limiter, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || limit <= 0 {
				return next(c)
			}
			log := logger.FromEcho(c)

			email, err := loginEmail(c)
			if errors.Is(err, errLoginBodyTooLarge) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Request body too large"})
			}
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
			}

			key := "login:" + c.RealIP() + "|" + email
			decision, err := limiter.Allow(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Warn("Login rate limiter unavailable, allowing request", zap.Error(err))
				return next(c)
			}

			writeRateLimitHeaders(c, decision)
			if !decision.Allowed {
				prometheus.RecordAuthError("rate_limited")
				log.Warn("Login rate limit exceeded", zap.String("ip", c.RealIP()))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many login attempts, please try again later"})
			}

			return next(c)
		}
	}
}

// loginEmail peeks at the JSON body and restores it for the handler.
// Bodies over maxLoginBody are refused rather than forwarded truncated.
func loginEmail(c echo.Context) (string, error) {
	req := c.Request()
	if req.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxLoginBody+1))
	_ = req.Body.Close()
	if err != nil {
		return "", err
	}
	if len(body) > maxLoginBody {
		return "", errLoginBodyTooLarge
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	return model.NormalizeEmail(payload.Email), nil
}

func writeRateLimitHeaders(c echo.Context, decision ratelimit.Decision) {
	h := c.Response().Header()
	if decision.Limit > 0 {
		h.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		h.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		h.Set("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
