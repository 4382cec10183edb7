package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

// Identity is the validated caller of a request
type Identity struct {
	Subject     string   `json:"sub"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	CompanyID   string   `json:"companyId,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Token       string   `json:"-"`
}

type contextKey string

const (
	identityKey contextKey = "identity"
	echoKey                = "identity"
)

// WithIdentity stores the identity in ctx
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity attached by the pipeline, if any
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// FromEcho returns the identity attached by the pipeline, if any
func FromEcho(c echo.Context) (*Identity, bool) {
	id, ok := c.Get(echoKey).(*Identity)
	return id, ok && id != nil
}

func attach(c echo.Context, id *Identity) {
	c.Set(echoKey, id)
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
}
