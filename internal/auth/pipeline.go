package auth

import (
	"context"
	"slices"
	"strings"

	"maintenance-service/pkg/errs"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	errRoleDenied       = errs.Forbidden("Insufficient role")
	errPermissionDenied = errs.Forbidden("Insufficient permissions")
)

// Route is the static authorization metadata of one endpoint
type Route struct {
	Public      bool
	Roles       []string
	Permissions []string
}

// Public marks a route that skips authentication entirely
func Public() Route {
	return Route{Public: true}
}

// Authenticated requires only a valid token
func Authenticated() Route {
	return Route{}
}

// RequireRoles requires a valid token holding at least one of roles
func RequireRoles(roles ...string) Route {
	return Route{Roles: roles}
}

// RequirePermissions requires a valid token holding every permission
func RequirePermissions(permissions ...string) Route {
	return Route{Permissions: permissions}
}

// WithRoles returns a copy of r that also requires one of roles
func (r Route) WithRoles(roles ...string) Route {
	r.Roles = append(slices.Clone(r.Roles), roles...)
	return r
}

// WithPermissions returns a copy of r that also requires every permission
func (r Route) WithPermissions(permissions ...string) Route {
	r.Permissions = append(slices.Clone(r.Permissions), permissions...)
	return r
}

// Pipeline evaluates, in order: public bypass, token validation, role check, permission check.
// The first failing stage decides.
type Pipeline struct {
	validator TokenValidator
}

func NewPipeline(validator TokenValidator) *Pipeline {
	return &Pipeline{validator: validator}
}

// Validator returns the strategy the pipeline was built with
func (p *Pipeline) Validator() TokenValidator {
	return p.validator
}

// Evaluate returns the caller identity on Allow, nil identity for public routes,
// or an Unauthorized/Forbidden error on Deny.
func (p *Pipeline) Evaluate(ctx context.Context, authHeader string, route Route) (*Identity, error) {
	if route.Public {
		return nil, nil
	}

	token := BearerToken(authHeader)
	if token == "" {
		return nil, errNoToken
	}

	identity, err := p.validator.Validate(ctx, token)
	if err != nil {
		if errs.Is(err, errs.ErrUnauthorized) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrUnauthorized, invalidTokenMessage, err)
	}

	if len(route.Roles) > 0 && !p.hasRole(ctx, token, identity, route.Roles) {
		return identity, errRoleDenied
	}

	if len(route.Permissions) > 0 && !p.validator.CheckPermissions(ctx, token, route.Permissions) {
		return identity, errPermissionDenied
	}

	return identity, nil
}

func (p *Pipeline) hasRole(ctx context.Context, token string, identity *Identity, required []string) bool {
	if checker, ok := p.validator.(IdentityRoleChecker); ok {
		return checker.CheckIdentityRoles(identity, required)
	}
	return p.validator.CheckRoles(ctx, token, required)
}

// Guard builds the echo middleware for one route
func (p *Pipeline) Guard(route Route) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if route.Public {
				prometheus.RecordAuthDecision(true, "public")
				return next(c)
			}

			identity, err := p.Evaluate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization), route)
			log := logger.FromEcho(c)
			if identity != nil {
				log = logger.Enrich(c, zap.String("subject", identity.Subject))
			}

			if err != nil {
				reason := denyReason(err)
				prometheus.RecordAuthDecision(false, reason)
				prometheus.RecordAuthError(reason)
				log.Warn("Request denied",
					zap.String("reason", reason),
					zap.String("path", c.Path()),
					zap.Error(err))
				return c.JSON(errs.StatusCode(err), echo.Map{"error": errs.PublicMessage(err)})
			}

			attach(c, identity)
			prometheus.RecordAuthDecision(true, "authenticated")
			return next(c)
		}
	}
}

func denyReason(err error) string {
	switch {
	case err == errNoToken:
		return "no_token"
	case errs.Is(err, errs.ErrUnauthorized):
		return "invalid_token"
	case err == errRoleDenied:
		return "role"
	case err == errPermissionDenied:
		return "permission"
	default:
		return "error"
	}
}

// BearerToken extracts the token of a "Bearer <token>" header, or "" when absent or malformed
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
