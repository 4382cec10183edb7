package handler

import (
	"net/http"
	"strconv"

	"maintenance-service/internal/auth"
	"maintenance-service/pkg/errs"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HeaderCompanyID scopes requests whose token does not carry a company
const HeaderCompanyID = "X-Company-ID"

// respondError writes the JSON error body; internal causes are logged, never returned
func respondError(c echo.Context, err error) error {
	status := errs.StatusCode(err)
	log := logger.FromEcho(c)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": errs.PublicMessage(err)})
}

func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		logger.FromEcho(c).Warn("Failed to parse request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return errs.BadRequest("invalid request")
	}
	return nil
}

// companyScope returns the tenant the request operates on
func companyScope(c echo.Context) (string, error) {
	if identity, ok := auth.FromEcho(c); ok && identity.CompanyID != "" {
		return identity.CompanyID, nil
	}
	if companyID := c.Request().Header.Get(HeaderCompanyID); companyID != "" {
		return companyID, nil
	}
	return "", errs.BadRequest("Company scope is required")
}

func identity(c echo.Context) (*auth.Identity, error) {
	id, ok := auth.FromEcho(c)
	if !ok {
		return nil, errs.Unauthorized("authentication required")
	}
	return id, nil
}

func queryBool(c echo.Context, name string) *bool {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
