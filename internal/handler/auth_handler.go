package handler

import (
	"net/http"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/service"
	"maintenance-service/pkg/errs"
	"maintenance-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *service.AuthService
	quota  *service.QuotaService
	remote *auth.RemoteValidator
}

// NewAuthHandler builds the /auth handlers; remote is nil unless the remote strategy is active
func NewAuthHandler(authService *service.AuthService, quota *service.QuotaService, remote *auth.RemoteValidator) *AuthHandler {
	return &AuthHandler{auth: authService, quota: quota, remote: remote}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, errs.BadRequest("email and password are required"))
	}

	resp, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req service.CreateUserInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("User registered", zap.String("user_id", resp.Session.User.ID))
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req service.RefreshInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// VerifyToken accepts the token in the body or as a bearer header
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	token := req.Token
	if token == "" {
		token = auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	}
	if token == "" {
		return respondError(c, errs.Unauthorized("no token"))
	}

	result, err := h.auth.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Profile returns the session of the caller
func (h *AuthHandler) Profile(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	session, err := h.auth.Profile(c.Request().Context(), id.Subject)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// UserInfo passes the authority's userinfo through
func (h *AuthHandler) UserInfo(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if h.remote == nil {
		return c.JSON(http.StatusOK, id)
	}

	info, err := h.remote.UserInfo(c.Request().Context(), id.Token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.auth.ChangePassword(c.Request().Context(), id, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	id, _ := auth.FromEcho(c)
	return c.JSON(http.StatusOK, h.auth.Logout(c.Request().Context(), id))
}

// Quota reports the caller company's limit for one entity
func (h *AuthHandler) Quota(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.quota.CheckEntityLimit(c.Request().Context(), companyID, c.Param("entity"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
