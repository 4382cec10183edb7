package handler

import (
	"net/http"

	"maintenance-service/internal/model"
	"maintenance-service/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Create(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.CreateUserInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	req.CompanyID = companyID

	user, err := h.users.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) List(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var q model.PageQuery
	if err := bind(c, &q); err != nil {
		return respondError(c, err)
	}

	page, err := h.users.List(c.Request().Context(), model.UserFilter{
		CompanyID:     companyID,
		Role:          model.Role(c.QueryParam("role")),
		IsActive:      queryBool(c, "isActive"),
		EmailVerified: queryBool(c, "emailVerified"),
		PageQuery:     q,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.users.FindOne(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var patch model.UserPatch
	if err := bind(c, &patch); err != nil {
		return respondError(c, err)
	}

	user, err := h.users.Update(c.Request().Context(), c.Param("id"), companyID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) VerifyEmail(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.users.VerifyEmail(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.users.SoftDelete(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Restore(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.users.Restore(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Deleted(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	users, err := h.users.FindDeleted(c.Request().Context(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}
