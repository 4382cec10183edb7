package handler

import (
	"net/http"

	"maintenance-service/internal/model"
	"maintenance-service/internal/service"

	"github.com/labstack/echo/v4"
)

type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) Create(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.CreateSubscriptionInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	req.CompanyID = companyID

	subscription, err := h.subscriptions.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, subscription)
}

func (h *SubscriptionHandler) List(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var q model.PageQuery
	if err := bind(c, &q); err != nil {
		return respondError(c, err)
	}
	page, err := h.subscriptions.List(c.Request().Context(), model.ScopeFilter{CompanyID: companyID, PageQuery: q})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *SubscriptionHandler) Get(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	subscription, err := h.subscriptions.FindOne(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, subscription)
}

func (h *SubscriptionHandler) Update(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var patch model.SubscriptionPatch
	if err := bind(c, &patch); err != nil {
		return respondError(c, err)
	}
	subscription, err := h.subscriptions.Update(c.Request().Context(), c.Param("id"), companyID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, subscription)
}

func (h *SubscriptionHandler) Delete(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	subscription, err := h.subscriptions.SoftDelete(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, subscription)
}

func (h *SubscriptionHandler) Restore(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	subscription, err := h.subscriptions.Restore(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, subscription)
}

func (h *SubscriptionHandler) Deleted(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	subscriptions, err := h.subscriptions.FindDeleted(c.Request().Context(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, subscriptions)
}
