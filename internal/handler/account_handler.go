package handler

import (
	"net/http"

	"maintenance-service/internal/model"
	"maintenance-service/internal/service"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create defaults the company to the caller's scope
func (h *AccountHandler) Create(c echo.Context) error {
	var req service.CreateAccountInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.CompanyID == "" {
		companyID, err := companyScope(c)
		if err != nil {
			return respondError(c, err)
		}
		req.CompanyID = companyID
	}

	account, err := h.accounts.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) List(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var q model.PageQuery
	if err := bind(c, &q); err != nil {
		return respondError(c, err)
	}
	page, err := h.accounts.List(c.Request().Context(), model.AccountFilter{
		CompanyID:      companyID,
		SubscriptionID: c.QueryParam("subscriptionId"),
		PageQuery:      q,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *AccountHandler) Get(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	account, err := h.accounts.FindOne(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// Current returns the account of the caller's company
func (h *AccountHandler) Current(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	account, err := h.accounts.FindByCompany(c.Request().Context(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Update(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var patch model.AccountPatch
	if err := bind(c, &patch); err != nil {
		return respondError(c, err)
	}
	account, err := h.accounts.Update(c.Request().Context(), c.Param("id"), companyID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Delete(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	account, err := h.accounts.SoftDelete(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Restore(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	account, err := h.accounts.Restore(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Deleted(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	accounts, err := h.accounts.FindDeleted(c.Request().Context(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, accounts)
}
