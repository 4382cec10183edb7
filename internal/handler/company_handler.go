package handler

import (
	"net/http"

	"maintenance-service/internal/model"
	"maintenance-service/internal/service"

	"github.com/labstack/echo/v4"
)

type CompanyHandler struct {
	companies *service.CompanyService
}

func NewCompanyHandler(companies *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

func (h *CompanyHandler) Create(c echo.Context) error {
	var req service.CreateCompanyInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandler) List(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var q model.PageQuery
	if err := bind(c, &q); err != nil {
		return respondError(c, err)
	}
	page, err := h.companies.List(c.Request().Context(), model.ScopeFilter{CompanyID: companyID, PageQuery: q})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CompanyHandler) Get(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.FindOne(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Update(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var patch model.CompanyPatch
	if err := bind(c, &patch); err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.Update(c.Request().Context(), c.Param("id"), companyID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) UpdateBranding(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var branding model.Branding
	if err := bind(c, &branding); err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.UpdateBranding(c.Request().Context(), c.Param("id"), companyID, branding)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) UpdateSettings(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var settings model.CompanySettings
	if err := bind(c, &settings); err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.UpdateSettings(c.Request().Context(), c.Param("id"), companyID, settings)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Delete(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.SoftDelete(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Restore(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	company, err := h.companies.Restore(c.Request().Context(), c.Param("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Deleted(c echo.Context) error {
	companyID, err := companyScope(c)
	if err != nil {
		return respondError(c, err)
	}
	companies, err := h.companies.FindDeleted(c.Request().Context(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, companies)
}
