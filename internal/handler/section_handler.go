package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"web3nav/internal/service"
)

// SectionHandler handles section administration endpoints.
type SectionHandler struct {
	sectionService service.SectionService
}

// NewSectionHandler creates a new section handler.
func NewSectionHandler(sectionService service.SectionService) *SectionHandler {
	return &SectionHandler{sectionService: sectionService}
}

// CreateSectionRequest represents a new section.
type CreateSectionRequest struct {
	Key         string `json:"key" validate:"required,max=100,sectionkey"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Icon        string `json:"icon" validate:"max=100"`
	SortOrder   *int   `json:"sortOrder" validate:"omitempty,min=0"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateSectionRequest represents a partial section update.
type UpdateSectionRequest struct {
	Key         *string `json:"key" validate:"omitempty,max=100,sectionkey"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Icon        *string `json:"icon" validate:"omitempty,max=100"`
	SortOrder   *int    `json:"sortOrder" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"isActive"`
}

// ReorderKeysRequest lists section keys in their new display order.
type ReorderKeysRequest struct {
	Keys []string `json:"keys" validate:"required,min=1,dive,required"`
}

// List godoc
// @Summary List all sections
// @Description Includes inactive sections.
// @Tags admin-sections
// @Produce json
// @Success 200 {array} SectionResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/sections [get]
func (h *SectionHandler) List(c echo.Context) error {
	sections, err := h.sectionService.List(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toSectionResponses(sections))
}

// Create godoc
// @Summary Create a section
// @Tags admin-sections
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param request body CreateSectionRequest true "Section"
// @Success 201 {object} SectionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/sections [post]
func (h *SectionHandler) Create(c echo.Context) error {
	var req CreateSectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	section, err := h.sectionService.Create(c.Request().Context(), service.CreateSectionInput{
		Key:         req.Key,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toSectionResponse(*section))
}

// Update godoc
// @Summary Update a section
// @Description ref is a numeric id or a section key. Renaming the key moves its websites.
// @Tags admin-sections
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param ref path string true "Section id or key"
// @Param request body UpdateSectionRequest true "Fields to change"
// @Success 200 {object} SectionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/sections/{ref} [put]
func (h *SectionHandler) Update(c echo.Context) error {
	var req UpdateSectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	section, err := h.sectionService.Update(c.Request().Context(), c.Param("ref"), service.UpdateSectionInput{
		Key:         req.Key,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toSectionResponse(*section))
}

// Delete godoc
// @Summary Delete a section
// @Description Refused with 400 and the blocking count while websites reference the section.
// @Tags admin-sections
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param ref path string true "Section id or key"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/sections/{ref} [delete]
func (h *SectionHandler) Delete(c echo.Context) error {
	if err := h.sectionService.Delete(c.Request().Context(), c.Param("ref")); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// UpdateOrder godoc
// @Summary Set section sort positions
// @Description All items are applied in one transaction; an unknown id rejects the batch.
// @Tags admin-sections
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param request body OrderRequest true "New positions"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/sections/order [put]
func (h *SectionHandler) UpdateOrder(c echo.Context) error {
	var req OrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.sectionService.Reorder(c.Request().Context(), req.toModel()); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Reorder godoc
// @Summary Reorder sections by key
// @Description Each section's sort position becomes its index in keys.
// @Tags admin-sections
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param request body ReorderKeysRequest true "Keys in display order"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/sections/reorder [post]
func (h *SectionHandler) Reorder(c echo.Context) error {
	var req ReorderKeysRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.sectionService.ReorderByKeys(c.Request().Context(), req.Keys); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
