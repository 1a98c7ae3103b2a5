package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"web3nav/internal/service"
)

// IdempotencyKeyHeader lets a client retry a create without duplicating it.
const IdempotencyKeyHeader = "Idempotency-Key"

// WebsiteHandler handles website administration endpoints.
type WebsiteHandler struct {
	websiteService service.WebsiteService
}

// NewWebsiteHandler creates a new website handler.
func NewWebsiteHandler(websiteService service.WebsiteService) *WebsiteHandler {
	return &WebsiteHandler{websiteService: websiteService}
}

// CreateWebsiteRequest represents a new website.
type CreateWebsiteRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	URL         string   `json:"url" validate:"required,url,max=2048"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
	CustomLogo  *string  `json:"customLogo" validate:"omitempty,max=2048"`
	Section     string   `json:"section" validate:"required,max=100"`
	SortOrder   *int     `json:"sortOrder" validate:"omitempty,min=0"`
}

// UpdateWebsiteRequest represents a partial website update. Send
// "customLogo": "" to remove the logo.
type UpdateWebsiteRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	URL         *string  `json:"url" validate:"omitempty,url,max=2048"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	CustomLogo  *string  `json:"customLogo" validate:"omitempty,max=2048"`
	Section     *string  `json:"section" validate:"omitempty,min=1,max=100"`
	SortOrder   *int     `json:"sortOrder" validate:"omitempty,min=0"`
}

// List godoc
// @Summary List websites
// @Tags admin-websites
// @Produce json
// @Param section query string false "Only websites in this section key"
// @Success 200 {array} WebsiteResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/websites [get]
func (h *WebsiteHandler) List(c echo.Context) error {
	websites, err := h.websiteService.List(c.Request().Context(), c.QueryParam("section"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toWebsiteResponses(websites))
}

// Create godoc
// @Summary Create a website
// @Description Replaying a request with the same Idempotency-Key returns the website created by the first one.
// @Tags admin-websites
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client generated key for safe retries"
// @Param request body CreateWebsiteRequest true "Website"
// @Success 201 {object} WebsiteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/websites [post]
func (h *WebsiteHandler) Create(c echo.Context) error {
	var req CreateWebsiteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	website, err := h.websiteService.Create(c.Request().Context(), service.CreateWebsiteInput{
		Name:           req.Name,
		Description:    req.Description,
		URL:            req.URL,
		Tags:           req.Tags,
		CustomLogo:     req.CustomLogo,
		Section:        req.Section,
		SortOrder:      req.SortOrder,
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toWebsiteResponse(*website))
}

// Update godoc
// @Summary Update a website
// @Tags admin-websites
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param id path int true "Website id"
// @Param request body UpdateWebsiteRequest true "Fields to change"
// @Success 200 {object} WebsiteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/websites/{id} [put]
func (h *WebsiteHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateWebsiteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	website, err := h.websiteService.Update(c.Request().Context(), id, service.UpdateWebsiteInput{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		Tags:        req.Tags,
		CustomLogo:  req.CustomLogo,
		Section:     req.Section,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toWebsiteResponse(*website))
}

// Delete godoc
// @Summary Delete a website
// @Tags admin-websites
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param id path int true "Website id"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/websites/{id} [delete]
func (h *WebsiteHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.websiteService.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// UpdateOrder godoc
// @Summary Set website sort positions
// @Description All items are applied in one transaction; an unknown id rejects the batch.
// @Tags admin-websites
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
// @Router /api/admin/websites/order [put]
func (h *WebsiteHandler) UpdateOrder(c echo.Context) error {
	var req OrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.websiteService.Reorder(c.Request().Context(), req.toModel()); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
