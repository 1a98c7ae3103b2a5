package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"web3nav/internal/service"
)

// PublicHandler serves the read-only directory to the public site.
type PublicHandler struct {
	directory service.DirectoryService
}

// NewPublicHandler creates a new public handler.
func NewPublicHandler(directory service.DirectoryService) *PublicHandler {
	return &PublicHandler{directory: directory}
}

// DirectoryResponse bundles sections and websites in one payload.
type DirectoryResponse struct {
	Sections []SectionResponse `json:"sections"`
	Websites []WebsiteResponse `json:"websites"`
}

// Sections godoc
// @Summary Active sections
// @Tags public
// @Produce json
// @Success 200 {array} SectionResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/sections [get]
func (h *PublicHandler) Sections(c echo.Context) error {
	setNoCache(c)
	sections, err := h.directory.Sections(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toSectionResponses(sections))
}

// Websites godoc
// @Summary All websites
// @Tags public
// @Produce json
// @Success 200 {array} WebsiteResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/websites [get]
func (h *PublicHandler) Websites(c echo.Context) error {
	setNoCache(c)
	websites, err := h.directory.Websites(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toWebsiteResponses(websites))
}

// Data godoc
// @Summary Whole directory
// @Tags public
// @Produce json
// @Success 200 {object} DirectoryResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/data [get]
func (h *PublicHandler) Data(c echo.Context) error {
	setNoCache(c)
	d, err := h.directory.Snapshot(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, DirectoryResponse{
		Sections: toSectionResponses(d.Sections),
		Websites: toWebsiteResponses(d.Websites),
	})
}
