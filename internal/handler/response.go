package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"web3nav/internal/auth"
	"web3nav/internal/errors"
	"web3nav/internal/model"
)

// SectionResponse is the JSON shape of a section.
type SectionResponse struct {
	ID          uint      `json:"id"`
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WebsiteResponse is the JSON shape of a website. Tags is always an array.
type WebsiteResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Tags        []string  `json:"tags"`
	CustomLogo  *string   `json:"customLogo"`
	Section     string    `json:"section"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SuccessResponse acknowledges a write with no body of its own.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// OrderItemRequest assigns a sort position to one row.
type OrderItemRequest struct {
	ID        uint `json:"id" validate:"required"`
	SortOrder int  `json:"sortOrder" validate:"min=0"`
}

// OrderRequest is the body of the PUT .../order endpoints.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (r OrderRequest) toModel() []model.OrderItem {
	items := make([]model.OrderItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = model.OrderItem{ID: it.ID, SortOrder: it.SortOrder}
	}
	return items
}

func toSectionResponse(s model.Section) SectionResponse {
	return SectionResponse{
		ID:          s.ID,
		Key:         s.Key,
		Title:       s.Title,
		Description: s.Description,
		Icon:        s.Icon,
		SortOrder:   s.SortOrder,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toSectionResponses(sections []model.Section) []SectionResponse {
	out := make([]SectionResponse, len(sections))
	for i, s := range sections {
		out[i] = toSectionResponse(s)
	}
	return out
}

func toWebsiteResponse(w model.Website) WebsiteResponse {
	return WebsiteResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		URL:         w.URL,
		Tags:        w.Tags.Strings(),
		CustomLogo:  w.CustomLogo,
		Section:     w.Section,
		SortOrder:   w.SortOrder,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toWebsiteResponses(websites []model.Website) []WebsiteResponse {
	out := make([]WebsiteResponse, len(websites))
	for i, w := range websites {
		out[i] = toWebsiteResponse(w)
	}
	return out
}

// mapError converts a service error into an echo error. The cause is kept as
// the internal error so 5xx responses can be logged without leaking it.
func mapError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_BODY",
	})
}

func validationFailed(err error) *echo.HTTPError {
	msg := "request validation failed"
	var invalid *errors.ValidationError
	if errors.As(err, &invalid) {
		msg = invalid.Error()
	}
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: msg,
		Code:  "VALIDATION_FAILED",
	})
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(err)
	}
	return nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

// sessionClaims returns the claims the session middleware stored on c.
func sessionClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(auth.ContextKey).(*auth.Claims)
	if !ok || claims == nil {
		hErr := errors.Unauthorized()
		return nil, echo.NewHTTPError(hErr.StatusCode, hErr.ToErrorResponse())
	}
	return claims, nil
}

// setNoCache marks a public response as never cacheable.
func setNoCache(c echo.Context) {
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
