package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrSectionNotFound is returned when no section matches the id or key.
	ErrSectionNotFound = errors.New("section not found")
	// ErrWebsiteNotFound is returned when no website matches the id.
	ErrWebsiteNotFound = errors.New("website not found")
	// ErrAdminNotFound is returned when the admin user is missing.
	ErrAdminNotFound = errors.New("admin user not found")
	// ErrSectionKeyExists is returned when a section key is already taken.
	ErrSectionKeyExists = errors.New("section key already exists")
	// ErrUsernameTaken is returned when a new username belongs to another admin.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUnknownSection is returned when a website names a section key that does not exist.
	ErrUnknownSection = errors.New("section does not exist")
	// ErrInvalidCredentials is the single answer to every failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrWrongPassword is returned when the current password in a change request is wrong.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrUnauthorized is the single answer to every missing or rejected session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmptyOrder is returned for a reorder request without items.
	ErrEmptyOrder = errors.New("order list is empty")
	// ErrWeakPassword is returned when a new password is too short.
	ErrWeakPassword = errors.New("password too short")
	// ErrPasswordTooLong is returned when a new password exceeds what bcrypt can hash.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidURL is returned when a website URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
)

// SectionInUseError blocks deleting a section that websites still reference.
type SectionInUseError struct {
	Key   string
	Count int64
}

func (e *SectionInUseError) Error() string {
	return fmt.Sprintf("cannot delete section %q: %d website(s) still reference it", e.Key, e.Count)
}

// ValidationError lists the fields of a request that failed validation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Count *int64 `json:"count,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Count      *int64
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
		Count: e.Count,
	}
}

// Unauthorized is the uniform response for any session failure.
func Unauthorized() *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unrecognised is
// reported as a generic 500; the cause stays in the server log.
func MapErrorToHTTP(err error) *HTTPError {
	var inUse *SectionInUseError
	var invalid *ValidationError
	switch {
	case errors.As(err, &invalid):
		return NewHTTPError(http.StatusBadRequest, invalid.Error(), "VALIDATION_FAILED")
	case errors.As(err, &inUse):
		httpErr := NewHTTPError(http.StatusBadRequest, inUse.Error(), "SECTION_IN_USE")
		count := inUse.Count
		httpErr.Count = &count
		return httpErr
	case errors.Is(err, ErrSectionNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "SECTION_NOT_FOUND")
	case errors.Is(err, ErrWebsiteNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "WEBSITE_NOT_FOUND")
	case errors.Is(err, ErrSectionKeyExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "SECTION_KEY_EXISTS")
	case errors.Is(err, ErrUsernameTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "USERNAME_TAKEN")
	case errors.Is(err, ErrUnknownSection):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "UNKNOWN_SECTION")
	case errors.Is(err, ErrEmptyOrder):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "EMPTY_ORDER")
	case errors.Is(err, ErrWeakPassword):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "WEAK_PASSWORD")
	case errors.Is(err, ErrPasswordTooLong):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "PASSWORD_TOO_LONG")
	case errors.Is(err, ErrInvalidURL):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_URL")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrWrongPassword):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "WRONG_PASSWORD")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAdminNotFound):
		return Unauthorized()
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
