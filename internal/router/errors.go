package router

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"web3nav/internal/errors"
)

// NewHTTPErrorHandler renders every error as errors.ErrorResponse. Causes of
// 5xx responses are logged and never sent to the client.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body, cause := resolveError(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", status,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", cause,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("write error response", "error", writeErr)
		}
	}
}

func resolveError(err error) (int, errors.ErrorResponse, error) {
	var he *echo.HTTPError
	if !stderrors.As(err, &he) {
		mapped := errors.MapErrorToHTTP(err)
		return mapped.StatusCode, mapped.ToErrorResponse(), err
	}

	cause := he.Internal
	if cause == nil {
		cause = err
	}

	switch msg := he.Message.(type) {
	case errors.ErrorResponse:
		return he.Code, msg, cause
	case *errors.ErrorResponse:
		return he.Code, *msg, cause
	case string:
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return he.Code, errors.ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}, cause
	default:
		return he.Code, errors.ErrorResponse{Error: strings.ToLower(http.StatusText(he.Code)), Code: codeForStatus(he.Code)}, cause
	}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case status >= http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	}
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
