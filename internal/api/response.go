package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error sends a JSON error response.
func Error(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// mapServiceError writes the HTTP response for an error returned by a service.
func mapServiceError(c echo.Context, err error) error {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		slog.Error("unhandled service error", "error", err, "path", c.Path())
		return Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	return Error(c, serviceStatus(svcErr.Err), svcErr.Code, svcErr.Message)
}

func serviceStatus(sentinel error) int {
	switch {
	case errors.Is(sentinel, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(sentinel, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(sentinel, service.ErrInvalidReply):
		return http.StatusUnprocessableEntity
	case errors.Is(sentinel, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(sentinel, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders errors that escape handlers and middleware in the
// same envelope handlers use.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		authErr *auth.Error
		svcErr  *service.ServiceError
		httpErr *echo.HTTPError
	)
	var werr error
	switch {
	case errors.As(err, &authErr):
		werr = Error(c, authErr.Status, authErr.Code, authErr.Message)
	case errors.As(err, &svcErr):
		werr = mapServiceError(c, svcErr)
	case errors.As(err, &httpErr):
		werr = Error(c, httpErr.Code, statusCode(httpErr.Code), fmt.Sprint(httpErr.Message))
	default:
		slog.Error("unhandled error", "error", err, "path", c.Path())
		werr = Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if werr != nil {
		slog.Error("writing error response", "error", werr)
	}
}

// statusCode turns an HTTP status into an error code, e.g. 404 -> NOT_FOUND.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
