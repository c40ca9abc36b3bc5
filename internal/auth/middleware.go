package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/jiashuyu/belay/internal/models"
	"github.com/labstack/echo/v4"
)

// Error is an authentication failure. The API error handler renders it with
// its own status and code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrMissingAPIKey = &Error{Status: http.StatusUnauthorized, Code: "MISSING_API_KEY", Message: "missing api key"}
	ErrInvalidAPIKey = &Error{Status: http.StatusForbidden, Code: "INVALID_API_KEY", Message: "invalid api key"}
)

// Authenticator resolves an API key to its user. It returns (nil, nil) when
// no user holds the key.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*models.User, error)
}

// Middleware returns an Echo middleware that authenticates requests by API key.
// The key is read from the Authorization header, either bare or as
// "Bearer <key>", and the resolved user is stored in the Echo context.
func Middleware(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := APIKeyFromHeader(c.Request().Header.Get("Authorization"))
			if key == "" {
				return ErrMissingAPIKey
			}

			user, err := a.Authenticate(c.Request().Context(), key)
			if err != nil {
				return err
			}
			if user == nil {
				return ErrInvalidAPIKey
			}

			c.Set("user_id", user.ID)
			c.Set("user", user)
			return next(c)
		}
	}
}

// APIKeyFromHeader extracts the key from an Authorization header value.
func APIKeyFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return header
}

// GetUserID extracts the authenticated user ID from the Echo context.
func GetUserID(c echo.Context) int64 {
	return c.Get("user_id").(int64)
}

// GetUser returns the authenticated user, or nil outside the middleware.
func GetUser(c echo.Context) *models.User {
	u, _ := c.Get("user").(*models.User)
	return u
}
