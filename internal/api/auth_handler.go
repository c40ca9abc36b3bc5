package api

import (
	"net/http"

	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
}

type loginResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	result, err := h.service.Signup(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, signupResponse{
		ID:       result.User.ID,
		Name:     result.User.Name,
		Password: result.Password,
		APIKey:   result.User.APIKey,
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	user, err := h.service.Login(c.Request().Context(), req.Name, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		ID:     user.ID,
		Name:   user.Name,
		APIKey: user.APIKey,
	})
}
