package api

import (
	"net/http"
	"strconv"

	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
)

// ChannelHandler handles channel endpoints.
type ChannelHandler struct {
	service *service.ChannelService
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{service: svc}
}

type renameChannelRequest struct {
	Name string `json:"name"`
}

// CreateChannel handles POST /api/v1/channels.
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	ch, err := h.service.CreateChannel(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, ch)
}

// ListChannels handles GET /api/v1/channels.
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	channels, err := h.service.ListChannels(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channels)
}

// GetChannel handles GET /api/v1/channels/:id.
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	ch, err := h.service.GetChannel(c.Request().Context(), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}

// RenameChannel handles PATCH /api/v1/channels/:id.
func (h *ChannelHandler) RenameChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	var req renameChannelRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	ch, err := h.service.RenameChannel(c.Request().Context(), channelID, req.Name)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}
