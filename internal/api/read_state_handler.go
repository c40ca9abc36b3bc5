package api

import (
	"net/http"
	"strconv"

	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
)

// ReadStateHandler handles read watermark and unread count endpoints.
type ReadStateHandler struct {
	reads  *service.ReadStateService
	unread *service.UnreadService
}

// NewReadStateHandler creates a ReadStateHandler.
func NewReadStateHandler(reads *service.ReadStateService, unread *service.UnreadService) *ReadStateHandler {
	return &ReadStateHandler{reads: reads, unread: unread}
}

type ackRequest struct {
	LastMessageID *int64 `json:"last_message_id"`
}

type watermarkResponse struct {
	ChannelID     int64  `json:"channel_id"`
	LastMessageID *int64 `json:"last_message_id"`
}

// Ack handles PUT /api/v1/channels/:id/ack.
func (h *ReadStateHandler) Ack(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	var req ackRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := h.reads.RecordSeen(c.Request().Context(), auth.GetUserID(c), &channelID, req.LastMessageID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetAck handles GET /api/v1/channels/:id/ack.
func (h *ReadStateHandler) GetAck(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	wm, err := h.reads.GetWatermark(c.Request().Context(), auth.GetUserID(c), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, watermarkResponse{ChannelID: channelID, LastMessageID: wm})
}

// GetReadStates handles GET /api/v1/users/@me/read-states.
func (h *ReadStateHandler) GetReadStates(c echo.Context) error {
	states, err := h.reads.GetReadStates(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, states)
}

// GetUnreadCounts handles GET /api/v1/users/@me/unread.
func (h *ReadStateHandler) GetUnreadCounts(c echo.Context) error {
	counts, err := h.unread.UnreadCounts(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, counts)
}

// GetChannelUnread handles GET /api/v1/channels/:id/unread.
func (h *ReadStateHandler) GetChannelUnread(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	count, err := h.unread.UnreadCount(c.Request().Context(), auth.GetUserID(c), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, count)
}
