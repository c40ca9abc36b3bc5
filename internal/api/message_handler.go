package api

import (
	"net/http"
	"strconv"

	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles message and thread endpoints.
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

type postMessageRequest struct {
	Body    string `json:"body"`
	ReplyTo *int64 `json:"reply_to"`
}

type postReplyRequest struct {
	Body string `json:"body"`
}

// PostMessage handles POST /api/v1/channels/:id/messages.
func (h *MessageHandler) PostMessage(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	msg, err := h.service.PostMessage(c.Request().Context(), channelID, auth.GetUserID(c), req.Body, req.ReplyTo)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /api/v1/channels/:id/messages.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	msgs, err := h.service.ListTopLevelMessages(c.Request().Context(), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// GetMessage handles GET /api/v1/messages/:id.
func (h *MessageHandler) GetMessage(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message ID")
	}

	msg, err := h.service.GetMessage(c.Request().Context(), messageID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// ListReplies handles GET /api/v1/messages/:id/replies.
func (h *MessageHandler) ListReplies(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message ID")
	}

	replies, err := h.service.ListReplies(c.Request().Context(), messageID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, replies)
}

// PostReply handles POST /api/v1/messages/:id/replies.
func (h *MessageHandler) PostReply(c echo.Context) error {
	parentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message ID")
	}

	var req postReplyRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	msg, err := h.service.PostReply(c.Request().Context(), parentID, auth.GetUserID(c), req.Body)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}
