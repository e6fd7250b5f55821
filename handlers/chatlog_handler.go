package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"CodeMart/models"
	"CodeMart/services"
)

// ChatLogHandler exposes the persisted chat log. This is the REST surface
// back-office tooling talks to; the live coordinator has its own in-memory
// state and never reads or writes through here.
type ChatLogHandler struct {
	chatlog *services.ChatLogService
}

func NewChatLogHandler(chatlog *services.ChatLogService) *ChatLogHandler {
	return &ChatLogHandler{chatlog: chatlog}
}

type createMessageRequest struct {
	SessionKey   string `json:"session_key"`
	AuthorID     string `json:"author_id"`
	SenderKind   string `json:"sender_kind"`
	Content      string `json:"content"`
	FileURL      string `json:"file_url"`
	FileType     string `json:"file_type"`
	VisitorName  string `json:"visitor_name"`
	VisitorEmail string `json:"visitor_email"`
}

func (h *ChatLogHandler) CreateMessage(c echo.Context) error {
	var req createMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.SessionKey == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_key and content are required"})
	}
	switch req.SenderKind {
	case "visitor", "admin", "bot":
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown sender_kind"})
	}

	msg := models.ChatMessage{
		SessionKey: req.SessionKey,
		AuthorID:   req.AuthorID,
		SenderKind: req.SenderKind,
		Content:    req.Content,
		FileURL:    req.FileURL,
		FileType:   req.FileType,
	}
	if err := h.chatlog.CreateMessage(&msg, req.VisitorName, req.VisitorEmail); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save message"})
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *ChatLogHandler) ListMessages(c echo.Context) error {
	sessionKey := c.Param("sessionKey")

	limit, offset := 50, 0
	if c.QueryParam("limit") != "" {
		fmt.Sscanf(c.QueryParam("limit"), "%d", &limit)
	}
	if c.QueryParam("offset") != "" {
		fmt.Sscanf(c.QueryParam("offset"), "%d", &offset)
	}

	messages, err := h.chatlog.ListMessages(sessionKey, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *ChatLogHandler) MarkRead(c echo.Context) error {
	sessionKey := c.Param("sessionKey")
	if err := h.chatlog.MarkRead(sessionKey); err != nil {
		if errors.Is(err, services.ErrChatSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to mark read"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatLogHandler) ListActiveSessions(c echo.Context) error {
	sessions, err := h.chatlog.ListActiveSessions()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch sessions"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (h *ChatLogHandler) CloseSession(c echo.Context) error {
	sessionKey := c.Param("sessionKey")
	if err := h.chatlog.CloseSession(sessionKey); err != nil {
		if errors.Is(err, services.ErrChatSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to close session"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatLogHandler) FindAutoResponse(c echo.Context) error {
	text := c.QueryParam("text")
	if text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text query parameter is required"})
	}
	resp, err := h.chatlog.FindAutoResponse(text)
	if err != nil {
		if errors.Is(err, services.ErrNoAutoResponse) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no auto-response matches"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to search auto-responses"})
	}
	return c.JSON(http.StatusOK, resp)
}
