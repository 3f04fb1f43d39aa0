package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/service/history"
)

// ChatHandlers serves message history, the on-disk counterpart of the
// live broadcast stream.
type ChatHandlers struct {
	history *history.Service
	log     *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(hist *history.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		history: hist,
		log:     logger,
	}
}

// DirectHistory returns the conversation between two users, oldest first.
// GET /chat/history/:userId/:recipientId
func (h *ChatHandlers) DirectHistory(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	recipientID, ok := parseIDParam(c, "recipientId")
	if !ok {
		return
	}

	msgs, err := h.history.Direct(c.Request.Context(), userID, recipientID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Int64("recipient_id", recipientID).Msg("failed to fetch history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}

// GroupHistory returns a group's messages, oldest first.
// GET /chat/group-history/:groupId
func (h *ChatHandlers) GroupHistory(c *gin.Context) {
	groupID, ok := parseIDParam(c, "groupId")
	if !ok {
		return
	}

	msgs, err := h.history.Group(c.Request.Context(), groupID)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("failed to fetch group history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}
