package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/service/groups"
	"github.com/gigachat/gigachat-server/internal/service/history"
	"github.com/gigachat/gigachat-server/internal/store"
)

// AdminHandlers exposes moderation views over users and message history.
// Every route is mounted behind auth + admin middleware.
type AdminHandlers struct {
	store   store.UserStore
	groups  *groups.Service
	history *history.Service
	log     *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(st store.UserStore, grp *groups.Service, hist *history.Service, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		store:   st,
		groups:  grp,
		history: hist,
		log:     logger,
	}
}

// AdminUserResponse is a user joined with their contacts and groups.
type AdminUserResponse struct {
	UserResponse
	Contacts []*store.SenderProfile `json:"contacts"`
	Groups   []GroupResponse        `json:"groups"`
}

// ListUsers returns every user together with their contacts and groups.
// GET /admin/users
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.store.ListUsers(ctx, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]AdminUserResponse, 0, len(users))
	for _, u := range users {
		contacts, err := h.store.ListContacts(ctx, u.ID)
		if err != nil {
			h.log.Error().Err(err).Int64("user_id", u.ID).Msg("failed to list contacts")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		if contacts == nil {
			contacts = []*store.SenderProfile{}
		}

		memberships, err := h.groups.ListForUser(ctx, u.ID)
		if err != nil {
			h.log.Error().Err(err).Int64("user_id", u.ID).Msg("failed to list groups")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		groupList := make([]GroupResponse, 0, len(memberships))
		for _, g := range memberships {
			groupList = append(groupList, groupToResponse(g))
		}

		response = append(response, AdminUserResponse{
			UserResponse: userToResponse(u),
			Contacts:     contacts,
			Groups:       groupList,
		})
	}

	c.JSON(http.StatusOK, response)
}

// UserMessages returns every direct message one user sent or received.
// GET /admin/user/:userId/messages
func (h *AdminHandlers) UserMessages(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	msgs, err := h.history.UserDirect(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list user messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}

// Conversation returns the direct history between two users.
// GET /admin/chat/:user1/:user2
func (h *AdminHandlers) Conversation(c *gin.Context) {
	user1, ok := parseIDParam(c, "user1")
	if !ok {
		return
	}
	user2, ok := parseIDParam(c, "user2")
	if !ok {
		return
	}

	msgs, err := h.history.Direct(c.Request.Context(), user1, user2)
	if err != nil {
		h.log.Error().Err(err).Int64("user1", user1).Int64("user2", user2).Msg("failed to fetch conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}

// GroupMessages returns a group's full history.
// GET /admin/group/:groupId/messages
func (h *AdminHandlers) GroupMessages(c *gin.Context) {
	groupID, ok := parseIDParam(c, "groupId")
	if !ok {
		return
	}

	msgs, err := h.history.Group(c.Request.Context(), groupID)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("failed to fetch group messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}

// SearchMessages finds messages by content substring.
// GET /admin/search/messages?query=...
func (h *AdminHandlers) SearchMessages(c *gin.Context) {
	query := c.Query("query")

	msgs, err := h.history.Search(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}
