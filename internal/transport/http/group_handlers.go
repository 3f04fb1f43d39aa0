package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/service/groups"
	"github.com/gigachat/gigachat-server/internal/store"
)

// GroupHandlers provides HTTP handlers for group management.
type GroupHandlers struct {
	groups *groups.Service
	log    *zerolog.Logger
}

// NewGroupHandlers creates a new group handlers instance.
func NewGroupHandlers(svc *groups.Service, logger *zerolog.Logger) *GroupHandlers {
	return &GroupHandlers{
		groups: svc,
		log:    logger,
	}
}

// CreateGroupRequest represents the create group request body.
type CreateGroupRequest struct {
	Name       string  `json:"name" binding:"required,min=1,max=64"`
	Admin      int64   `json:"admin" binding:"required"`
	Members    []int64 `json:"members"`
	ProfilePic string  `json:"profile_pic"`
}

// AddMemberRequest adds a user to a group.
type AddMemberRequest struct {
	MemberID int64 `json:"member_id" binding:"required"`
}

// UpdateGroupRequest changes a group's name and/or picture.
type UpdateGroupRequest struct {
	Name       *string `json:"name"`
	ProfilePic *string `json:"profile_pic"`
}

// GroupResponse represents a group with its members in API responses.
type GroupResponse struct {
	ID         int64                  `json:"id"`
	Name       string                 `json:"name"`
	Admin      int64                  `json:"admin"`
	ProfilePic string                 `json:"profile_pic"`
	Members    []*store.SenderProfile `json:"members"`
	UpdatedAt  int64                  `json:"updated_at"`
}

func groupToResponse(g *groups.GroupWithMembers) GroupResponse {
	members := g.Members
	if members == nil {
		members = []*store.SenderProfile{}
	}
	return GroupResponse{
		ID:         g.Group.ID,
		Name:       g.Group.Name,
		Admin:      g.Group.AdminID,
		ProfilePic: g.Group.ProfilePic,
		Members:    members,
		UpdatedAt:  g.Group.UpdatedAt.Unix(),
	}
}

// Create handles group creation.
// POST /groups/create
func (h *GroupHandlers) Create(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	group, err := h.groups.Create(c.Request.Context(), req.Name, req.Admin, req.ProfilePic, req.Members)
	if err != nil {
		if errors.Is(err, groups.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "group name is required"})
			return
		}
		h.log.Error().Err(err).Str("name", req.Name).Msg("failed to create group")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("group_id", group.Group.ID).Str("name", group.Group.Name).Msg("group created")
	c.JSON(http.StatusCreated, groupToResponse(group))
}

// ListForUser returns the groups a user belongs to.
// GET /groups/user/:userId
func (h *GroupHandlers) ListForUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	list, err := h.groups.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list groups")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]GroupResponse, 0, len(list))
	for _, g := range list {
		response = append(response, groupToResponse(g))
	}
	c.JSON(http.StatusOK, response)
}

// AddMember adds a user to a group.
// PUT /groups/:id/add-member
func (h *GroupHandlers) AddMember(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	group, err := h.groups.AddMember(c.Request.Context(), groupID, req.MemberID)
	if err != nil {
		switch {
		case errors.Is(err, groups.ErrGroupNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "group not found"})
		case errors.Is(err, groups.ErrMemberNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, groups.ErrAlreadyMember):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already in group"})
		default:
			h.log.Error().Err(err).Int64("group_id", groupID).Msg("failed to add member")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, groupToResponse(group))
}

// Update changes a group's name and/or profile picture.
// PUT /groups/:id/update
func (h *GroupHandlers) Update(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	group, err := h.groups.Update(c.Request.Context(), groupID, req.Name, req.ProfilePic)
	if err != nil {
		switch {
		case errors.Is(err, groups.ErrGroupNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "group not found"})
		case errors.Is(err, groups.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "group name is required"})
		default:
			h.log.Error().Err(err).Int64("group_id", groupID).Msg("failed to update group")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, groupToResponse(group))
}
