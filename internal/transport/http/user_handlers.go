package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/store"
)

// UserHandlers provides HTTP handlers for profiles, search and contacts.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	ProfilePic *string `json:"profile_pic"`
}

// AddContactRequest links a contact to a user.
type AddContactRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	ContactID int64 `json:"contact_id" binding:"required"`
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// ListUsers returns every user except the one in the path.
// GET /auth/users/:id
func (h *UserHandlers) ListUsers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	users, err := h.store.ListUsers(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userToResponse(u))
	}
	c.JSON(http.StatusOK, response)
}

// GetProfile returns one user's profile.
// GET /auth/profile/:id
func (h *UserHandlers) GetProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", id).Msg("failed to get profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// UpdateProfile applies a partial profile update.
// PUT /auth/update/:id
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.store.UpdateProfile(c.Request.Context(), id, store.ProfileUpdate{
		Name:       req.Name,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", id).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully", "user": userToResponse(user)})
}

// SearchUsers finds users by username substring.
// GET /auth/search?username=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	query := c.Query("username")
	if query == "" {
		c.JSON(http.StatusOK, []store.SenderProfile{})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]store.SenderProfile, 0, len(users))
	for _, u := range users {
		response = append(response, store.SenderProfile{
			ID:         u.ID,
			Username:   u.Username,
			Name:       u.Name,
			ProfilePic: u.ProfilePic,
		})
	}
	c.JSON(http.StatusOK, response)
}

// AddContact links a contact to a user's contact list.
// POST /auth/add-contact
func (h *UserHandlers) AddContact(c *gin.Context) {
	var req AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.AddContact(c.Request.Context(), req.UserID, req.ContactID); err != nil {
		if errors.Is(err, store.ErrContactExists) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user already in contacts"})
			return
		}
		h.log.Error().Err(err).Msg("failed to add contact")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	contact, err := h.store.GetSenderProfile(c.Request.Context(), req.ContactID)
	if err != nil {
		h.log.Error().Err(err).Int64("contact_id", req.ContactID).Msg("failed to load contact")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "contact added", "contact": contact})
}

// ListContacts returns a user's contact list.
// GET /auth/contacts/:id
func (h *UserHandlers) ListContacts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	contacts, err := h.store.ListContacts(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("failed to list contacts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if contacts == nil {
		contacts = []*store.SenderProfile{}
	}
	c.JSON(http.StatusOK, contacts)
}
