package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/store"
)

// UserHandlers serves the user directory endpoints. Presence flags come
// from the hub snapshot, not from storage.
type UserHandlers struct {
	store store.UserStore
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewUserHandlers creates user directory handlers.
func NewUserHandlers(st store.UserStore, hub *core.Hub, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// UserResponse is one directory entry.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	IsOnline  bool   `json:"isOnline"`
	CreatedAt string `json:"createdAt"`
}

// SearchUsers handles GET /api/users/search?query=.
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if len(query) < 2 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query must be at least 2 characters"})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "search failed"})
		return
	}

	c.JSON(http.StatusOK, h.userResponses(c, users))
}

// ListUsers handles GET /api/users/all.
func (h *UserHandlers) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load users"})
		return
	}

	c.JSON(http.StatusOK, h.userResponses(c, users))
}

// userResponses maps users to directory entries, excluding the caller
// and marking who currently has a live connection.
func (h *UserHandlers) userResponses(c *gin.Context, users []*store.User) []UserResponse {
	self := usernameFromContext(c)

	online := map[string]struct{}{}
	if identities, err := h.hub.OnlineUsers(c.Request.Context()); err == nil {
		for _, identity := range identities {
			online[identity] = struct{}{}
		}
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		if user.Username == self {
			continue
		}
		_, isOnline := online[user.Username]
		out = append(out, UserResponse{
			ID:        user.ID,
			Username:  user.Username,
			IsOnline:  isOnline,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
