package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/store"
)

// MessageHandlers serves the chat history endpoints.
type MessageHandlers struct {
	store        store.MessageStore
	historyLimit int
	log          *zerolog.Logger
}

// NewMessageHandlers creates message history handlers.
func NewMessageHandlers(st store.MessageStore, historyLimit int, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store:        st,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// MessageResponse is one persisted message in a history response.
type MessageResponse struct {
	ID          int64           `json:"id"`
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver,omitempty"`
	Message     string          `json:"message"`
	MessageType string          `json:"messageType"`
	FileData    json.RawMessage `json:"fileData,omitempty"`
	Timestamp   string          `json:"timestamp"`
	Date        string          `json:"date"`
}

// ConversationResponse summarizes one private thread.
type ConversationResponse struct {
	Username    string `json:"username"`
	LastMessage string `json:"lastMessage"`
	LastType    string `json:"lastType"`
	LastIsOwn   bool   `json:"lastIsOwn"`
	LastAt      string `json:"lastAt"`
}

// GlobalHistory handles GET /api/messages/global.
func (h *MessageHandlers) GlobalHistory(c *gin.Context) {
	messages, err := h.store.ListGlobalMessages(c.Request.Context(), h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("list global messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, messageResponses(messages))
}

// PrivateHistory handles GET /api/messages/private/:username.
func (h *MessageHandlers) PrivateHistory(c *gin.Context) {
	self := usernameFromContext(c)
	other := c.Param("username")
	if other == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username is required"})
		return
	}

	messages, err := h.store.ListPrivateMessages(c.Request.Context(), self, other)
	if err != nil {
		h.log.Error().Err(err).Str("with", other).Msg("list private messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, messageResponses(messages))
}

// Conversations handles GET /api/conversations.
func (h *MessageHandlers) Conversations(c *gin.Context) {
	self := usernameFromContext(c)

	conversations, err := h.store.ListConversations(c.Request.Context(), self)
	if err != nil {
		h.log.Error().Err(err).Msg("list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load conversations"})
		return
	}

	out := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		out = append(out, ConversationResponse{
			Username:    conv.Username,
			LastMessage: conv.LastBody,
			LastType:    conv.LastType,
			LastIsOwn:   conv.LastIsOwn,
			LastAt:      conv.LastAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func messageResponses(messages []*store.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, MessageResponse{
			ID:          msg.ID,
			Sender:      msg.Sender,
			Receiver:    msg.Receiver,
			Message:     msg.Body,
			MessageType: msg.MessageType,
			FileData:    json.RawMessage(msg.FileData),
			Timestamp:   msg.DisplayTime,
			Date:        msg.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
