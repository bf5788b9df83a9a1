package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/proto"
)

// ChatHandlers serves read-only views of presence and history.
type ChatHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(hub *core.Hub, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{hub: hub, log: logger}
}

// Presence returns every registered user with their online state.
// GET /api/presence
func (h *ChatHandlers) Presence(c *gin.Context) {
	list := h.hub.Presence(c.Request.Context())
	c.JSON(http.StatusOK, proto.EventPresenceData{Users: presenceToProto(list)})
}

// History returns the caller's conversation with a user or the Lobby.
// GET /api/history?with=bob
func (h *ChatHandlers) History(c *gin.Context) {
	username := c.GetString(ContextKeyUsername)
	if username == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	with := c.Query("with")
	msgs, err := h.hub.History(c.Request.Context(), username, with)
	if err != nil {
		if errors.Is(err, core.ErrBadRequest) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "with is required"})
			return
		}
		h.log.Error().Err(err).Str("user", username).Str("recipient", with).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, proto.EventHistoryData{Messages: messagesToProto(msgs)})
}
