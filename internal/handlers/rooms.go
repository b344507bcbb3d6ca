package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/callrelay/internal/middleware"
	"github.com/mossy-p/callrelay/internal/models"
	"github.com/mossy-p/callrelay/internal/signaling"
	"github.com/rs/zerolog/log"
)

// BroadcastRequest is the body of POST /api/rooms/:room/events.
type BroadcastRequest struct {
	Event string          `json:"event" binding:"required"`
	Data  json.RawMessage `json:"data"`
}

// BroadcastEvent emits an application event to every connection in a room.
// Call events are reserved for the relay and cannot be injected here.
func BroadcastEvent(hub *signaling.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := c.Param("room")

		var req BroadcastRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if strings.HasPrefix(req.Event, "call:") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "call events cannot be broadcast"})
			return
		}

		msg := models.OutboundMessage{Event: req.Event}
		if len(req.Data) > 0 {
			msg.Data = req.Data
		}
		delivered := hub.Broadcast(room, msg)

		sender := ""
		if p, ok := middleware.Principal(c); ok {
			sender = p.ID.String()
		}
		log.Info().Str("module", "handlers").Str("room", room).Str("event", req.Event).
			Str("sender", sender).Int("delivered", delivered).Msg("room broadcast")

		c.JSON(http.StatusOK, gin.H{"delivered": delivered})
	}
}
