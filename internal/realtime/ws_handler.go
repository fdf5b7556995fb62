package realtime

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"residence/internal/pkg/jwt"
	"residence/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChannelLister supplies the chat channels a resident should be
// auto-subscribed to on connect. Implemented by the chat repository.
type ChannelLister interface {
	ChannelIDsByResident(ctx context.Context, residentID int64) ([]int64, error)
}

// WSHandler upgrades HTTP connections and hands them to the hub.
type WSHandler struct {
	hub      *Hub
	jwt      *jwt.Service
	channels ChannelLister
	log      *zap.Logger
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service, channels ChannelLister, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		jwt:      jwtService,
		channels: channels,
		log:      log,
	}
}

// HandleWebSocket serves GET /ws?token=JWT. Browsers cannot set headers
// on WebSocket handshakes, so the token travels as a query parameter.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		return
	}

	var initial []int64
	if h.channels != nil {
		initial, err = h.channels.ChannelIDsByResident(c.Request.Context(), claims.ResidentID)
		if err != nil {
			h.log.Warn("failed to load channel subscriptions", zap.Error(err))
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.log.Info("resident connected", zap.Int64("resident_id", claims.ResidentID))
	h.hub.ServeWS(conn, claims.ResidentID, initial)
	h.log.Info("resident disconnected", zap.Int64("resident_id", claims.ResidentID))
}
