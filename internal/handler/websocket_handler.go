package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/ticket"
)

// LiveWSHandler upgrades attach requests to WebSocket. A request is only
// accepted with a valid single-use ticket; the registry owns the connection
// from Attach onwards.
type LiveWSHandler struct {
	registry *broadcast.Registry
	tickets  *ticket.Issuer
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewLiveWSHandler creates the WebSocket attach handler.
func NewLiveWSHandler(registry *broadcast.Registry, tickets *ticket.Issuer, readBuf, writeBuf int, logger *zap.Logger) *LiveWSHandler {
	return &LiveWSHandler{
		registry: registry,
		tickets:  tickets,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
		logger: logger,
	}
}

// ServeWS handles GET /ws/live?ticket=...
func (h *LiveWSHandler) ServeWS(c *gin.Context) {
	tok := c.Query("ticket")
	if tok == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket required"})
		return
	}
	grant, err := h.tickets.Consume(tok)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ticket"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := h.registry.Attach(grant.ChannelKind, grant.ChannelKey, grant.ActorID, grant.Role, conn)
	h.readPump(connID, conn)
}

// readPump drains inbound frames until the client goes away. Clients never
// send data on this stream; the read loop only detects disconnects.
func (h *LiveWSHandler) readPump(connID string, conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", zap.String("connection_id", connID), zap.Error(err))
			}
			break
		}
	}
	h.registry.Detach(connID)
}
