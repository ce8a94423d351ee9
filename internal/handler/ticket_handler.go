package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/model"
	"github.com/clubgreens/live-scoring-service/internal/ticket"
)

// WSConfig holds the WebSocket URL base returned in ticket responses.
type WSConfig struct {
	BaseURL string
}

// AttachURL returns the WebSocket attach URL for a ticket
// (e.g. wss://host/ws/live?ticket=...).
func (c *WSConfig) AttachURL(tok string) string {
	path := "/ws/live?ticket=" + url.QueryEscape(tok)
	if c == nil || c.BaseURL == "" {
		return path
	}
	base := c.BaseURL
	if base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return fmt.Sprintf("%s%s", base, path)
}

// TicketHandler issues short-lived single-use attach tickets.
type TicketHandler struct {
	tickets *ticket.Issuer
	cfg     *WSConfig
}

// NewTicketHandler creates the ticket handler.
func NewTicketHandler(tickets *ticket.Issuer, wsBaseURL string) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		cfg:     &WSConfig{BaseURL: wsBaseURL},
	}
}

// Issue godoc
// POST /live/tickets
func (h *TicketHandler) Issue(c *gin.Context) {
	var req model.IssueTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	kind, ok := broadcast.ParseChannelKind(req.ChannelKind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_kind must be match, account, or game"})
		return
	}
	role, ok := broadcast.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be watcher or scorer"})
		return
	}
	tok, err := h.tickets.Issue(kind, req.ChannelKey, role, req.ActorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue ticket"})
		return
	}
	c.JSON(http.StatusCreated, model.IssueTicketResponse{
		Ticket:    tok,
		WSURL:     h.cfg.AttachURL(tok),
		ExpiresIn: int(h.tickets.TTL().Seconds()),
	})
}
