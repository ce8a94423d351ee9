package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubgreens/live-scoring-service/internal/model"
	"github.com/clubgreens/live-scoring-service/internal/service"
)

// RoundHandler handles the REST API for individual live rounds.
type RoundHandler struct {
	svc service.RoundSessionManager
}

// NewRoundHandler creates the round session handler.
func NewRoundHandler(svc service.RoundSessionManager) *RoundHandler {
	return &RoundHandler{svc: svc}
}

// Start godoc
// POST /live/rounds/:account_id/start
func (h *RoundHandler) Start(c *gin.Context) {
	accountID := c.Param("account_id")
	var req model.StartRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	snap, err := h.svc.Start(c.Request.Context(), accountID, req.ActorID, service.RoundParams{
		CourseID:     req.CourseID,
		TeeID:        req.TeeID,
		StartingHole: req.StartingHole,
		HolesPlayed:  req.HolesPlayed,
		DateRecorded: req.DateRecorded,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// SubmitScore godoc
// POST /live/rounds/:account_id/scores
func (h *RoundHandler) SubmitScore(c *gin.Context) {
	accountID := c.Param("account_id")
	var req model.SubmitRoundScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	entry, err := h.svc.SubmitScore(c.Request.Context(), accountID, req.ActorID, req.Hole, req.Strokes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Advance godoc
// POST /live/rounds/:account_id/advance
func (h *RoundHandler) Advance(c *gin.Context) {
	accountID := c.Param("account_id")
	var req model.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := h.svc.Advance(c.Request.Context(), accountID, req.ActorID, req.Unit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_hole": req.Unit})
}

// Pause godoc
// POST /live/rounds/:account_id/pause
func (h *RoundHandler) Pause(c *gin.Context) {
	h.transition(c, h.svc.Pause, model.SessionStatusPaused)
}

// Resume godoc
// POST /live/rounds/:account_id/resume
func (h *RoundHandler) Resume(c *gin.Context) {
	h.transition(c, h.svc.Resume, model.SessionStatusActive)
}

// Finalize godoc
// POST /live/rounds/:account_id/finalize
func (h *RoundHandler) Finalize(c *gin.Context) {
	h.transition(c, h.svc.Finalize, model.SessionStatusFinalized)
}

// Stop godoc
// POST /live/rounds/:account_id/stop
func (h *RoundHandler) Stop(c *gin.Context) {
	h.transition(c, h.svc.Stop, model.SessionStatusStopped)
}

func (h *RoundHandler) transition(c *gin.Context, op func(ctx context.Context, accountID, actorID string) error, status model.SessionStatus) {
	accountID := c.Param("account_id")
	var req model.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := op(c.Request.Context(), accountID, req.ActorID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// Status godoc
// GET /live/rounds/:account_id/status
func (h *RoundHandler) Status(c *gin.Context) {
	summary, err := h.svc.Status(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// State godoc
// GET /live/rounds/:account_id/state
func (h *RoundHandler) State(c *gin.Context) {
	snap, err := h.svc.State(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if snap == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, snap)
}
