package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubgreens/live-scoring-service/internal/model"
	"github.com/clubgreens/live-scoring-service/internal/service"
)

// GameHandler handles the REST API for live team games.
type GameHandler struct {
	svc service.GameSessionManager
}

// NewGameHandler creates the game session handler.
func NewGameHandler(svc service.GameSessionManager) *GameHandler {
	return &GameHandler{svc: svc}
}

// Start godoc
// POST /live/games/:game_id/start
func (h *GameHandler) Start(c *gin.Context) {
	gameID := c.Param("game_id")
	var req model.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	snap, err := h.svc.Start(c.Request.Context(), gameID, req.ActorID, service.GameParams{
		Innings:      req.Innings,
		DateRecorded: req.DateRecorded,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// SubmitScore godoc
// POST /live/games/:game_id/scores
func (h *GameHandler) SubmitScore(c *gin.Context) {
	gameID := c.Param("game_id")
	var req model.SubmitGameScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	entry, err := h.svc.SubmitScore(c.Request.Context(), gameID, req.ActorID, req.Inning, req.Side, req.Runs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Advance godoc
// POST /live/games/:game_id/advance
func (h *GameHandler) Advance(c *gin.Context) {
	gameID := c.Param("game_id")
	var req model.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := h.svc.Advance(c.Request.Context(), gameID, req.ActorID, req.Unit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_inning": req.Unit})
}

// Finalize godoc
// POST /live/games/:game_id/finalize
func (h *GameHandler) Finalize(c *gin.Context) {
	h.transition(c, h.svc.Finalize, model.SessionStatusFinalized)
}

// Stop godoc
// POST /live/games/:game_id/stop
func (h *GameHandler) Stop(c *gin.Context) {
	h.transition(c, h.svc.Stop, model.SessionStatusStopped)
}

func (h *GameHandler) transition(c *gin.Context, op func(ctx context.Context, gameID, actorID string) error, status model.SessionStatus) {
	gameID := c.Param("game_id")
	var req model.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := op(c.Request.Context(), gameID, req.ActorID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// Status godoc
// GET /live/games/:game_id/status
func (h *GameHandler) Status(c *gin.Context) {
	summary, err := h.svc.Status(c.Request.Context(), c.Param("game_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// State godoc
// GET /live/games/:game_id/state
func (h *GameHandler) State(c *gin.Context) {
	snap, err := h.svc.State(c.Request.Context(), c.Param("game_id"))
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
