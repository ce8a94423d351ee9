package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubgreens/live-scoring-service/internal/handler"
	"github.com/clubgreens/live-scoring-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	rounds *handler.RoundHandler,
	games *handler.GameHandler,
	tickets *handler.TicketHandler,
	liveWS *handler.LiveWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)
	r.GET(constants.PathMetrics, gin.WrapH(promhttp.Handler()))

	// REST: individual live rounds (entity = account)
	roundGroup := r.Group("/live/rounds/:account_id")
	{
		roundGroup.POST("/start", rounds.Start)
		roundGroup.POST("/scores", rounds.SubmitScore)
		roundGroup.POST("/advance", rounds.Advance)
		roundGroup.POST("/pause", rounds.Pause)
		roundGroup.POST("/resume", rounds.Resume)
		roundGroup.POST("/finalize", rounds.Finalize)
		roundGroup.POST("/stop", rounds.Stop)
		roundGroup.GET("/status", rounds.Status)
		roundGroup.GET("/state", rounds.State)
	}

	// REST: live team games (entity = scheduled game)
	gameGroup := r.Group("/live/games/:game_id")
	{
		gameGroup.POST("/start", games.Start)
		gameGroup.POST("/scores", games.SubmitScore)
		gameGroup.POST("/advance", games.Advance)
		gameGroup.POST("/finalize", games.Finalize)
		gameGroup.POST("/stop", games.Stop)
		gameGroup.GET("/status", games.Status)
		gameGroup.GET("/state", games.State)
	}

	// Attach tickets + WebSocket attach
	r.POST("/live/tickets", tickets.Issue)
	r.GET(constants.PathAttach, liveWS.ServeWS)

	return r
}
