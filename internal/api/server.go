// Package api provides the companion web API over the same synchronized
// dataset the bot uses. Public endpoints serve read-only views; the admin
// group exposes full CRUD behind basic auth.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"goal-challenge-bot/internal/config"
	"goal-challenge-bot/internal/service"
)

// Server wires the gin router over the game service.
type Server struct {
	game   *service.GameService
	cfg    *config.Config
	tokens *TokenIssuer
}

// NewServer creates a Server.
func NewServer(game *service.GameService, cfg *config.Config) *Server {
	return &Server{
		game:   game,
		cfg:    cfg,
		tokens: NewTokenIssuer(cfg.API.JWTSecret),
	}
}

// Handler builds the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/", s.handleRoot)

	pub := router.Group("/api")
	pub.GET("/participants", s.handleParticipants)
	pub.GET("/participants/:user_id", s.handleParticipant)
	pub.GET("/reports", s.handleReports)
	pub.GET("/stats/:user_id", s.handleUserStats)
	pub.GET("/current-day", s.handleCurrentDay)
	pub.GET("/community/stats", s.handleCommunityStats)
	pub.POST("/auth/generate-token", s.handleGenerateToken)
	pub.GET("/auth/verify-token", s.handleVerifyToken)

	admin := router.Group("/api/admin", gin.BasicAuth(gin.Accounts{
		s.cfg.Admin.Username: s.cfg.Admin.Password,
	}))
	admin.GET("/settings", s.handleGetSettings)
	admin.PUT("/settings", s.handleUpdateSettings)
	admin.POST("/participants", s.handleCreateParticipant)
	admin.PUT("/participants/:user_id", s.handleUpdateParticipant)
	admin.DELETE("/participants/:user_id", s.handleDeleteParticipant)
	admin.POST("/reports", s.handleCreateReport)
	admin.PUT("/reports/:user_id/:day", s.handleUpdateReport)
	admin.DELETE("/reports/:user_id/:day", s.handleDeleteReport)
	admin.POST("/game-day", s.handleSetGameDay)
	admin.POST("/refresh", s.handleRefresh)
	admin.GET("/export", s.handleExport)
	admin.POST("/import", s.handleImport)

	return router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": "90-day goal challenge API", "status": "ok"})
}
