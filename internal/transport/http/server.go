package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/auth"
	"github.com/beamchat/server/internal/config"
	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/store"
)

// NewServer builds the HTTP server: REST API plus the websocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, logger)
	messages := NewMessageHandlers(st, cfg.HistoryLimit, logger)
	users := NewUserHandlers(st, hub, logger)
	notifications := NewNotificationHandlers(st, hub, cfg.AdminUsername, logger)
	files := NewFileHandlers(cfg.DataDir, logger)
	ws := NewWSHandler(hub, authService, cfg.MessageRateLimit, logger)

	r.GET("/health", healthHandler)
	r.POST("/api/register", api.Register)
	r.POST("/api/login", api.Login)
	r.GET("/ws", gin.WrapH(ws))

	authed := r.Group("/api", AuthMiddleware(authService, logger))
	{
		authed.GET("/messages/global", messages.GlobalHistory)
		authed.GET("/messages/private/:username", messages.PrivateHistory)
		authed.GET("/conversations", messages.Conversations)
		authed.GET("/users/search", users.SearchUsers)
		authed.GET("/users/all", users.ListUsers)
		authed.GET("/notifications", notifications.List)
		authed.POST("/admin/send-notification", notifications.Send)
		authed.POST("/upload", files.Upload)
		authed.POST("/upload-voice", files.UploadVoice)
		authed.GET("/media/:id", files.Serve)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
