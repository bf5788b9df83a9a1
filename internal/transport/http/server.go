package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobbychat/internal/auth"
	"github.com/vovakirdan/lobbychat/internal/config"
	"github.com/vovakirdan/lobbychat/internal/core"
)

// NewServer builds the HTTP server: REST endpoints, the WebSocket endpoint
// and CORS in front of both.
func NewServer(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(hub, authService, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler returns the routed handler used by NewServer.
func NewHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, logger)
	chatHandlers := NewChatHandlers(hub, logger)
	authLimiter := newIPRateLimiter(cfg.RateLimitPerMinute)

	api := router.Group("/api")
	api.POST("/register", authLimiter.Middleware(), apiHandlers.Register)
	api.POST("/login", authLimiter.Middleware(), apiHandlers.Login)

	protected := api.Group("", AuthMiddleware(authService, logger))
	protected.GET("/presence", chatHandlers.Presence)
	protected.GET("/history", chatHandlers.History)

	ws := NewWSHandler(hub, authService, WSOptions{
		AllowedOrigins:     cfg.AllowedOrigins,
		MaxMessageBytes:    cfg.MaxMessageBytes,
		SendBuffer:         cfg.SendBuffer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)
	router.GET("/ws", gin.WrapH(ws))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler(router)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
