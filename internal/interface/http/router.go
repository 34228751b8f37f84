package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/health-voice/internal/domain/auth"
	"github.com/yanqian/health-voice/internal/infra/config"
	"github.com/yanqian/health-voice/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service, collector *metrics.Collector, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.CORS.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Healthz)
	router.GET("/metrics", gin.WrapH(collector.Handler()))
	router.GET("/audio/*key", handler.GetAudio)

	api := router.Group("/")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, logger), authMiddleware(authSvc))
	{
		api.POST("/process-health-query", handler.ProcessHealthQuery)
		api.POST("/process-voice-query", handler.ProcessVoiceQuery)
		api.GET("/query-history", requireAuthMiddleware(authSvc), handler.QueryHistory)
		api.GET("/vitals/analysis", handler.VitalsAnalysis)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
