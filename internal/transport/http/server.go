// Package http exposes the server over HTTP: the websocket endpoint agents
// connect to, a read-only JSON API for the presentation layer, and the
// health and metrics endpoints.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/argostroloji/mircbook/internal/config"
	"github.com/argostroloji/mircbook/internal/core"
	"github.com/argostroloji/mircbook/internal/metrics"
)

// NewServer builds the HTTP server with all routes attached.
func NewServer(hub *core.Hub, registry *core.Registry, channels *core.Table, cfg config.Config, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	api := NewAPIHandlers(registry, channels, logger)
	router.GET("/api/channels", api.ListChannels)
	router.GET("/api/agents", api.ListAgents)

	ws := NewWSHandler(hub, cfg.EventBufferSize, logger)
	router.GET("/ws", gin.WrapH(ws))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
