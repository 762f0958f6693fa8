package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/argostroloji/mircbook/internal/core"
)

// APIHandlers serves the read-only JSON API consumed by UIs. All state
// access goes through the registry and channel table snapshots; nothing
// here mutates.
type APIHandlers struct {
	registry *core.Registry
	channels *core.Table
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(registry *core.Registry, channels *core.Table, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		registry: registry,
		channels: channels,
		log:      logger,
	}
}

// ListChannels returns summaries of every channel.
// GET /api/channels
func (h *APIHandlers) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.channels.ListAll()})
}

// ListAgents returns summaries of every registered identity.
// GET /api/agents
func (h *APIHandlers) ListAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": h.registry.ListAll()})
}
