package handlers

import (
	"net/http"

	"github.com/bookery/backend/internal/advisor"
	"github.com/bookery/backend/internal/auth"
	"github.com/bookery/backend/internal/cache"
	"github.com/bookery/backend/internal/database"
	"github.com/bookery/backend/internal/recommend"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService auth.ServiceInterface
	engine      *recommend.Service
	bridge      *advisor.Bridge
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.ServiceInterface, engine *recommend.Service) *Handlers {
	return &Handlers{
		authService: authService,
		engine:      engine,
	}
}

// SetAdvisorBridge wires the advisor bridge for health reporting
func (h *Handlers) SetAdvisorBridge(bridge *advisor.Bridge) {
	h.bridge = bridge
}

// Health reports service health including database and cache connectivity
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	if err := database.Health(); err != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	redisStatus := "not_configured"
	if redisClient := cache.GetRedisClient(); redisClient != nil {
		redisStatus = "ok"
		if err := redisClient.Ping(c.Request.Context()); err != nil {
			redisStatus = "unavailable"
		}
	}

	advisorStatus := "not_configured"
	if h.bridge != nil {
		advisorStatus = h.bridge.State()
	}

	c.JSON(status, gin.H{
		"status":   dbStatus,
		"database": dbStatus,
		"redis":    redisStatus,
		"advisor":  advisorStatus,
	})
}
