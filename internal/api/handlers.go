// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tanxunze/7inet-bot/internal/models"
	"github.com/Tanxunze/7inet-bot/internal/session"
)

// Handlers carries the state the admin endpoints report on.
type Handlers struct {
	store       *session.Store
	botUsername string
	startTime   time.Time
}

func NewHandlers(store *session.Store, botUsername string) *Handlers {
	return &Handlers{
		store:       store,
		botUsername: botUsername,
		startTime:   time.Now(),
	}
}

// HealthHandler is the liveness probe.
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StatusHandler reports uptime and the number of active panel sessions.
func (h *Handlers) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{
		Status:         "ok",
		BotUsername:    h.botUsername,
		ActiveSessions: h.store.Len(),
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
	})
}
