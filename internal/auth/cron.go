package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"leadlms/internal/session"

	"github.com/gin-gonic/gin"
)

// CronHandler serves scheduler-triggered maintenance jobs.
type CronHandler struct {
	secret   string
	sessions session.Manager
	logger   *slog.Logger
	now      func() time.Time
}

// NewCronHandler authenticates callers with "Authorization: Bearer <secret>".
func NewCronHandler(secret string, sessions session.Manager, logger *slog.Logger) *CronHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronHandler{
		secret:   secret,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Register mounts the jobs under g (normally /api/cron).
func (h *CronHandler) Register(g *gin.RouterGroup) {
	g.GET("/cleanup-sessions", h.CleanupSessions)
}

// CleanupSessions handles GET /api/cron/cleanup-sessions
func (h *CronHandler) CleanupSessions(c *gin.Context) {
	if !h.authorized(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deleted, err := h.sessions.SweepExpired(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to cleanup expired sessions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cleanup sessions"})
		return
	}

	h.logger.Info("Expired sessions cleaned up", "deleted", deleted)
	c.JSON(http.StatusOK, CleanupResponse{
		Success:   true,
		Message:   "Expired sessions cleaned up successfully",
		Deleted:   deleted,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *CronHandler) authorized(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return secretsEqual(token, h.secret)
}
