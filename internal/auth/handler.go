package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"leadlms/internal/metrics"
	"leadlms/internal/session"

	"github.com/gin-gonic/gin"
)

// Handler handles authentication-related HTTP requests
type Handler struct {
	service Service
	cookie  session.Cookie
	logger  *slog.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service Service, cookie session.Cookie, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		cookie:  cookie,
		logger:  logger,
	}
}

// Register mounts login, logout and session under g (normally /api/auth).
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/session", h.Session)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			metrics.AccessDenied.WithLabelValues("bad_password").Inc()
			h.logger.Warn("Rejected admin login", "client_ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}
		h.logger.Error("Failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	h.cookie.Set(c, sess)
	h.logger.Info("Admin logged in", "session_id", sess.ID, "expires_at", sess.ExpiresAt)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when
// the stored session could not be deleted.
func (h *Handler) Logout(c *gin.Context) {
	err := h.service.Logout(c.Request.Context(), h.cookie.Token(c))
	h.cookie.Clear(c)
	if err != nil {
		h.logger.Error("Failed to delete session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Session handles GET /api/auth/session
func (h *Handler) Session(c *gin.Context) {
	sess, err := h.service.Current(c.Request.Context(), h.cookie.Token(c))
	if err != nil {
		h.logger.Error("Failed to look up session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check session"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusOK, SessionResponse{})
		return
	}

	expiresAt := sess.ExpiresAt.UTC()
	c.JSON(http.StatusOK, SessionResponse{Authenticated: true, ExpiresAt: &expiresAt})
}
