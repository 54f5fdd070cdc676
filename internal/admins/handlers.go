package admins

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the admin roster
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new admins handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the roster endpoints on a session-protected group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/admins", h.List)
	g.POST("/admins", h.Create)
	g.GET("/admins/:id", h.Get)
	g.PATCH("/admins/:id", h.Update)
	g.DELETE("/admins/:id", h.Delete)
}

// List handles GET /api/dashboard/admins
func (h *Handler) List(c *gin.Context) {
	admins, err := h.store.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

// Get handles GET /api/dashboard/admins/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	admin, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// Create handles POST /api/dashboard/admins
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data format", "details": err.Error()})
		return
	}

	admin, err := h.store.Create(c.Request.Context(), strings.TrimSpace(req.FullName), strings.TrimSpace(req.Email))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Admin created", "admin_id", admin.ID)
	c.JSON(http.StatusCreated, admin)
}

// Update handles PATCH /api/dashboard/admins/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data format", "details": err.Error()})
		return
	}

	admin, err := h.store.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// Delete handles DELETE /api/dashboard/admins/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Admin deleted", "admin_id", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func adminID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid admin ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAdminNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
	case errors.Is(err, ErrAdminEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "An admin with this email already exists"})
	default:
		h.logger.Error("Admin request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
