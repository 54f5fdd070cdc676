package leads

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for leads
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new leads handler
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterIngestion mounts the machine ingestion endpoints. The API key is
// enforced by the access gate in front of them.
func (h *Handler) RegisterIngestion(api *gin.RouterGroup) {
	api.POST("/leads/new", h.CreateSimple)
	api.POST("/lead/new", h.CreateLegacy)
}

// RegisterDashboard mounts the session-protected lead endpoints.
func (h *Handler) RegisterDashboard(g *gin.RouterGroup) {
	g.GET("/leads", h.List)
	g.GET("/leads/export", h.Export)
	g.GET("/leads/:id", h.Get)
	g.PATCH("/leads/:id", h.Update)
	g.DELETE("/leads/:id", h.Delete)
	g.GET("/stats", h.Stats)
}

// CreateSimple handles POST /api/leads/new
func (h *Handler) CreateSimple(c *gin.Context) {
	var req SimpleLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, VariantSimple, err)
		return
	}

	lead, err := h.service.IngestSimple(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{Success: true, Lead: lead})
}

// CreateLegacy handles POST /api/lead/new
func (h *Handler) CreateLegacy(c *gin.Context) {
	var req LegacyLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, VariantLegacy, err)
		return
	}

	lead, err := h.service.IngestLegacy(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{Success: true, Lead: lead})
}

// List handles GET /api/dashboard/leads
func (h *Handler) List(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	leads, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// Get handles GET /api/dashboard/leads/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	lead, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lead)
}

// Update handles PATCH /api/dashboard/leads/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid data format", Details: err.Error()})
		return
	}

	lead, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lead)
}

// Delete handles DELETE /api/dashboard/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats handles GET /api/dashboard/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Export handles GET /api/dashboard/leads/export
func (h *Handler) Export(c *gin.Context) {
	if !h.service.ExportEnabled() {
		h.writeError(c, ErrExportUnavailable)
		return
	}

	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.service.Export(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func filterFromQuery(c *gin.Context) (Filter, error) {
	f := Filter{
		Label:    Label(c.Query("label")),
		Progress: Progress(c.Query("progress")),
		Search:   c.Query("search"),
	}
	if s := c.Query("start_date"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return Filter{}, ErrInvalidDateFilter
		}
		f.StartDate = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := parseEndDate(s)
		if err != nil {
			return Filter{}, ErrInvalidDateFilter
		}
		f.EndDate = &t
	}
	return f, nil
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid lead ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bindError(c *gin.Context, variant Variant, err error) {
	rejectBinding(variant)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid data format", Details: err.Error()})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid customer_base_range format"})
	case errors.Is(err, ErrInvalidSubmissionDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid submission_date format"})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrDuplicateLead):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Lead with this threadId already exists"})
	case errors.Is(err, ErrLeadNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Lead not found"})
	case errors.Is(err, ErrExportUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Lead export is not configured"})
	default:
		h.logger.Error("Lead request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
