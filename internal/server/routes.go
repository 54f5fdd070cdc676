package server

import (
	"net/http"

	"leadlms/internal/admins"
	"leadlms/internal/auth"
	"leadlms/internal/gateway"
	"leadlms/internal/leads"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes builds the router. Every request passes the access gate
// before routing, including requests that end in the static fallback.
func (s *Server) RegisterRoutes() (http.Handler, error) {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gateway.RequestIDMiddleware())
	r.Use(gateway.LoggingMiddleware(s.logger))
	r.Use(gateway.CORSMiddleware(s.cfg.AllowedOrigins))
	r.Use(gateway.AccessMiddleware(gateway.DefaultPolicy(), s.sessions, s.cookie, s.apiKeys, s.logger))

	r.GET("/health", s.healthHandler)
	if s.cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	} else {
		// /metrics is public, so it must not fall through to the pages.
		r.Any("/metrics", notFound)
	}

	api := r.Group("/api")

	authService := auth.NewService(s.cfg.AdminPassword, s.sessions)
	auth.NewHandler(authService, s.cookie, s.logger).Register(api.Group("/auth"))
	auth.NewCronHandler(s.cfg.CronSecret, s.sessions, s.logger).Register(api.Group("/cron"))

	leadHandler := leads.NewHandler(s.leads, s.logger)
	leadHandler.RegisterIngestion(api)

	dashboard := api.Group("/dashboard")
	leadHandler.RegisterDashboard(dashboard)
	admins.NewHandler(s.admins, s.logger).Register(dashboard)

	static, err := newStaticHandler(s.cfg.StaticDir)
	if err != nil {
		return nil, err
	}
	r.NoRoute(func(c *gin.Context) {
		if gateway.IsAPIPath(c.Request.URL.Path) || static == nil {
			notFound(c)
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		static.ServeHTTP(c.Writer, c.Request)
	})

	return r, nil
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (s *Server) healthHandler(c *gin.Context) {
	response := make(map[string]any)
	healthy := true

	db := s.db.Health()
	response["database"] = db
	if db["status"] != "up" {
		healthy = false
	}

	if s.storage != nil {
		storageHealth := make(map[string]string)
		if err := s.storage.Health(c.Request.Context()); err != nil {
			storageHealth["status"] = "down"
			storageHealth["error"] = err.Error()
			healthy = false
		} else {
			storageHealth["status"] = "up"
		}
		response["storage"] = storageHealth
	}

	if !healthy {
		response["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response["status"] = "ok"
	c.JSON(http.StatusOK, response)
}
