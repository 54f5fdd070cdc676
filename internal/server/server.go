// Package server assembles the dashboard HTTP server: middleware chain,
// API routes, health and metrics endpoints, and the static pages.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"leadlms/internal/admins"
	"leadlms/internal/apikey"
	"leadlms/internal/config"
	"leadlms/internal/database"
	"leadlms/internal/leads"
	"leadlms/internal/session"
	"leadlms/internal/storage"
)

// Deps are the long-lived components the routes are built from.
type Deps struct {
	Config   *config.Config
	DB       database.Service
	Storage  storage.Service // nil when S3 is not configured
	Sessions session.Manager
	Leads    *leads.Service
	Admins   admins.Store
	Logger   *slog.Logger
}

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg      *config.Config
	db       database.Service
	storage  storage.Service
	sessions session.Manager
	leads    *leads.Service
	admins   admins.Store
	apiKeys  *apikey.Gate
	cookie   session.Cookie
	logger   *slog.Logger
}

// New creates a Server from deps.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      deps.Config,
		db:       deps.DB,
		storage:  deps.Storage,
		sessions: deps.Sessions,
		leads:    deps.Leads,
		admins:   deps.Admins,
		apiKeys:  apikey.NewGate(deps.Config.APIKey),
		cookie: session.Cookie{
			Name:   deps.Config.Session.CookieName,
			Secure: deps.Config.Session.Secure,
		},
		logger: logger,
	}
}

// HTTPServer configures the listener around the route tree.
func (s *Server) HTTPServer() (*http.Server, error) {
	handler, err := s.RegisterRoutes()
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("HTTP server configured", "port", s.cfg.Port)
	return server, nil
}
