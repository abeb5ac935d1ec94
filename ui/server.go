// Package ui serves the interactive analysis front-end: file uploads,
// session endpoints, plot exports, and the HTML report.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"goord/internal"
	"goord/internal/config"
	"goord/internal/pipeline"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*
var embeddedFiles embed.FS

// Server represents the web server for the ordination UI
type Server struct {
	router    *gin.Engine
	pipeline  *pipeline.Pipeline
	templates *template.Template
	cfg       *config.Config
	logger    *internal.Logger
}

// NewServer creates a new web server instance
func NewServer(cfg *config.Config, pl *pipeline.Pipeline) (*Server, error) {
	gin.SetMode(cfg.Server.GinMode)

	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.Default()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes

	s := &Server{
		router:    router,
		pipeline:  pl,
		templates: templates,
		cfg:       cfg,
		logger:    internal.DefaultLogger,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.SetHTMLTemplate(s.templates)

	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions/:id", s.handleGetSession)
		api.DELETE("/sessions/:id", s.handleDeleteSession)
		api.GET("/sessions/:id/variables", s.handleVariables)
		api.GET("/sessions/:id/ordination", s.handleOrdination)
		api.POST("/sessions/:id/tests", s.handleRunTest)
		api.GET("/sessions/:id/plot", s.handlePlot)
		api.GET("/sessions/:id/report", s.handleReport)
	}
}

// Run starts the HTTP server on the configured port
func (s *Server) Run() error {
	addr := ":" + s.cfg.Server.Port
	s.logger.Info("ui server listening on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"MaxUploadBytes":      s.cfg.Upload.MaxBytes,
		"DefaultPermutations": s.cfg.Analysis.DefaultPermutations,
		"DefaultSeed":         s.cfg.Analysis.DefaultSeed,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// templateHTML marks already-rendered markup safe for templates
func templateHTML(b []byte) template.HTML {
	return template.HTML(b)
}
