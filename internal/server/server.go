// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivlev/companyfacts/internal/ingest"
	"github.com/ivlev/companyfacts/internal/model"
	"github.com/ivlev/companyfacts/internal/pipeline"
)

// Server wraps the pipeline behind the HTTP API.
type Server struct {
	pipeline  *pipeline.Pipeline
	engine    *gin.Engine
	port      string
	maxUpload int64
}

// New builds the server and mounts its routes.
func New(cfg *model.Config, p *pipeline.Pipeline) *Server {
	s := &Server{
		pipeline:  p,
		port:      cfg.Server.Port,
		maxUpload: cfg.Server.MaxUploadBytes,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	if cfg.Server.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	engine.GET("/healthz", s.healthHandler)
	engine.POST("/extract", s.extractHandler)
	engine.GET("/download", s.downloadHandler)

	s.engine = engine
	return s
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	log.Printf("[server] listening on port %s", s.port)
	return s.engine.Run(":" + s.port)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// extractHandler accepts multipart form-data with an optional `file`
// (.txt, .md, .pdf, .html) and an optional `essay_text` field; the file
// wins when both are present. On success it responds with
// {"data": [...]} in aggregation order and rewrites the output CSV.
func (s *Server) extractHandler(c *gin.Context) {
	text, err := s.requestText(c)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No input content provided."})
		case errors.Is(err, model.ErrUnsupportedDocument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	records, err := s.pipeline.Run(c.Request.Context(), text)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No input content provided."})
			return
		}
		log.Printf("[server] extraction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed"})
		return
	}

	// Empty data is a successful "no results" state, not an error;
	// the UI renders it distinctly.
	if records == nil {
		records = []model.CompanyRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// requestText resolves the request body to plain text.
func (s *Server) requestText(c *gin.Context) (string, error) {
	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil && fileHeader.Filename != "" {
		if s.maxUpload > 0 && fileHeader.Size > s.maxUpload {
			return "", errors.New("file too large")
		}

		f, err := fileHeader.Open()
		if err != nil {
			return "", model.ErrUnsupportedDocument
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", model.ErrUnsupportedDocument
		}

		content, err := ingest.ReadDocument(fileHeader.Filename, data)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(content) == "" {
			return "", model.ErrInvalidInput
		}
		return content, nil
	}

	text := strings.TrimSpace(c.PostForm("essay_text"))
	if text == "" {
		return "", model.ErrInvalidInput
	}
	return text, nil
}

// downloadHandler serves the last written CSV as an attachment.
func (s *Server) downloadHandler(c *gin.Context) {
	path := s.pipeline.CSVPath()
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "CSV not found. Run extraction first."})
		return
	}
	c.FileAttachment(path, "company_info.csv")
}
