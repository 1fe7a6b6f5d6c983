// Package web serves the browser front end: an upload page and a
// transcription endpoint for callers bringing their own API key. Those
// calls do not touch the shared credential pool or the quota ledger.
package web

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/repositories"
)

// Server hosts the web UI over echo.
type Server struct {
	echo         *echo.Echo
	backend      repositories.SpeechBackend
	maxUpload    int64
	downloadsDir string
	logger       *zap.Logger
}

// TranscribeResponse is the JSON body for a successful transcription.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// ErrorResponse is the JSON body for a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates the web server. maxUpload is the upload cap in
// bytes.
func NewServer(backend repositories.SpeechBackend, maxUpload int64, downloadsDir string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:         e,
		backend:      backend,
		maxUpload:    maxUpload,
		downloadsDir: downloadsDir,
		logger:       logger,
	}

	e.GET("/", s.index)
	e.POST("/transcribe", s.transcribe)
	e.GET("/health", s.health)
	return s
}

// Start serves on the given port until Shutdown.
func (s *Server) Start(port string) error {
	return s.echo.Start(":" + port)
}

// Echo exposes the underlying echo instance for shutdown wiring.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "speechbot",
	})
}

func (s *Server) index(c echo.Context) error {
	html := strings.ReplaceAll(indexHTML, "{{max_mb}}", fmt.Sprintf("%d", s.maxUpload>>20))
	html = strings.ReplaceAll(html, "{{max_bytes}}", fmt.Sprintf("%d", s.maxUpload))
	return c.HTML(http.StatusOK, html)
}

func (s *Server) transcribe(c echo.Context) error {
	key := strings.TrimSpace(c.FormValue("key"))
	if !isAPIKey(key) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid Gemini key format"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file"})
	}
	if fileHeader.Size > s.maxUpload {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("File exceeds %dMB", s.maxUpload>>20),
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read upload"})
	}
	defer src.Close()

	path := filepath.Join(s.downloadsDir, "web-"+uuid.NewString())
	dst, err := os.Create(path)
	if err != nil {
		s.logger.Error("Failed to create upload file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove upload file", zap.String("path", path), zap.Error(err))
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
	dst.Close()

	text, err := s.backend.UploadAndTranscribe(c.Request().Context(), key, path)
	if err != nil {
		s.logger.Warn("Web transcription failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Transcription failed"})
	}
	return c.JSON(http.StatusOK, TranscribeResponse{Text: text})
}

// isAPIKey does a shape check only; the backend is the authority.
func isAPIKey(key string) bool {
	return strings.HasPrefix(key, "AIza")
}
