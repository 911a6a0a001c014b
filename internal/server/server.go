// Package server exposes the tag codec, the blob store, the cover
// watermark and the transcoder over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/simonhull/tagedit/internal/blobstore"
	"github.com/simonhull/tagedit/internal/metrics"
	"github.com/simonhull/tagedit/internal/transcode"
)

// Config holds the HTTP-facing settings.
type Config struct {
	AllowedOrigins []string
	MaxUploadSize  int64
	WatermarkText  string
	WatermarkMax   int64 // pixel limit for watermarked covers, 0 for the default
	TitleSuffix    string
	Fill           string
}

// Server wires the HTTP routes to the service components.
type Server struct {
	cfg        Config
	store      *blobstore.Store
	transcoder *transcode.Manager
	metrics    *metrics.Metrics
	logger     *log.Logger
	router     *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithTranscoder enables POST /api/v1/transcode.
func WithTranscoder(m *transcode.Manager) Option {
	return func(s *Server) { s.transcoder = m }
}

// WithMetrics sets the metrics sink. New creates one when omitted.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds the router.
func New(cfg Config, store *blobstore.Store, opts ...Option) *Server {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = blobstore.DefaultMaxSize
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		gin.CustomRecoveryWithWriter(s.logger.WriterLevel(log.ErrorLevel), s.recover),
		s.requestLogger(),
		s.instrument(),
		cors.New(s.corsConfig()),
	)

	router.NoRoute(func(c *gin.Context) {
		s.fail(c, errNotFound("route not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		s.fail(c, &apiError{Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/health", s.health)

		tags := api.Group("/tags")
		{
			tags.POST("/read", s.readTags)
			tags.POST("/write", s.writeTags)
		}

		files := api.Group("/files")
		{
			files.POST("", s.uploadFile)
			files.GET("", s.listFiles)
			files.DELETE("/:id", s.deleteFile)
			files.POST("/delete", s.deleteFileJSON)
		}

		api.POST("/transcode", s.transcode)
	}

	uploads := router.Group("/uploads")
	{
		uploads.GET("/"+string(blobstore.KindAudio)+"/:name", s.serveStored(blobstore.KindAudio))
		uploads.GET("/"+string(blobstore.KindCover)+"/:name", s.serveStored(blobstore.KindCover))
	}

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return router
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	cfg.ExposeHeaders = []string{"Content-Disposition", "Content-Length", headerWarnings, headerFrames}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
