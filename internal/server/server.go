// Package server exposes a Session over HTTP so processes that cannot link
// the Go API can publish batches.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/plotwire/internal/auth"
	"github.com/danmuck/plotwire/internal/config"
	"github.com/danmuck/plotwire/internal/observability"
	"github.com/danmuck/plotwire/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Sender is the part of a Session the server drives.
type Sender interface {
	Push(cmds string)
	Raw(block string)
	Discard()
	Send(items ...session.Item) error
}

// Server serializes HTTP batches onto one Sender.
type Server struct {
	mu      sync.Mutex
	sender  Sender
	cfg     config.ServerConfig
	logger  zerolog.Logger
	router  *gin.Engine
	started time.Time
}

func New(sender Sender, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		sender:  sender,
		cfg:     cfg,
		logger:  logger,
		router:  gin.New(),
		started: time.Now(),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(observability.RequestID())
	s.router.Use(observability.RequestLogger(logger))
	s.router.Use(observability.RequestMetricsMiddleware(cfg.Node))
	if len(cfg.CorsOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", observability.RequestIDHeader},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	if s.cfg.Token != "" {
		v1.Use(requireToken(auth.StaticToken{Token: s.cfg.Token}))
	}
	v1.POST("/batch", s.handleBatch)
}

func requireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.CheckHeader(v, c.GetHeader("Authorization")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	observability.RegisterMetrics()
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http ingest listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.started).String(),
		"service": "plotwire",
		"node":    s.cfg.Node,
	})
}
