// Package server exposes the LINE callback and the status endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/line"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/metrics"
)

const (
	defaultPort            = 5001
	defaultShutdownTimeout = 10 * time.Second

	statusText = "職涯助手 LINE Bot 正在運行中！ 🚀"
)

type Config struct {
	Port            int           `mapstructure:"port"`
	Metrics         bool          `mapstructure:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

// Callback handles a signed webhook request.
type Callback interface {
	Handle(ctx context.Context, req *http.Request) error
}

type Server struct {
	cfg     Config
	engine  *gin.Engine
	version string
	logger  *zap.Logger
}

// New builds the router. m may be nil when metrics are disabled.
func New(cfg Config, callback Callback, m *metrics.Metrics, version string, log *zap.Logger) *Server {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:     cfg,
		version: version,
		logger:  logger.WithComponent(log, "server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(s.logger))
	if cfg.Metrics && m != nil {
		engine.Use(m.Middleware())
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	engine.GET("/", s.status)
	engine.GET("/health", s.health)
	engine.POST("/callback", s.callback(callback))

	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) status(c *gin.Context) {
	c.String(http.StatusOK, statusText)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) callback(cb Callback) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := cb.Handle(c.Request.Context(), c.Request)
		switch {
		case errors.Is(err, line.ErrInvalidSignature):
			s.logger.Warn("rejected callback", zap.String("reason", "invalid signature"))
			c.String(http.StatusBadRequest, "invalid signature")
		case err != nil:
			s.logger.Warn("rejected callback", zap.Error(err))
			c.String(http.StatusBadRequest, "bad request")
		default:
			c.String(http.StatusOK, "OK")
		}
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
