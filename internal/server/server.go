package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/verity/config"
	"github.com/mohammad-safakhou/verity/internal/cache"
	"github.com/mohammad-safakhou/verity/internal/telemetry"
	"github.com/mohammad-safakhou/verity/internal/verify"
)

// Verifier is the pipeline surface the HTTP layer depends on.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) (*verify.Response, error)
}

// Server hosts the verification API.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *log.Logger
}

// New builds the echo server with routes, middleware and the unified
// JSON error envelope wired in.
func New(cfg *config.Config, pipeline Verifier, reg *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		var cerr *verify.ConfigurationError
		if errors.As(err, &cerr) {
			code = http.StatusServiceUnavailable
			msg = cerr.Error()
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, errorEnvelope(code, msg))
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	h := &VerifyHandler{Pipeline: pipeline}
	h.Register(e.Group("/api"))

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}
}

// Run assembles the full production stack and serves until the context
// is cancelled. The cache falls back to in-memory when Redis is not
// configured or unreachable.
func Run(ctx context.Context, cfg *config.Config, addr string) error {
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Storage.Redis.Host != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.Storage.Redis)
		if err != nil {
			log.Printf("[SERVER] redis unavailable, using in-memory cache: %v", err)
		} else {
			store = rs
			defer rs.Close()
		}
	}

	var (
		reg  *prometheus.Registry
		tele *telemetry.Telemetry
	)
	if cfg.Telemetry.Enabled {
		reg = prometheus.NewRegistry()
		tele = telemetry.New(reg)
	}

	pipeline := verify.NewPipeline(cfg, store, tele)
	srv := New(cfg, pipeline, reg)
	if addr == "" {
		addr = cfg.Server.Address
	}
	return srv.Start(ctx, addr)
}

// Start serves on addr and shuts down gracefully when ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func errorEnvelope(code int, msg string) map[string]any {
	return map[string]any{
		"success":   false,
		"error":     http.StatusText(code),
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}
