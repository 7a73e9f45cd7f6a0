// Package server exposes the quoting pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"renovation-quoter/models"
	"renovation-quoter/services"
	"renovation-quoter/storage"
	"renovation-quoter/utils"
)

const shutdownTimeout = 10 * time.Second

// QuoteService assembles quotes from transcripts.
type QuoteService interface {
	Assemble(ctx context.Context, transcript string) *models.Quote
}

// Config holds HTTP server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server provides the HTTP API.
type Server struct {
	echo   *echo.Echo
	quotes QuoteService
	prices services.PriceTable
	sink   storage.QuoteWriter
	logger *utils.Logger
	config Config
}

// New creates a server. sink may be nil, in which case quotes are only
// returned to the caller.
func New(quotes QuoteService, prices services.PriceTable, sink storage.QuoteWriter, logger *utils.Logger, cfg Config) (*Server, error) {
	if quotes == nil {
		return nil, errors.New("server: quote service cannot be nil")
	}
	if prices == nil {
		return nil, errors.New("server: price table cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("server: logger is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger.Zap()))
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler))
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:   e,
		quotes: quotes,
		prices: prices,
		sink:   sink,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/quotes", s.handleQuote)
	v1.GET("/tasks", s.handleTasks)
}

// QuoteRequest is the request body for POST /api/v1/quotes.
type QuoteRequest struct {
	Transcript string `json:"transcript"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleQuote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("[server] Invalid quote request: %v", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := services.ValidateTranscript(req.Transcript); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	quote := s.quotes.Assemble(c.Request().Context(), req.Transcript)

	if s.sink != nil {
		if err := s.sink.Write(quote); err != nil {
			s.logger.Warn("[server] Failed to persist quote: %v", err)
		}
	}
	return c.JSON(http.StatusOK, quote)
}

func (s *Server) handleTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, services.DescribeTasks(s.prices))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[server] Listening on %s", s.config.Addr)
		if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("[server] Shutting down")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
