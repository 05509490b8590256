// Package server exposes the HTTP API: the latest digest, digest
// history, health endpoints and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	db "github.com/marketbrief/marketbrief/internal/storage"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxListLimit      = 100
	defaultListLimit  = 20
)

// DigestStore is the persistence surface the API reads from.
type DigestStore interface {
	GetLatestDigest(ctx context.Context) (*db.StoredDigest, error)
	ListDigests(ctx context.Context, limit int) ([]db.StoredDigest, error)
}

// DigestCache is the optional read-through cache in front of the store.
type DigestCache interface {
	GetLatest(ctx context.Context) (*db.StoredDigest, error)
}

// Pinger reports database liveness for the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	store  DigestStore
	cache  DigestCache
	pinger Pinger
	port   int
	logger *zerolog.Logger
}

func New(store DigestStore, cache DigestCache, pinger Pinger, port int, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Server{store: store, cache: cache, pinger: pinger, port: port, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/digest/latest", s.handleLatest)
		api.GET("/digests", s.handleList)
	}

	return router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("API server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

func (s *Server) handleReady(c *gin.Context) {
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "DB error: %v", err)

			return
		}
	}

	c.String(http.StatusOK, "OK")
}

func (s *Server) handleLatest(c *gin.Context) {
	ctx := c.Request.Context()

	if s.cache != nil {
		if digest, err := s.cache.GetLatest(ctx); err == nil {
			c.JSON(http.StatusOK, digest)

			return
		}
	}

	digest, err := s.store.GetLatestDigest(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNoDigest) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no digest available yet"})

			return
		}

		s.logger.Error().Err(err).Msg("failed to load latest digest")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	c.JSON(http.StatusOK, digest)
}

func (s *Server) handleList(c *gin.Context) {
	limit := defaultListLimit

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})

			return
		}

		limit = parsed
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	digests, err := s.store.ListDigests(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list digests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	if digests == nil {
		digests = []db.StoredDigest{}
	}

	c.JSON(http.StatusOK, gin.H{"digests": digests, "count": len(digests)})
}
