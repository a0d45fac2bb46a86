// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the agent over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, text string) (*types.Reply, error)
}

// NameResolver resolves species identifiers.
type NameResolver interface {
	Resolve(ctx context.Context, identifier string) (types.NameResolutionRecord, error)
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query" binding:"required,max=2000"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	asker    Asker
	resolver NameResolver
	logger   *slog.Logger
}

// NewRouter returns the HTTP routes:
//
//	POST /v1/ask            answer a question
//	GET  /v1/resolve/*name  resolve a species name or LSID
//	GET  /healthz           liveness
//	GET  /metrics           prometheus metrics
func NewRouter(a Asker, r NameResolver, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{asker: a, resolver: r, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/ask", h.ask)
	v1.GET("/resolve/*name", h.resolve)
	return router
}

func (h *handlers) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be {\"query\": \"...\"}"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is empty"})
		return
	}

	reply, err := h.asker.Ask(c.Request.Context(), req.Query)
	if err != nil {
		h.logger.Warn("ask aborted", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *handlers) resolve(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing species name"})
		return
	}

	rec, err := h.resolver.Resolve(c.Request.Context(), name)
	switch {
	case errors.Is(err, failure.ErrNoMatch):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no taxon matches " + name})
	case err != nil:
		h.logger.Warn("resolve failed", "name", name, "error", err)
		status := http.StatusBadGateway
		if failure.Is(err, failure.KindTimeout) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, ErrorResponse{Error: failure.UserMessage(err)})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
