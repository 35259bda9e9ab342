// Package health serves the liveness page hosting platforms poll.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Body is returned for every request that is not /metrics.
const Body = "Bot Discord en ligne !"

type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer builds the router; metrics adds GET /metrics.
func NewServer(port int, metrics bool) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	if metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	router.NoRoute(alive)

	return &Server{
		router: router,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func alive(c *gin.Context) {
	c.String(http.StatusOK, Body)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	slog.Info("liveness server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
