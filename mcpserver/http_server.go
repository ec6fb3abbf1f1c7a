// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// HTTPHandler returns the router used in sse mode. The SSE endpoint accepts
// both the event stream GET and the session message POSTs.
func (s *AtlassianMCPServer) HTTPHandler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(securityHeadersMiddleware)

	getServer := func(*http.Request) *mcp.Server {
		return s.mcpServer
	}

	sseHandler := gin.WrapH(mcp.NewSSEHandler(getServer, nil))
	router.GET("/sse", sseHandler)
	router.POST("/sse", sseHandler)

	streamableHandler := gin.WrapH(mcp.NewStreamableHTTPHandler(getServer, nil))
	router.Any("/mcp", streamableHandler)

	router.GET("/healthz", s.handleHealthz)

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{})))
	}

	return router
}

// serveSSE listens on addr until ctx is cancelled, then drains open
// connections.
func (s *AtlassianMCPServer) serveSSE(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting sse mcp server", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("sse server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down sse mcp server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown did not complete", "error", err.Error())
		return httpServer.Close()
	}
	return nil
}

func (s *AtlassianMCPServer) handleHealthz(c *gin.Context) {
	products := make([]string, 0, len(s.config.Available()))
	for _, p := range s.config.Available() {
		products = append(products, string(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   s.version,
		"products":  products,
		"read_only": s.config.ReadOnly(),
	})
}

// requestIDMiddleware propagates the caller's request id or assigns one.
func (s *AtlassianMCPServer) requestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set("request_id", requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

// loggingMiddleware logs each request and records its duration.
func (s *AtlassianMCPServer) loggingMiddleware(c *gin.Context) {
	start := time.Now()

	s.logger.Debug("HTTP request received",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetString("request_id"),
	)

	c.Next()

	handler := c.FullPath()
	if handler == "" {
		handler = "unmatched"
	}
	status := c.Writer.Status()

	s.logger.Debug("HTTP request completed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"request_id", c.GetString("request_id"),
	)

	if s.metrics != nil {
		s.metrics.ObserveHTTPRequest(handler, c.Request.Method, strconv.Itoa(status), time.Since(start).Seconds())
	}
}

func securityHeadersMiddleware(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Next()
}
