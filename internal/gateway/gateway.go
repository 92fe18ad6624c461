// Package gateway exposes the backend to browser clients over HTTP and
// websockets.
package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Gateway serves the HTTP API.
type Gateway struct {
	svc      *backend.Service
	logger   *zap.Logger
	engine   *gin.Engine
	srv      *http.Server
	origins  []string
	upgrader websocket.Upgrader
}

// New builds the gateway and its routes. addr may be empty when only
// Handler is used. Browsers may open websockets from the gateway's own host
// or from one of allowedOrigins.
func New(svc *backend.Service, addr string, allowedOrigins []string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	g := &Gateway{svc: svc, logger: logger, engine: gin.New(), origins: allowedOrigins}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	g.engine.Use(gin.Recovery(), g.requestLogger())
	g.routes()
	g.srv = &http.Server{
		Addr:              addr,
		Handler:           g.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

func (g *Gateway) routes() {
	g.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.engine.Group("/api/v1")
	v1.GET("/conversations", g.listConversations)
	v1.GET("/messages", g.listThread)
	v1.POST("/messages", g.insertMessage)
	v1.GET("/profiles", g.resolveProfiles)

	g.engine.GET("/realtime/v1/websocket", g.serveWebsocket)
}

// Handler returns the HTTP handler, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start() error {
	lis, err := net.Listen("tcp", g.srv.Addr)
	if err != nil {
		return err
	}
	g.logger.Info("HTTP gateway starting", zap.String("addr", lis.Addr().String()))
	go func() {
		if err := g.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("HTTP gateway error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	g.logger.Info("HTTP gateway stopping")
	return g.srv.Shutdown(ctx)
}

func (g *Gateway) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		g.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
