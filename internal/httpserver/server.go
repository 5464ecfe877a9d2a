package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avfleet/avfleet/internal/analytics"
	"github.com/avfleet/avfleet/internal/intake"
	"github.com/avfleet/avfleet/internal/push"
)

// Pinger is the liveness contract the health endpoint checks.
type Pinger interface {
	Ping() error
}

// Options configures the HTTP API server.
type Options struct {
	Addr string

	// APIKey gates every endpoint except /health when non-empty.
	APIKey string

	// ThreatRequestsPerHour caps GET /threats per caller. Zero disables
	// the limiter.
	ThreatRequestsPerHour int
}

// Server exposes the ingestion and analytics API over HTTP.
type Server struct {
	addr      string
	apiKey    string
	intake    *intake.Service
	engine    *analytics.Engine
	db        Pinger
	hub       *push.Hub // nil when push is disabled
	limiter   *callerLimiter
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates an HTTP API server over the given intake service and
// aggregation engine. hub may be nil to disable the WebSocket endpoint.
func NewServer(opts Options, svc *intake.Service, engine *analytics.Engine, db Pinger, hub *push.Hub) *Server {
	addr := opts.Addr
	if addr == "" {
		addr = "0.0.0.0:3001"
	}
	var limiter *callerLimiter
	if opts.ThreatRequestsPerHour > 0 {
		limiter = newCallerLimiter(opts.ThreatRequestsPerHour, time.Hour)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		apiKey:  opts.APIKey,
		intake:  svc,
		engine:  engine,
		db:      db,
		hub:     hub,
		limiter: limiter,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handler builds the routing table. Exposed separately from Start so tests
// can drive it through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.corsMiddleware())

	// The dashboard frontend calls /api/*; agents historically post to the
	// bare paths. Both route to the same handlers.
	for _, prefix := range []string{"", "/api"} {
		g := r.Group(prefix)
		g.GET("/health", s.handleHealth)

		auth := g.Group("", s.authMiddleware())
		auth.POST("/logs", s.handleIngest)
		auth.GET("/logs", s.handleQueryLogs)
		auth.GET("/dashboard", s.handleDashboard)
		auth.GET("/threats", s.rateLimitMiddleware(), s.handleThreats)
		auth.GET("/clients", s.handleClients)
		if s.hub != nil {
			auth.GET("/ws", gin.WrapF(s.hub.Handle))
		}
	}

	return r
}

// Start binds the listen socket. Serve must be called afterwards to accept
// requests; binding separately lets startup errors surface before the serve
// loop is handed to the caller's lifecycle group.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.startTime = time.Now()
	return nil
}

// Serve accepts requests on the bound listener and blocks until Stop.
func (s *Server) Serve() error {
	if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
