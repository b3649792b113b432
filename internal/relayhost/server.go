package relayhost

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/config"
	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/protocol"
)

// Role names the context a websocket client stands in for.
type Role string

const (
	RoleSidebar Role = "sidebar"
	RoleContent Role = "content"
)

// peer returns the role this role's traffic is forwarded to.
func (r Role) peer() Role {
	if r == RoleSidebar {
		return RoleContent
	}
	return RoleSidebar
}

func (r Role) valid() bool {
	return r == RoleSidebar || r == RoleContent
}

// client is one connected context.
type client struct {
	id      string
	role    Role
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Server pairs sidebar and content websocket clients and forwards envelopes
// between them.
type Server struct {
	cfg     config.RelayHostConfig
	logger  *logging.Logger
	metrics *monitoring.Metrics

	upgrader websocket.Upgrader
	engine   *gin.Engine
	http     *http.Server

	mu      sync.Mutex
	clients map[Role]*client
}

// New creates a relay host.
func New(cfg config.RelayHostConfig, logger *logging.Logger, metrics *monitoring.Metrics) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.Nop()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger.Named("relayhost"),
		metrics: metrics,
		clients: make(map[Role]*client),
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET"},
		MaxAge:       12 * time.Hour,
	}))
	engine.GET("/relay", s.handleConnection)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine = engine

	return s
}

// Handler exposes the router, for tests that mount it on httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Close is called.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}
	s.logger.Info("relay host listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("relay host: %w", err)
	}
	return nil
}

// Close shuts the server down and drops all clients.
func (s *Server) Close() error {
	s.mu.Lock()
	for role, cl := range s.clients {
		cl.conn.Close()
		delete(s.clients, role)
	}
	s.mu.Unlock()

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(ctx)
	}
	return nil
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleConnection upgrades a context connection and pumps its frames to the
// paired role.
func (s *Server) handleConnection(c *gin.Context) {
	role := Role(c.Query("role"))
	if !role.valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be sidebar or content"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.New().String(),
		role: role,
		conn: conn,
	}
	s.register(cl)
	defer s.unregister(cl)

	s.logger.Info("context connected",
		zap.String("role", string(role)),
		zap.String("client_id", cl.id),
	)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug("context disconnected",
				zap.String("role", string(role)),
				zap.Error(err),
			)
			return
		}
		s.forward(cl, data)
	}
}

// forward screens one frame and delivers it to the peer role.
func (s *Server) forward(from *client, data []byte) {
	env, err := protocol.Unmarshal(data)
	if err != nil {
		s.metrics.RelayDropped.Inc()
		return
	}
	// Same screening the in-page relay applies: only marked extension
	// traffic crosses the bridge.
	if env.Source != protocol.SourceExtension && env.Source != protocol.SourceResponse {
		s.metrics.RelayDropped.Inc()
		return
	}

	s.mu.Lock()
	peer := s.clients[from.role.peer()]
	s.mu.Unlock()

	if peer == nil {
		s.metrics.RelayDropped.Inc()
		s.logger.Debug("no peer connected, dropping frame",
			zap.String("from", string(from.role)),
			zap.String("type", env.Type.String()),
		)
		return
	}

	if err := peer.write(data); err != nil {
		s.logger.Warn("forward failed",
			zap.String("to", string(peer.role)),
			zap.Error(err),
		)
		return
	}
	direction := fmt.Sprintf("%s_to_%s", from.role, peer.role)
	s.metrics.RelayFrames.WithLabelValues(direction).Inc()
}

func (s *Server) register(cl *client) {
	s.mu.Lock()
	if old := s.clients[cl.role]; old != nil {
		// A reconnecting context replaces its predecessor.
		old.conn.Close()
	}
	s.clients[cl.role] = cl
	s.mu.Unlock()
	s.metrics.RelayConnections.Inc()
}

func (s *Server) unregister(cl *client) {
	s.mu.Lock()
	if s.clients[cl.role] == cl {
		delete(s.clients, cl.role)
	}
	s.mu.Unlock()
	cl.conn.Close()
	s.metrics.RelayConnections.Dec()
}
