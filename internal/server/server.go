// Package server exposes a session's streams over WebSocket so networked
// peers can compare their local replays against the authority.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/threadlink/internal/sessionid"
	"github.com/lox/threadlink/rng"
)

// DefaultMaxDraws caps the draws served per request
const DefaultMaxDraws = 4096

// Server represents the WebSocket draw server
type Server struct {
	addr        string
	session     *rng.Session
	root        *rng.Root
	registry    *rng.Registry
	sessionID   string
	maxDraws    int
	clock       quartz.Clock
	upgrader    websocket.Upgrader
	httpServer  *http.Server
	connections map[*Connection]bool
	draws       atomic.Uint64
	logger      *log.Logger
	mu          sync.RWMutex
}

// Option configures a Server
type Option func(*Server)

// WithMaxDraws caps the number of draws a single request may ask for
func WithMaxDraws(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxDraws = n
		}
	}
}

// WithClock sets the clock used to stamp the session ID
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// NewServer creates a new draw server for a booted session
func NewServer(addr string, session *rng.Session, root *rng.Root, registry *rng.Registry, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		session:  session,
		root:     root,
		registry: registry,
		maxDraws: DefaultMaxDraws,
		clock:    quartz.NewReal(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sessionID = sessionid.NewGenerator(s.clock, nil).Generate()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SessionID identifies this server run in health responses and logs
func (s *Server) SessionID() string {
	return s.sessionID
}

// Handler returns the HTTP handler serving /ws and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting draw server", "addr", s.addr, "session", s.sessionID, "seed", s.session.Seed())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes every connection and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// ConnectionCount returns the number of open WebSocket connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) track(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) untrack(conn *Connection) {
	s.mu.Lock()
	_, ok := s.connections[conn]
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	if ok {
		s.logger.Info("Client disconnected", "total", total)
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(ws, s.logger, s.Draw)
	s.track(conn)
	conn.Start()

	go func() {
		<-conn.Done()
		s.untrack(conn)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:      "ok",
		Session:     s.sessionID,
		Connections: s.ConnectionCount(),
		Draws:       s.draws.Load(),
	}) // Ignore write errors for health check
}

// Draw answers a single request. Bad requests produce an error response.
func (s *Server) Draw(req DrawRequest) DrawResponse {
	resp := DrawResponse{ID: req.ID, Domain: req.Domain, Counter: req.Counter}

	if err := s.draw(req, &resp); err != nil {
		s.logger.Debug("Rejected draw request", "id", req.ID, "op", req.Op, "error", err)
		return DrawResponse{ID: req.ID, Domain: req.Domain, Counter: req.Counter, Error: err.Error()}
	}
	return resp
}

func (s *Server) draw(req DrawRequest, resp *DrawResponse) error {
	count := req.Count
	switch {
	case count < 0:
		return fmt.Errorf("count %d: %w", count, rng.ErrInvalidCount)
	case count == 0:
		count = 1
	case count > s.maxDraws:
		count = s.maxDraws
	}

	if req.Op == OpKey {
		v, err := s.key(req.Context)
		if err != nil {
			return err
		}
		resp.Values = []uint64{uint64(v)}
		s.draws.Add(1)
		return nil
	}

	domain, err := s.registry.Lookup(req.Domain)
	if err != nil {
		return err
	}

	stream := s.session.SourceFrom(domain, rng.Of(req.Context...))
	stream.Seek(req.Counter)

	switch req.Op {
	case OpNext:
		resp.Values = make([]uint64, count)
		for i := range resp.Values {
			resp.Values[i] = stream.Next()
		}
	case OpRange:
		if req.Max <= req.Min {
			return fmt.Errorf("range [%d, %d): %w", req.Min, req.Max, rng.ErrInvalidRange)
		}
		resp.Ints = make([]int, count)
		for i := range resp.Ints {
			resp.Ints[i] = stream.Range(req.Min, req.Max)
		}
	case OpIndex:
		if req.Max <= 0 {
			return fmt.Errorf("index bound %d: %w", req.Max, rng.ErrInvalidCount)
		}
		resp.Ints = make([]int, count)
		for i := range resp.Ints {
			resp.Ints[i] = stream.Index(req.Max)
		}
	case OpBool:
		resp.Bools = make([]bool, count)
		for i := range resp.Bools {
			resp.Bools[i] = stream.Boolean()
		}
	case OpFloat:
		resp.Floats = make([]float64, count)
		for i := range resp.Floats {
			resp.Floats[i] = stream.Float01()
		}
	default:
		return fmt.Errorf("unknown op %q", req.Op)
	}

	resp.Counter = stream.Counter()
	s.draws.Add(uint64(count))
	return nil
}

func (s *Server) key(components []uint64) (uint32, error) {
	if len(components) == 0 || len(components) > 4 {
		return 0, fmt.Errorf("key needs 1 to 4 components, got %d", len(components))
	}

	var k [4]uint32
	for i, c := range components {
		if c > 0xffffffff {
			return 0, fmt.Errorf("key component %d overflows 32 bits", i)
		}
		k[i] = uint32(c)
	}
	return s.root.UInt(rng.Key{A: k[0], B: k[1], C: k[2], D: k[3]}), nil
}
