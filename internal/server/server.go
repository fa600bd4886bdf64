// Package server exposes delve sessions over WebSocket. Every connection
// gets its own Session; text frames carry commands and every reply is a
// JSON object.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/opendelve/internal/archive"
	"github.com/lawnchairsociety/opendelve/internal/config"
	"github.com/lawnchairsociety/opendelve/internal/delve"
	"github.com/lawnchairsociety/opendelve/internal/logger"
)

// Server accepts WebSocket explorers.
type Server struct {
	cfg         *config.Config
	archive     *archive.Archive
	connLimiter *ConnLimiter
	httpServer  *http.Server
	StartTime   time.Time

	mu           sync.Mutex
	clients      map[*WebSocketClient]struct{}
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer creates a server using cfg for sessions, origins and limits.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:         cfg,
		connLimiter: NewConnLimiter(cfg.Connections),
		StartTime:   time.Now(),
		clients:     make(map[*WebSocketClient]struct{}),
		shutdown:    make(chan struct{}),
	}
}

// SetArchive enables level recording for new sessions.
func (s *Server) SetArchive(a *archive.Archive) {
	s.archive = a
}

// Handler returns the HTTP routes: /ws for sessions, /status for counters.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start listens on address until Shutdown is called.
func (s *Server) Start(address string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	logger.Info("WebSocket server listening", "address", address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes the open sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		s.mu.Lock()
		srv := s.httpServer
		clients := make([]*WebSocketClient, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.mu.Unlock()

		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		// Hijacked connections are not tracked by http.Server
		for _, c := range clients {
			c.CloseWithReason("server shutting down")
		}
		logger.Info("Server shut down", "sessions_closed", len(clients))
	})
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, ips := s.connLimiter.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"connections":    total,
		"unique_ips":     ips,
		"uptime_seconds": int(time.Since(s.StartTime).Seconds()),
	})
}

// handleWebSocketUpgrade checks limits and origin, then runs the session.
// ?seed=N picks the dungeon seed; the configured seed is the default.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.shutdown:
		http.Error(w, "Server is shutting down.", http.StatusServiceUnavailable)
		return
	default:
	}

	seed := s.cfg.Seed
	if v := r.URL.Query().Get("seed"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "seed must be an integer", http.StatusBadRequest)
			return
		}
		seed = parsed
	}

	ip := clientIP(r)
	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}
	defer s.connLimiter.Release(ip)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logger.Debug("WebSocket upgrade failed", "error", err)
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	client := NewWebSocketClient(conn)
	s.track(client, true)
	defer func() {
		s.track(client, false)
		client.Close()
	}()

	s.runSession(client, ip, seed)
}

func (s *Server) track(c *WebSocketClient, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.clients[c] = struct{}{}
	} else {
		delete(s.clients, c)
	}
}

// runSession drives one connection until quit, disconnect or error.
func (s *Server) runSession(client *WebSocketClient, ip string, seed int64) {
	sessCfg := delve.SessionConfig{
		Seed:    seed,
		Dungeon: &s.cfg.Dungeon,
		Radius:  &s.cfg.Vision.Radius,
	}
	if s.archive != nil {
		sessCfg.Recorder = s.archive.Recorder(seed)
	}

	session, err := delve.NewSession(sessCfg)
	if err != nil {
		logger.Error("Failed to start session", "client_ip", ip, "seed", seed, "error", err)
		client.WriteJSON(Reply{Error: "could not generate the dungeon"})
		return
	}

	logger.Info("Explorer connected", "client_ip", ip, "remote_addr", client.RemoteAddr(), "seed", seed)
	if err := client.WriteJSON(welcomeReply(session)); err != nil {
		return
	}

	for {
		line, err := client.ReadLine()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket read ended", "client_ip", ip, "error", err)
			}
			break
		}

		reply, quit := handleCommand(session, line)
		if err := client.WriteJSON(reply); err != nil {
			break
		}
		if quit {
			client.CloseWithReason("farewell")
			break
		}
	}

	logger.Info("Explorer disconnected",
		"client_ip", ip,
		"seed", seed,
		"depth", session.Depth(),
		"deepest", session.Deepest())
}
