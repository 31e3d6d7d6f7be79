// Package dashboard relays motor snapshots to browser WebSocket clients.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type message struct {
	Type string           `json:"type"`
	Data *domain.Snapshot `json:"data"`
}

type Server struct {
	mux       *http.ServeMux
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan message

	latestMu sync.RWMutex
	latest   *domain.Snapshot
}

func New() *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan message, 256),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/latest", s.handleLatest)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run delivers queued updates to clients until ctx is done, then closes
// every connection.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.clientsMu.Lock()
			for conn := range s.clients {
				conn.Close()
				delete(s.clients, conn)
			}
			s.clientsMu.Unlock()
			return
		case msg := <-s.broadcast:
			s.send(msg)
		}
	}
}

// Update records snap as the latest snapshot and queues it for every
// client. When the queue is full the update is only recorded.
func (s *Server) Update(snap domain.Snapshot) {
	s.latestMu.Lock()
	s.latest = &snap
	s.latestMu.Unlock()

	select {
	case s.broadcast <- message{Type: "update", Data: &snap}:
	default:
		log.Warn().Uint64("sequence", snap.Sequence).Msg("dashboard queue full; update skipped")
	}
}

// Clients reports the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Server) send(msg message) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("dropping websocket client")
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) snapshot() *domain.Snapshot {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The init message goes out before registration so only the broadcast
	// loop ever writes to a registered connection.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(message{Type: "init", Data: s.snapshot()}); err != nil {
		conn.Close()
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "waiting"
	if s.snapshot() != nil {
		status = "online"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": status, "clients": s.Clients()})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		http.Error(w, "no snapshot received yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
