// Package api serves a read-only view of the pet over HTTP and a websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moorebrett0/tidepet/internal/pet"
	"github.com/moorebrett0/tidepet/internal/store"
)

// SnapshotSource is satisfied by *sim.Loop.
type SnapshotSource interface {
	Snapshot() pet.Snapshot
}

// Frame is one websocket message.
type Frame struct {
	Type  string             `json:"type"` // "snapshot" or "event"
	Pet   *pet.Snapshot      `json:"pet,omitempty"`
	Event *store.EventRecord `json:"event,omitempty"`
}

const (
	writeWait      = 5 * time.Second
	readWait       = 60 * time.Second
	pingEvery      = readWait / 2
	clientBuffer   = 16
	defaultEvents  = 20
	maxEventsLimit = 200
)

type Server struct {
	source SnapshotSource
	events store.EventLog // nil when the store keeps no history
	push   time.Duration
	log    *slog.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]chan []byte
}

// NewServer builds a server. events may be nil.
func NewServer(source SnapshotSource, events store.EventLog, push time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		source: source,
		events: events,
		push:   push,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local dashboard
		},
		clients: make(map[uint64]chan []byte),
	}
}

// Handler routes /api/status, /api/events and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	s.log.Info("api: listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func (s *Server) handleStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, s.source.Snapshot())
}

func (s *Server) handleEvents(rw http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(rw, http.StatusNotFound, map[string]string{"error": "event history needs the sqlite store"})
		return
	}
	limit := defaultEvents
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxEventsLimit)
	}
	recs, err := s.events.RecentEvents(r.Context(), limit)
	if err != nil {
		s.log.Error("api: recent events failed", "err", err)
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "could not read events"})
		return
	}
	writeJSON(rw, http.StatusOK, recs)
}

// PublishEvent fans an engine event out to every websocket client. It never
// blocks: a client whose buffer is full misses the frame. Safe to use as a
// sim.EventHandler.
func (s *Server) PublishEvent(e pet.Event, snap pet.Snapshot) {
	stage, _ := e.Stage.MarshalText()
	b, err := json.Marshal(Frame{Type: "event", Event: &store.EventRecord{
		Kind:   e.Kind.String(),
		Stage:  string(stage),
		At:     e.At,
		PetAge: snap.AgeMinutes,
	}})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- b:
		default:
		}
	}
}

func (s *Server) addClient() (uint64, chan []byte) {
	id := s.nextID.Add(1)
	ch := make(chan []byte, clientBuffer)
	s.mu.Lock()
	s.clients[id] = ch
	s.mu.Unlock()
	return id, ch
}

func (s *Server) removeClient(id uint64) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

func (s *Server) snapshotFrame() ([]byte, error) {
	snap := s.source.Snapshot()
	return json.Marshal(Frame{Type: "snapshot", Pet: &snap})
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, events := s.addClient()
	defer s.removeClient(id)
	s.log.Debug("api: websocket client connected", "id", id, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Writer goroutine: a snapshot right away, then every push interval,
	// plus events as they happen.
	writeErr := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(s.push)
		defer ticker.Stop()
		ping := time.NewTicker(pingEvery)
		defer ping.Stop()

		write := func(b []byte) error {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.TextMessage, b)
		}
		send := func() error {
			b, err := s.snapshotFrame()
			if err != nil {
				return err
			}
			return write(b)
		}

		if err := send(); err != nil {
			writeErr <- err
			return
		}
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case <-ticker.C:
				if err := send(); err != nil {
					writeErr <- err
					return
				}
			case b := <-events:
				if err := write(b); err != nil {
					writeErr <- err
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	// Reader loop: the stream is read-only, so incoming messages are only
	// drained to notice the client going away.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	// Best-effort wait for the writer to stop so it doesn't outlive conn.
	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
	s.log.Debug("api: websocket client left", "id", id)
}
