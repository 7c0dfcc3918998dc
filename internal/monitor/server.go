// Package monitor serves the live dashboard: it watches the agents state
// directory, publishes typed events on the bus, and pushes them to
// browser and terminal clients over SSE and websocket.
package monitor

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmend3z/forja/internal/bus"
	"github.com/dmend3z/forja/internal/dashboard"
	forjaotel "github.com/dmend3z/forja/internal/otel"
)

//go:embed assets
var assets embed.FS

// Snapshotter produces the full-state event sent to each client on
// connect, so a reconnecting dashboard resynchronizes without an
// explicit resync call.
type Snapshotter func() dashboard.SnapshotEvent

// Config holds the monitor server dependencies.
type Config struct {
	Bus    *bus.Bus
	Logger *slog.Logger

	// Snapshot is invoked once per client connection.
	Snapshot Snapshotter

	// HeartbeatInterval is the liveness event cadence. Defaults to 15s.
	HeartbeatInterval time.Duration

	// Metrics may be nil (no-op instruments are cheap, but tests pass nil).
	Metrics *forjaotel.Metrics
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg Config
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	return &Server{cfg: cfg}
}

// Handler returns the monitor route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/app.js", s.handleAppJS)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := assets.ReadFile("assets/index.html")
	if err != nil {
		http.Error(w, "index.html not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleAppJS(w http.ResponseWriter, _ *http.Request) {
	data, err := assets.ReadFile("assets/app.js")
	if err != nil {
		http.Error(w, "app.js not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"healthy":true,"subscribers":%d}`+"\n", s.cfg.Bus.SubscriberCount())
}

// handleEvents implements GET /api/events: the SSE feed the dashboard
// core consumes. Each client gets a snapshot first, then live bus
// events, with periodic heartbeats so idle streams stay verifiably
// alive.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.StreamClients.Add(r.Context(), 1)
		defer s.cfg.Metrics.StreamClients.Add(context.Background(), -1)
	}

	writeFrame := func(frame []byte) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := s.sendSnapshot(writeFrame); err != nil {
		s.cfg.Logger.Debug("sse: snapshot write failed", "error", err)
		return
	}

	sub := s.cfg.Bus.Subscribe("dashboard.")
	defer s.cfg.Bus.Unsubscribe(sub)

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.cfg.Logger.Debug("sse: client disconnected")
			return

		case <-heartbeat.C:
			frame, err := dashboard.Encode(dashboard.HeartbeatEvent{})
			if err != nil {
				continue
			}
			if err := writeFrame(frame); err != nil {
				return
			}

		case event, ok := <-sub.Ch():
			if !ok {
				return
			}
			frame, err := encodeBusEvent(event)
			if err != nil {
				s.cfg.Logger.Error("sse: encode event", "topic", event.Topic, "error", err)
				continue
			}
			if frame == nil {
				continue
			}
			if err := writeFrame(frame); err != nil {
				s.cfg.Logger.Debug("sse: write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) sendSnapshot(writeFrame func([]byte) error) error {
	var snapshot dashboard.SnapshotEvent
	if s.cfg.Snapshot != nil {
		snapshot = s.cfg.Snapshot()
	}
	frame, err := dashboard.Encode(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFrame(frame)
}

// encodeBusEvent turns a bus event into a wire frame, or nil for
// payloads that are not dashboard events.
func encodeBusEvent(event bus.Event) ([]byte, error) {
	payload, ok := event.Payload.(dashboard.Event)
	if !ok {
		return nil, nil
	}
	return dashboard.Encode(payload)
}

// Serve runs the monitor on 127.0.0.1:<port> until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.cfg.Logger.Info("monitor listening", "addr", srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
