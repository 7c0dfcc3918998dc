package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
)

// SessionConfig configures a dashboard session.
type SessionConfig struct {
	// URL is the monitor SSE endpoint.
	URL string

	// Client optionally overrides the HTTP client used by the stream.
	Client *http.Client

	Logger *slog.Logger
}

// Session owns one dashboard's state: the store, the activity log, and
// the stream feeding them. Sessions are self-contained — construct one,
// run it, discard it; no process-global state is touched, so tests can
// drive a session directly through HandleFrame without a live stream.
type Session struct {
	store    *Store
	activity *ActivityLog
	stream   *Stream
	logger   *slog.Logger

	mu     sync.Mutex
	status Status
}

// NewSession builds a session around an empty store.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		store:    NewStore(),
		activity: NewActivityLog(),
		logger:   logger,
	}
	s.stream = NewStream(StreamConfig{
		URL:      cfg.URL,
		Client:   cfg.Client,
		Logger:   logger,
		OnStatus: s.handleStatus,
		OnFrame:  s.HandleFrame,
	})
	return s
}

// Run consumes the stream until ctx is cancelled. It blocks; callers run
// it in a goroutine. After cancellation no further events are applied.
func (s *Session) Run(ctx context.Context) {
	s.stream.Run(ctx)
}

// HandleFrame decodes and applies one raw frame. Corrupt frames are
// logged and dropped — the store is untouched and no error escapes the
// pipeline. Heartbeats and unknown event kinds apply no state and log no
// activity.
func (s *Session) HandleFrame(data []byte) {
	ev, err := Decode(data)
	if err != nil {
		s.logger.Warn("dropping malformed stream frame", "error", err)
		return
	}
	if ev == nil {
		return
	}
	s.store.Apply(ev)
	if line := summarize(ev); line != "" {
		s.activity.Append(line)
	}
}

func (s *Session) handleStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()

	if st == StatusConnected {
		s.activity.Append("Connected")
		s.logger.Info("monitor stream connected")
	} else {
		s.activity.Append("Reconnecting...")
		s.logger.Info("monitor stream disconnected")
	}
}

// Status reports the current connection state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Store exposes the session's store for projections.
func (s *Session) Store() *Store {
	return s.store
}

// Activity returns the current activity log entries, oldest first.
func (s *Session) Activity() []ActivityEntry {
	return s.activity.Entries()
}
