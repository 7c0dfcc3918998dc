package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Status is the observable connection state of the event stream.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "disconnected"
}

const defaultRetryDelay = 2 * time.Second

// maxFrameSize bounds a single SSE frame. Snapshot events carry full
// state and can be large.
const maxFrameSize = 4 << 20

// StreamConfig configures a Stream.
type StreamConfig struct {
	// URL is the SSE endpoint, e.g. http://127.0.0.1:3030/api/events.
	URL string

	// Client is the HTTP client to use; http.DefaultClient if nil. The
	// client must not set a timeout that would cut the long-lived body.
	Client *http.Client

	Logger *slog.Logger

	// OnStatus is invoked on every connection state transition.
	OnStatus func(Status)

	// OnFrame is invoked with the data payload of each complete SSE
	// event, one at a time, in arrival order. Processing runs to
	// completion before the next frame is read.
	OnFrame func([]byte)

	// RetryDelay is the pause before re-opening a dropped connection.
	// Defaults to 2s.
	RetryDelay time.Duration
}

// Stream owns the transport-level connection to the monitor event
// source. It keeps exactly one live connection, re-opening it after any
// transport failure until the context is cancelled. This mirrors the
// browser EventSource contract the web dashboard gets for free: the
// transport retries, the consumer just sees status transitions.
type Stream struct {
	cfg StreamConfig
}

// NewStream returns a stream for the given config.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Stream{cfg: cfg}
}

// Run connects and consumes the stream until ctx is cancelled. It blocks;
// callers run it in a goroutine. Transport failures are not returned:
// they surface as status transitions and a reconnect.
func (s *Stream) Run(ctx context.Context) {
	connected := false
	setStatus := func(st Status) {
		isUp := st == StatusConnected
		if isUp == connected {
			return
		}
		connected = isUp
		if s.cfg.OnStatus != nil {
			s.cfg.OnStatus(st)
		}
	}

	for {
		err := s.consume(ctx, setStatus)
		setStatus(StatusDisconnected)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.cfg.Logger.Debug("stream dropped, reconnecting", "url", s.cfg.URL, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RetryDelay):
		}
	}
}

// consume opens one connection and reads frames until it fails or the
// context ends.
func (s *Stream) consume(ctx context.Context, setStatus func(Status)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}
	setStatus(StatusConnected)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)

	var data bytes.Buffer
	for scanner.Scan() {
		// Servers may end lines with CRLF; the protocol treats \r\n and
		// \n alike, so a trailing \r is not payload.
		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case line == "":
			// Blank line terminates the event.
			if data.Len() > 0 {
				frame := make([]byte, data.Len())
				copy(frame, data.Bytes())
				data.Reset()
				if s.cfg.OnFrame != nil {
					s.cfg.OnFrame(frame)
				}
			}
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive line.
		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimPrefix(line, "data:")
			payload = strings.TrimPrefix(payload, " ")
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(payload)
		default:
			// Field lines other than data (event, id, retry) are not
			// used by the monitor protocol.
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}
