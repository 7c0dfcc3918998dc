package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmend3z/forja/internal/dashboard"
)

// handleWS mirrors the SSE feed over a websocket for clients that
// prefer it (the TUI dials this when SSE is proxied away). Frames are
// the same JSON events, one per message.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	s.cfg.Logger.Debug("ws: client connected")
	defer func() {
		s.cfg.Logger.Debug("ws: client disconnecting")
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	// Server-push only. CloseRead reaps incoming frames and cancels the
	// context when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	writeFrame := func(frame []byte) error {
		return wsjson.Write(ctx, conn, json.RawMessage(frame))
	}

	if err := s.sendSnapshot(writeFrame); err != nil {
		s.cfg.Logger.Debug("ws: snapshot write failed", "error", err)
		return
	}

	sub := s.cfg.Bus.Subscribe("dashboard.")
	defer s.cfg.Bus.Unsubscribe(sub)

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
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
			if err != nil || frame == nil {
				continue
			}
			if err := writeFrame(frame); err != nil {
				s.cfg.Logger.Debug("ws: write failed", "error", err)
				return
			}
		}
	}
}
