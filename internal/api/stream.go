package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"cyberguard/internal/metrics"
	"cyberguard/internal/monitor"
)

const streamWriteTimeout = 5 * time.Second

// monitorStream pushes the monitor state to a WebSocket client: the current
// snapshot on connect, then one message per tick until either side leaves.
func (h *Handler) monitorStream(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("monitor stream: accept failed")
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "stream ended")

	metrics.MonitorObservers.Inc()
	defer metrics.MonitorObservers.Dec()

	updates, unsubscribe := h.monitor.Subscribe()
	defer unsubscribe()

	// the client only talks to close; CloseRead handles that and cancels ctx
	ctx := ws.CloseRead(r.Context())

	if err := writeState(ctx, ws, h.monitor.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := writeState(ctx, ws, st); err != nil {
				h.logger.Debug().Err(err).Msg("monitor stream: write failed")
				return
			}
		}
	}
}

func writeState(ctx context.Context, ws *websocket.Conn, st monitor.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
