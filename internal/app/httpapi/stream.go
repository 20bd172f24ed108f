package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ProvenDev-Labs/review_layer/internal/middleware"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	readCloseLimit = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin checks are handled by the CORS middleware in front of the mux.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// streamItems pushes the actor's item view over a websocket: one JSON array
// per snapshot, each fully replacing the last.
func (h *handler) streamItems(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, err := h.app.Views.Items(ctx, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.pump(ctx, cancel, conn, func() (any, bool) {
		snap, ok := <-snapshots
		return snap, ok
	})
}

// streamNotifications pushes the actor's notification view over a websocket.
func (h *handler) streamNotifications(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, err := h.app.Views.Notifications(ctx, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.pump(ctx, cancel, conn, func() (any, bool) {
		snap, ok := <-snapshots
		return snap, ok
	})
}

// pump writes snapshots until the subscription ends or the peer goes away.
// A read loop drains control frames and cancels the view subscription on
// close, releasing the store watch deterministically.
func (h *handler) pump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, next func() (any, bool)) {
	defer conn.Close()

	go func() {
		defer cancel()
		conn.SetReadLimit(readCloseLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	snapCh := make(chan any, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			snap, ok := next()
			if !ok {
				return
			}
			select {
			case snapCh <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case snap := <-snapCh:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
