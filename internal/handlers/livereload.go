package handlers

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// liveReload tracks dev browser sockets. Pages reload when their socket
// drops and /health answers again. Only the handler goroutine of a socket
// writes to it; closeAll asks each handler to send its close frame.
type liveReload struct {
	mu    sync.Mutex
	conns map[net.Conn]chan struct{}
}

func newLiveReload() *liveReload {
	return &liveReload{conns: make(map[net.Conn]chan struct{})}
}

func (l *liveReload) add(c net.Conn) <-chan struct{} {
	stop := make(chan struct{})
	l.mu.Lock()
	l.conns[c] = stop
	l.mu.Unlock()
	return stop
}

func (l *liveReload) remove(c net.Conn) {
	l.mu.Lock()
	delete(l.conns, c)
	l.mu.Unlock()
}

func (l *liveReload) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *liveReload) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for c, stop := range l.conns {
		close(stop)
		delete(l.conns, c)
	}
}

func (h *Handlers) HandleLiveReload(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}
	stop := h.reload.add(conn)
	defer func() {
		h.reload.remove(conn)
		_ = conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			hdr, err := ws.ReadHeader(conn)
			if err != nil {
				return
			}
			if _, err := io.CopyN(io.Discard, conn, hdr.Length); err != nil {
				return
			}
			if hdr.OpCode == ws.OpClose {
				return
			}
		}
	}()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-stop:
			_ = wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusGoingAway, "restart"))
			return
		case <-ticker.C:
			if err := wsutil.WriteServerMessage(conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}
