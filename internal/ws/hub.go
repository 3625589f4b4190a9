// Package ws serves a live preview of the frames sent to the device over
// websockets, plus diagnostics and a small control channel.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/lumiseq/internal/diagnostics"
	"github.com/coreman2200/lumiseq/internal/runner"
	"github.com/coreman2200/lumiseq/model"
)

const writeTimeout = 200 * time.Millisecond

// Controls are invoked by messages on the control socket. Nil hooks are
// ignored.
type Controls struct {
	SetBrightness func(level float64)
	Stop          func()
}

type Hub struct {
	Driver   string
	Controls Controls

	log       zerolog.Logger
	startTime time.Time

	mu          sync.RWMutex
	rgb         []byte
	frameID     uint64
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	// serializes writes, a websocket conn supports one writer at a time
	writeMu sync.Mutex
}

func NewHub(channels int, log zerolog.Logger) *Hub {
	return &Hub{
		log:         log,
		startTime:   time.Now(),
		rgb:         make([]byte, channels*3),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// Tee returns a sink that forwards to sink and broadcasts every successful
// write to the preview clients.
func (h *Hub) Tee(sink runner.Sink) runner.Sink {
	return &tee{hub: h, next: sink}
}

type tee struct {
	hub  *Hub
	next runner.Sink
}

func (t *tee) Channels() int { return t.next.Channels() }

func (t *tee) SetColor(ctx context.Context, c model.RGB) error {
	if err := t.next.SetColor(ctx, c); err != nil {
		return err
	}
	t.hub.publish(func(rgb []byte) { model.FillRGB(rgb, c) })
	return nil
}

func (t *tee) SetColors(ctx context.Context, offset int, rgb []byte) error {
	if err := t.next.SetColors(ctx, offset, rgb); err != nil {
		return err
	}
	t.hub.publish(func(dst []byte) {
		if o := offset * 3; o < len(dst) {
			copy(dst[o:], rgb)
		}
	})
	return nil
}

func (h *Hub) publish(update func(rgb []byte)) {
	h.mu.Lock()
	update(h.rgb)
	h.frameID++
	buf := append([]byte{}, h.rgb...)
	id := h.frameID
	h.mu.Unlock()
	h.broadcastFrame(buf, id)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (h *Hub) broadcastFrame(rgb []byte, id uint64) {
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})
	h.send(h.snapshot(h.clients), b)
}

// Report makes the hub a diagnostics sink that forwards to diag clients.
func (h *Hub) Report(d diagnostics.Diagnostic) {
	b, _ := json.Marshal(d)
	h.send(h.snapshot(h.diagClients), b)
}

func (h *Hub) snapshot(set map[*websocket.Conn]bool) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) send(conns []*websocket.Conn, b []byte) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("write frame")
		}
	}
}

// Clients is the number of connected frame clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return nil, false
	}
	return conn, true
}

// register tracks conn in set until the client goes away.
func (h *Hub) register(set map[*websocket.Conn]bool, conn *websocket.Conn) {
	h.mu.Lock()
	set[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(set, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	if conn, ok := h.upgrade(w, r); ok {
		h.register(h.clients, conn)
	}
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	if conn, ok := h.upgrade(w, r); ok {
		h.register(h.diagClients, conn)
	}
}

func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h.applyControl(msg)
	}
}

func (h *Hub) applyControl(msg map[string]any) {
	if v, ok := msg["brightness"].(float64); ok && h.Controls.SetBrightness != nil {
		h.Controls.SetBrightness(v)
	}
	if v, ok := msg["stop"].(bool); ok && v && h.Controls.Stop != nil {
		h.Controls.Stop()
	}
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"channels": len(h.rgb) / 3,
		"clients":  len(h.clients),
		"driver":   h.Driver,
	}
	h.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Handler routes /ws, /diag, /control and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/control", h.HandleControlWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
