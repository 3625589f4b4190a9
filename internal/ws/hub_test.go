package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lumiseq/internal/diagnostics"
	"github.com/coreman2200/lumiseq/internal/led"
	"github.com/coreman2200/lumiseq/model"
)

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestTeeBroadcastsFrames(t *testing.T) {
	hub := NewHub(2, zerolog.Nop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, "/ws")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	sim := led.NewSim(2)
	sink := hub.Tee(sim)
	assert.Equal(t, 2, sink.Channels())
	ctx := context.Background()

	require.NoError(t, sink.SetColor(ctx, model.Red))
	f := readFrame(t, conn)
	assert.Equal(t, uint64(1), f.FrameID)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0}, f.RGB)

	require.NoError(t, sink.SetColors(ctx, 1, []byte{0, 0, 255}))
	f = readFrame(t, conn)
	assert.Equal(t, uint64(2), f.FrameID)
	assert.Equal(t, []byte{255, 0, 0, 0, 0, 255}, f.RGB)

	assert.Equal(t, []model.RGB{model.Red, model.Blue}, sim.Current())
}

func TestTeeDoesNotPublishFailedWrites(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	sim := led.NewSim(1)
	sim.Err = assert.AnError
	sink := hub.Tee(sim)

	assert.Equal(t, assert.AnError, sink.SetColor(context.Background(), model.Red))
	assert.Equal(t, uint64(0), hub.frameID)
}

func TestDiagnosticsAreForwarded(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, "/diag")
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.diagClients) == 1
	}, time.Second, 5*time.Millisecond)

	var sink diagnostics.Sink = hub
	sink.Report(diagnostics.Diagnostic{Severity: diagnostics.Warn, Code: "frame_too_short", Summary: "flicker"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var d diagnostics.Diagnostic
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "frame_too_short", d.Code)
	assert.Equal(t, diagnostics.Warn, d.Severity)
}

func TestControl(t *testing.T) {
	levels := make(chan float64, 1)
	stopped := make(chan struct{}, 1)
	hub := NewHub(1, zerolog.Nop())
	hub.Controls = Controls{
		SetBrightness: func(v float64) { levels <- v },
		Stop:          func() { stopped <- struct{}{} },
	}
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, "/control")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"brightness":0.25}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"stop":true}`)))

	select {
	case v := <-levels:
		assert.Equal(t, 0.25, v)
	case <-time.After(2 * time.Second):
		t.Fatal("brightness not applied")
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop not applied")
	}
}

func TestHealth(t *testing.T) {
	hub := NewHub(3, zerolog.Nop())
	hub.Driver = "sim"
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	require.NoError(t, hub.Tee(led.NewSim(3)).SetColor(context.Background(), model.Green))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["frame_id"])
	assert.Equal(t, float64(3), body["channels"])
	assert.Equal(t, "sim", body["driver"])
}
