package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/preview"
	"github.com/pthm-cable/terrarium/telemetry"
)

type snapshotFrame struct {
	Type    string             `json:"type"`
	Tick    int                `json:"tick"`
	Payload telemetry.Snapshot `json:"payload"`
}

func newTestController(t *testing.T) (*Controller, *Hub) {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 9
	cfg.InitialPopulation = 10
	s, err := game.NewSession(cfg, game.Options{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hub := NewHub(0, nil)
	c := NewController(s, config.FeedConfig{TicksPerSecond: 30, BroadcastInterval: 2}, hub, nil)
	return c, hub
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, srv *httptest.Server, hub *Hub, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	waitFor(t, "client registration", func() bool { return hub.Clients() == want })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) snapshotFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f snapshotFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return f
}

func TestStatusAndControls(t *testing.T) {
	c, hub := newTestController(t)
	srv := httptest.NewServer(NewHandler(c, hub))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	st := decode[Status](t, resp)
	if st.Running || st.Tick != 0 || st.Population != 10 {
		t.Errorf("initial status = %+v", st)
	}

	post(t, srv.URL+"/api/control/start", "")
	if !c.Running() {
		t.Error("start did not resume the controller")
	}
	post(t, srv.URL+"/api/control/stop", "")
	if c.Running() {
		t.Error("stop did not pause the controller")
	}

	tests := []struct {
		name string
		body string
		want float32
	}{
		{"clamped high", `{"multiplier": 99}`, preview.MaxSpeed},
		{"clamped low", `{"multiplier": 0.01}`, preview.MinSpeed},
		{"in range", `{"multiplier": 2.5}`, 2.5},
		{"missing field", `{}`, 1},
		{"empty body", ``, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/control/speed", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d", resp.StatusCode)
			}
			got := decode[map[string]float32](t, resp)["multiplier"]
			if got != tt.want {
				t.Errorf("multiplier = %v, want %v", got, tt.want)
			}
		})
	}

	if resp := post(t, srv.URL+"/api/control/speed", `{"multiplier":`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad JSON: status %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/control/start")
	if err != nil {
		t.Fatalf("GET start: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET on control route: status %d, want 405", resp.StatusCode)
	}
}

func TestWebsocketReceivesSnapshots(t *testing.T) {
	c, hub := newTestController(t)
	srv := httptest.NewServer(NewHandler(c, hub))
	defer srv.Close()
	conn := dial(t, srv, hub, 1)

	c.Step()
	c.Step()

	f := readFrame(t, conn)
	if f.Type != "snapshot" || f.Tick != 2 {
		t.Fatalf("frame = %s tick %d, want snapshot tick 2", f.Type, f.Tick)
	}
	if f.Payload.Tick != 1 || len(f.Payload.Agents) == 0 || f.Payload.WorldSize != 100 {
		t.Errorf("payload tick %d, %d agents, world %v", f.Payload.Tick, len(f.Payload.Agents), f.Payload.WorldSize)
	}
	if hub.Pending() != 1 {
		t.Errorf("pending = %d, want 1 before ack", hub.Pending())
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "ack", "tick": 2}); err != nil {
		t.Fatalf("write ack: %v", err)
	}
	waitFor(t, "ack", func() bool { return hub.Pending() == 0 })
}

func TestLateJoinerGetsPendingSnapshots(t *testing.T) {
	c, hub := newTestController(t)
	srv := httptest.NewServer(NewHandler(c, hub))
	defer srv.Close()

	for i := 0; i < 5; i++ {
		c.Step()
	}
	conn := dial(t, srv, hub, 1)

	for _, want := range []int{2, 4} {
		if f := readFrame(t, conn); f.Tick != want {
			t.Fatalf("tick %d, want %d", f.Tick, want)
		}
	}
}

func TestResetRebroadcasts(t *testing.T) {
	c, hub := newTestController(t)
	for i := 0; i < 6; i++ {
		c.Step()
	}
	if hub.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", hub.Pending())
	}

	st := c.Reset()
	if st.Tick != 0 || st.Population != 10 {
		t.Errorf("status after reset = %+v", st)
	}
	if hub.Pending() != 1 {
		t.Errorf("pending after reset = %d, want the fresh snapshot only", hub.Pending())
	}
}

func TestHubQueueBounded(t *testing.T) {
	hub := NewHub(3, nil)
	for tick := 1; tick <= 5; tick++ {
		if err := hub.Broadcast(Message{Type: "snapshot", Tick: tick}); err != nil {
			t.Fatalf("broadcast: %v", err)
		}
	}
	if hub.Pending() != 3 {
		t.Errorf("pending = %d, want 3", hub.Pending())
	}
	hub.Ack(4)
	if hub.Pending() != 1 {
		t.Errorf("pending after ack = %d, want 1", hub.Pending())
	}
}

func TestControllerRunAdvancesWhenStarted(t *testing.T) {
	c, _ := newTestController(t)
	if n := c.advance(time.Second); n != 0 {
		t.Errorf("stopped controller ran %d ticks", n)
	}
	c.Start()
	if n := c.advance(110 * time.Millisecond); n != 3 {
		t.Errorf("ran %d ticks for 110ms at 30 t/s, want 3", n)
	}
	if got := c.Status().Tick; got != 3 {
		t.Errorf("tick = %d", got)
	}
}
