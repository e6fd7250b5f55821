package handlers

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CodeMart/chat"
)

type recordingConn struct {
	mu     sync.Mutex
	events []chat.Event
}

func (r *recordingConn) Send(ev chat.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingConn) snapshot() []chat.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chat.Event, len(r.events))
	copy(out, r.events)
	return out
}

func newSocketTestServer(t *testing.T) (*chat.Coordinator, *websocket.Conn) {
	t.Helper()
	coordinator, err := chat.NewCoordinator(chat.Options{
		WelcomeText: "welcome",
		BotDelay:    5 * time.Millisecond,
		GracePeriod: time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	t.Cleanup(coordinator.Shutdown)

	h := NewChatWebSocketHandler(coordinator, nil)
	e := echo.New()
	e.GET("/ws/chat", h.HandleVisitorSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })
	return coordinator, ws
}

func readEvent(t *testing.T, ws *websocket.Conn) chat.Event {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev chat.Event
	if err := ws.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return ev
}

// A socket carries exactly one visitor identity; repeat connect frames must
// not mint a second one and strand the first without a grace timer.
func TestRepeatConnectFrameKeepsOneIdentity(t *testing.T) {
	coordinator, ws := newSocketTestServer(t)

	connect := map[string]interface{}{
		"event": "user:connect",
		"data":  map[string]string{"name": "Ali"},
	}
	if err := ws.WriteJSON(connect); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := ws.WriteJSON(connect); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if err := ws.WriteJSON(map[string]interface{}{
		"event": "message:send",
		"data":  map[string]string{"text": "hello"},
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Welcome then echo. The echo proves every earlier frame was handled;
	// a second welcome in between would mean a second identity.
	for i, want := range []string{"message:new", "message:new"} {
		if ev := readEvent(t, ws); ev.Name != want {
			t.Fatalf("frame %d = %q, want %q", i, ev.Name, want)
		}
	}

	admin := &recordingConn{}
	coordinator.AdminConnect("op-1", admin)
	for _, ev := range admin.snapshot() {
		if ev.Name != chat.EvSessionList {
			continue
		}
		summaries := ev.Data.([]chat.SessionSummary)
		if len(summaries) != 1 {
			t.Fatalf("coordinator tracks %d sessions, want 1", len(summaries))
		}
		return
	}
	t.Fatal("admin never received the session:list snapshot")
}
