package signal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
	"github.com/gorilla/websocket"
)

type recordHandler struct {
	mu        sync.Mutex
	welcome   string
	presences [][]string
	envelopes []models.Envelope
}

func (h *recordHandler) OnWelcome(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.welcome = id
}

func (h *recordHandler) OnPresence(endpoints []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.presences = append(h.presences, endpoints)
}

func (h *recordHandler) OnEnvelope(env models.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.envelopes = append(h.envelopes, env)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// fakeRelay is a bare ws endpoint that scripts server-side envelopes
// and records what the client sends.
func fakeRelay(t *testing.T, script []models.Envelope, received chan<- models.Envelope) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, env := range script {
			data, _ := json.Marshal(env)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env models.Envelope
			if json.Unmarshal(data, &env) == nil {
				received <- env
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func mustEnvelope(t *testing.T, kind models.Kind, to string, payload any) models.Envelope {
	t.Helper()
	env, err := models.NewEnvelope(kind, to, payload)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

func TestClientDispatchesRelayEvents(t *testing.T) {
	script := []models.Envelope{
		mustEnvelope(t, models.KindWelcome, "a1", models.Welcome{ID: "a1"}),
		mustEnvelope(t, models.KindPresence, "", models.Presence{Endpoints: []string{"a1", "b1"}}),
		mustEnvelope(t, models.KindChatMessage, "a1", models.ChatMessage{Text: "hi"}),
	}
	received := make(chan models.Envelope, 1)
	url := fakeRelay(t, script, received)

	handler := &recordHandler{}
	client, err := Dial(url, handler)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	waitFor(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.welcome == "a1" && len(handler.presences) == 1 && len(handler.envelopes) == 1
	})

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.presences[0]) != 2 {
		t.Errorf("presence = %v, want two endpoints", handler.presences[0])
	}
	if handler.envelopes[0].Kind != models.KindChatMessage {
		t.Errorf("envelope kind = %s, want chat-message", handler.envelopes[0].Kind)
	}
}

func TestClientSendReachesRelay(t *testing.T) {
	received := make(chan models.Envelope, 1)
	url := fakeRelay(t, nil, received)

	client, err := Dial(url, &recordHandler{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	env := mustEnvelope(t, models.KindHangup, "b1", nil)
	if err := client.Send(env); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got.Kind != models.KindHangup || got.To != "b1" {
			t.Errorf("relay received %+v, want hangup to b1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay never received the envelope")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	url := fakeRelay(t, nil, make(chan models.Envelope, 1))

	client, err := Dial(url, &recordHandler{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client.Close()
	client.Close()
}
