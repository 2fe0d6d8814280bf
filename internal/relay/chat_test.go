package relay

import (
	"testing"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
)

func TestChatRelayDeliversText(t *testing.T) {
	reg := NewRegistry(nil)
	chat := NewChatRelay(NewRouter(reg))
	a, b := registerTwo(t, reg)

	chat.Send(a.ID, b.ID, "hi")

	got := recvEnvelope(t, b)
	if got.Kind != models.KindChatMessage {
		t.Fatalf("kind = %s, want chat-message", got.Kind)
	}
	if got.From != a.ID {
		t.Errorf("from = %q, want %q", got.From, a.ID)
	}
	var msg models.ChatMessage
	if err := got.Decode(&msg); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if msg.Text != "hi" {
		t.Errorf("text = %q, want \"hi\"", msg.Text)
	}
}

func TestChatToUnregisteredEndpointIsDropped(t *testing.T) {
	reg := NewRegistry(nil)
	chat := NewChatRelay(NewRouter(reg))
	a, b := registerTwo(t, reg)

	chat.Send(a.ID, "never-registered", "hi")

	expectNoEnvelope(t, a)
	expectNoEnvelope(t, b)
}
