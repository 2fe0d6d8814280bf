package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
)

// fakeMirror records presence mutations for verification.
type fakeMirror struct {
	added   []string
	removed []string
}

func (m *fakeMirror) Add(id string)    { m.added = append(m.added, id) }
func (m *fakeMirror) Remove(id string) { m.removed = append(m.removed, id) }

func recvEnvelope(t *testing.T, c *Client) models.Envelope {
	t.Helper()
	select {
	case data := <-c.Send:
		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		return env
	case <-time.After(time.Second):
		t.Fatal("no envelope delivered")
		return models.Envelope{}
	}
}

func expectNoEnvelope(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected envelope delivered: %s", data)
	default:
	}
}

func decodePresence(t *testing.T, env models.Envelope) []string {
	t.Helper()
	if env.Kind != models.KindPresence {
		t.Fatalf("expected presence envelope, got %s", env.Kind)
	}
	var p models.Presence
	if err := env.Decode(&p); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	return p.Endpoints
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	reg := NewRegistry(nil)

	id1 := reg.Register(NewClient(nil))
	id2 := reg.Register(NewClient(nil))

	if id1 == "" || id2 == "" {
		t.Fatal("expected non-empty ids")
	}
	if id1 == id2 {
		t.Fatalf("expected unique ids, got %q twice", id1)
	}
}

func TestRegisterSendsWelcomeThenPresence(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewClient(nil)

	id := reg.Register(c)

	welcome := recvEnvelope(t, c)
	if welcome.Kind != models.KindWelcome {
		t.Fatalf("expected welcome first, got %s", welcome.Kind)
	}
	var w models.Welcome
	if err := welcome.Decode(&w); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if w.ID != id {
		t.Errorf("welcome id = %q, want %q", w.ID, id)
	}

	endpoints := decodePresence(t, recvEnvelope(t, c))
	if !sameSet(endpoints, []string{id}) {
		t.Errorf("presence = %v, want {%s}", endpoints, id)
	}
}

func TestEveryMutationBroadcastsExactSet(t *testing.T) {
	reg := NewRegistry(nil)

	c1 := NewClient(nil)
	id1 := reg.Register(c1)
	recvEnvelope(t, c1) // welcome
	recvEnvelope(t, c1) // presence {id1}

	c2 := NewClient(nil)
	id2 := reg.Register(c2)
	recvEnvelope(t, c2) // welcome

	// Both clients see the same full snapshot, not a delta.
	if got := decodePresence(t, recvEnvelope(t, c1)); !sameSet(got, []string{id1, id2}) {
		t.Errorf("c1 presence = %v, want {%s,%s}", got, id1, id2)
	}
	if got := decodePresence(t, recvEnvelope(t, c2)); !sameSet(got, []string{id1, id2}) {
		t.Errorf("c2 presence = %v, want {%s,%s}", got, id1, id2)
	}

	reg.Unregister(id2)
	if got := decodePresence(t, recvEnvelope(t, c1)); !sameSet(got, []string{id1}) {
		t.Errorf("presence after unregister = %v, want {%s}", got, id1)
	}

	// Exactly one broadcast per mutation: nothing else queued.
	expectNoEnvelope(t, c1)
}

func TestUnregisterAbsentIsNoop(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewClient(nil)
	reg.Register(c)
	recvEnvelope(t, c)
	recvEnvelope(t, c)

	reg.Unregister("not-an-endpoint")

	expectNoEnvelope(t, c)
	if got := reg.LiveSet(); len(got) != 1 {
		t.Errorf("live set = %v, want one endpoint", got)
	}
}

func TestLiveSetTracksRegistrations(t *testing.T) {
	reg := NewRegistry(nil)

	id1 := reg.Register(NewClient(nil))
	id2 := reg.Register(NewClient(nil))
	id3 := reg.Register(NewClient(nil))
	reg.Unregister(id2)

	if got := reg.LiveSet(); !sameSet(got, []string{id1, id3}) {
		t.Errorf("live set = %v, want {%s,%s}", got, id1, id3)
	}
}

// stallMirror parks inside Add/Remove until released.
type stallMirror struct {
	entered chan struct{}
	release chan struct{}
}

func (m *stallMirror) Add(string)    { m.entered <- struct{}{}; <-m.release }
func (m *stallMirror) Remove(string) { m.entered <- struct{}{}; <-m.release }

func TestSlowMirrorDoesNotBlockLookups(t *testing.T) {
	mirror := &stallMirror{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	reg := NewRegistry(mirror)

	done := make(chan string)
	go func() { done <- reg.Register(NewClient(nil)) }()
	<-mirror.entered

	// Register is parked inside the mirror; the live set must still
	// be readable.
	got := make(chan []string, 1)
	go func() { got <- reg.LiveSet() }()
	select {
	case set := <-got:
		if len(set) != 1 {
			t.Errorf("live set during mirror stall = %v, want one endpoint", set)
		}
	case <-time.After(time.Second):
		t.Fatal("LiveSet blocked behind mirror I/O")
	}

	close(mirror.release)
	id := <-done

	mirror.release = make(chan struct{})
	go reg.Unregister(id)
	<-mirror.entered

	got = make(chan []string, 1)
	go func() { got <- reg.LiveSet() }()
	select {
	case set := <-got:
		if len(set) != 0 {
			t.Errorf("live set during unregister stall = %v, want empty", set)
		}
	case <-time.After(time.Second):
		t.Fatal("LiveSet blocked behind mirror I/O on unregister")
	}
	close(mirror.release)
}

func TestMirrorSeesMutations(t *testing.T) {
	mirror := &fakeMirror{}
	reg := NewRegistry(mirror)

	id := reg.Register(NewClient(nil))
	reg.Unregister(id)

	if len(mirror.added) != 1 || mirror.added[0] != id {
		t.Errorf("mirror added = %v, want [%s]", mirror.added, id)
	}
	if len(mirror.removed) != 1 || mirror.removed[0] != id {
		t.Errorf("mirror removed = %v, want [%s]", mirror.removed, id)
	}
}
