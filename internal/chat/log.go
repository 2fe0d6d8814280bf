// Package chat keeps the client's ordered message log and posts
// outgoing messages through the relay.
package chat

import (
	"sync"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
)

// Entry is one chat line as the local client saw it.
type Entry struct {
	From string
	Text string
}

// Log is an append-only ordered message log.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(from, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{From: from, Text: text})
}

// Entries returns a snapshot of the log in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Sender delivers envelopes to the relay.
type Sender interface {
	Send(env models.Envelope) error
}

// Messenger posts chat messages and records the local copy. The
// sender's own copy never round-trips through the relay, so it appears
// in the log whether or not the recipient is reachable.
type Messenger struct {
	send   Sender
	log    *Log
	selfID string
}

func NewMessenger(send Sender, log *Log, selfID string) *Messenger {
	return &Messenger{send: send, log: log, selfID: selfID}
}

// Send relays text to the endpoint to, best-effort, and appends the
// local copy.
func (m *Messenger) Send(to, text string) error {
	env, err := models.NewEnvelope(models.KindChatMessage, to, models.ChatMessage{Text: text})
	if err != nil {
		return err
	}
	if err := m.send.Send(env); err != nil {
		return err
	}
	m.log.Append(m.selfID, text)
	return nil
}

// Receive records an inbound chat envelope.
func (m *Messenger) Receive(env models.Envelope) {
	var msg models.ChatMessage
	if err := env.Decode(&msg); err != nil {
		return
	}
	m.log.Append(env.From, msg.Text)
}
