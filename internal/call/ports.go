// Package call owns the client-side call lifecycle: one session at a
// time, driving an opaque negotiation engine and local media capture,
// and exchanging envelopes through the relay. Coupling to the
// transport and to WebRTC is via the small interfaces below only.
package call

import "github.com/Piyush-Mishra-IIITB/socket/internal/models"

// ConnState is the connectivity state reported by the negotiation engine.
type ConnState int

const (
	ConnNew ConnState = iota
	ConnConnecting
	ConnConnected
	ConnDisconnected
	ConnFailed
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnNew:
		return "new"
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnDisconnected:
		return "disconnected"
	case ConnFailed:
		return "failed"
	case ConnClosed:
		return "closed"
	}
	return "unknown"
}

// Track is an opaque local media handle the engine can send.
type Track interface {
	ID() string
}

// RemoteTrack is inbound media surfaced by the engine.
type RemoteTrack interface {
	ID() string
	Kind() string
}

// Engine is the negotiation black box: it produces and consumes
// offers, answers and candidates, and reports connectivity.
type Engine interface {
	CreateOffer() (models.SessionDescription, error)
	CreateAnswer() (models.SessionDescription, error)
	SetLocalDescription(models.SessionDescription) error
	SetRemoteDescription(models.SessionDescription) error
	AddICECandidate(models.ICECandidate) error
	AddTrack(Track) error
	Close() error
}

// Callbacks is how a fresh engine reports back to its session.
type Callbacks struct {
	OnICECandidate          func(models.ICECandidate)
	OnConnectionStateChange func(ConnState)
	OnRemoteTrack           func(RemoteTrack)
}

// EngineFactory builds one engine per session.
type EngineFactory func(cb Callbacks) (Engine, error)

// MediaSource acquires and releases the local capture tracks. Start is
// idempotent while the source is held; Stop releases the device.
type MediaSource interface {
	Start() ([]Track, error)
	Stop()
}

// Sender delivers envelopes to the relay.
type Sender interface {
	Send(env models.Envelope) error
}
