package call

import (
	"errors"
	"log"
	"sync"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
)

// State is the local call lifecycle state.
type State int

const (
	StateIdle State = iota
	// StateOffering: offer sent, awaiting the callee's answer.
	StateOffering
	// StateRinging: an incoming call is pending a user decision.
	StateRinging
	// StateConnecting: answer exchanged, engine still establishing transport.
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOffering:
		return "offering"
	case StateRinging:
		return "ringing"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

var (
	ErrBusy      = errors.New("call already in progress")
	ErrNoPending = errors.New("no pending incoming call")
	ErrNoPeer    = errors.New("no peer specified")
)

// IncomingCall is held between an incoming call-request and the user's
// accept/reject decision.
type IncomingCall struct {
	From  string
	Offer models.SessionDescription
}

// Controller owns at most one call session at a time. All inbound
// signaling is matched against the current peer; envelopes from a
// stale peer are ignored or safely absorbed.
type Controller struct {
	send      Sender
	newEngine EngineFactory
	media     MediaSource

	mu      sync.Mutex
	state   State
	peer    string
	pending *IncomingCall
	status  string
	engine  Engine
	tracks  []Track
	remote  RemoteTrack
	epoch   uint64
}

// NewController wires the controller to the relay sender, an engine
// factory and a media source.
func NewController(send Sender, newEngine EngineFactory, media MediaSource) *Controller {
	return &Controller{
		send:      send,
		newEngine: newEngine,
		media:     media,
	}
}

// StartLocalMedia acquires the capture device ahead of any call.
// Failures are returned synchronously and leave the controller untouched.
func (c *Controller) StartLocalMedia() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureMediaLocked()
}

func (c *Controller) ensureMediaLocked() error {
	if c.tracks != nil {
		return nil
	}
	tracks, err := c.media.Start()
	if err != nil {
		return err
	}
	c.tracks = tracks
	return nil
}

// Call starts an outbound call to peer: acquire media, create the
// negotiation engine, generate an offer and route it as a
// call-request. Only valid from Idle.
func (c *Controller) Call(peer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if peer == "" {
		return ErrNoPeer
	}
	if c.state != StateIdle {
		return ErrBusy
	}
	if err := c.ensureMediaLocked(); err != nil {
		return err
	}
	if err := c.startEngineLocked(peer); err != nil {
		return err
	}

	offer, err := c.engine.CreateOffer()
	if err != nil {
		c.teardownLocked()
		return err
	}
	if err := c.engine.SetLocalDescription(offer); err != nil {
		c.teardownLocked()
		return err
	}

	c.sendLocked(models.KindCallRequest, peer, models.CallRequest{Offer: offer})
	c.peer = peer
	c.state = StateOffering
	c.status = ""
	return nil
}

// AcceptIncomingCall accepts the pending incoming call: acquire media,
// create the engine, apply the stored offer, answer it back.
func (c *Controller) AcceptIncomingCall() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ErrNoPending
	}
	if c.engine != nil {
		return ErrBusy
	}
	if err := c.ensureMediaLocked(); err != nil {
		return err
	}

	incoming := *c.pending
	if err := c.startEngineLocked(incoming.From); err != nil {
		return err
	}
	if err := c.engine.SetRemoteDescription(incoming.Offer); err != nil {
		c.teardownLocked()
		return err
	}
	answer, err := c.engine.CreateAnswer()
	if err != nil {
		c.teardownLocked()
		return err
	}
	if err := c.engine.SetLocalDescription(answer); err != nil {
		c.teardownLocked()
		return err
	}

	c.sendLocked(models.KindAnswer, incoming.From, answer)
	c.peer = incoming.From
	c.pending = nil
	c.state = StateConnecting
	c.status = ""
	return nil
}

// RejectIncomingCall discards the pending call and notifies the caller.
// No-op when nothing is pending.
func (c *Controller) RejectIncomingCall() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return
	}
	c.sendLocked(models.KindCallRejected, c.pending.From, nil)
	c.pending = nil
	if c.state == StateRinging {
		c.state = StateIdle
	}
}

// Hangup ends the current call attempt or session, notifying whichever
// peer is involved. Safe to call repeatedly.
func (c *Controller) Hangup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	other := c.peer
	if other == "" && c.pending != nil {
		other = c.pending.From
	}
	if other == "" && c.state == StateIdle {
		return
	}
	if other != "" {
		c.sendLocked(models.KindHangup, other, nil)
	}
	c.teardownLocked()
	c.status = "you ended the call"
}

// HandleEnvelope processes one inbound signaling envelope from the relay.
func (c *Controller) HandleEnvelope(env models.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch env.Kind {
	case models.KindCallRequest:
		var req models.CallRequest
		if err := env.Decode(&req); err != nil {
			log.Printf("[call] bad call-request payload from %s: %v", env.From, err)
			return
		}
		// A second incoming call silently replaces the pending one.
		c.pending = &IncomingCall{From: env.From, Offer: req.Offer}
		if c.state == StateIdle {
			c.state = StateRinging
		}

	case models.KindAnswer:
		if c.state != StateOffering || env.From != c.peer {
			return
		}
		var answer models.SessionDescription
		if err := env.Decode(&answer); err != nil {
			log.Printf("[call] bad answer payload from %s: %v", env.From, err)
			return
		}
		if err := c.engine.SetRemoteDescription(answer); err != nil {
			// Out-of-sequence or malformed description is fatal to the attempt.
			log.Printf("[call] applying answer failed: %v", err)
			c.teardownLocked()
			c.status = "call failed"
			return
		}
		c.state = StateConnecting

	case models.KindCandidate:
		if c.state == StateIdle || env.From != c.peer || c.engine == nil {
			return
		}
		var candidate models.ICECandidate
		if err := env.Decode(&candidate); err != nil {
			return
		}
		// Stale or duplicate candidates after teardown races are expected.
		if err := c.engine.AddICECandidate(candidate); err != nil {
			log.Printf("[call] ignoring candidate: %v", err)
		}

	case models.KindCallRejected:
		if c.state != StateOffering || env.From != c.peer {
			return
		}
		c.teardownLocked()
		c.status = "call rejected"

	case models.KindHangup:
		fromPending := c.pending != nil && env.From == c.pending.From
		if env.From == c.peer && c.state != StateIdle {
			c.teardownLocked()
			c.status = "call ended by peer"
		} else if fromPending {
			// Caller gave up before we decided.
			c.pending = nil
			if c.state == StateRinging {
				c.state = StateIdle
			}
		}
	}
}

// startEngineLocked builds a fresh engine for a session with peer and
// attaches its tracks. Callbacks from engines of torn-down sessions
// are fenced off by the epoch counter.
func (c *Controller) startEngineLocked(peer string) error {
	epoch := c.epoch
	engine, err := c.newEngine(Callbacks{
		OnICECandidate: func(candidate models.ICECandidate) {
			c.onICECandidate(epoch, peer, candidate)
		},
		OnConnectionStateChange: func(state ConnState) {
			c.onConnectionStateChange(epoch, state)
		},
		OnRemoteTrack: func(track RemoteTrack) {
			c.onRemoteTrack(epoch, track)
		},
	})
	if err != nil {
		return err
	}
	c.engine = engine

	for _, track := range c.tracks {
		if err := c.engine.AddTrack(track); err != nil {
			c.teardownLocked()
			return err
		}
	}
	return nil
}

func (c *Controller) onICECandidate(epoch uint64, peer string, candidate models.ICECandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.sendLocked(models.KindCandidate, peer, candidate)
}

func (c *Controller) onConnectionStateChange(epoch uint64, state ConnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}

	switch state {
	case ConnConnected:
		c.state = StateConnected
		c.status = ""
	case ConnDisconnected, ConnFailed, ConnClosed:
		c.teardownLocked()
		c.status = "call ended"
	}
}

func (c *Controller) onRemoteTrack(epoch uint64, track RemoteTrack) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.remote = track
}

// teardownLocked releases everything a session holds: media, engine,
// video sinks, the pending record. The media and negotiation handles
// are always released together. Idempotent.
func (c *Controller) teardownLocked() {
	if c.tracks != nil {
		c.media.Stop()
		c.tracks = nil
	}
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			log.Printf("[call] closing engine: %v", err)
		}
		c.engine = nil
	}
	c.remote = nil
	c.pending = nil
	c.peer = ""
	c.state = StateIdle
	c.epoch++
}

// sendLocked routes an envelope through the relay, best-effort.
func (c *Controller) sendLocked(kind models.Kind, to string, payload any) {
	env, err := models.NewEnvelope(kind, to, payload)
	if err != nil {
		log.Printf("[call] failed to build %s envelope: %v", kind, err)
		return
	}
	if err := c.send.Send(env); err != nil {
		log.Printf("[call] failed to send %s: %v", kind, err)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Peer returns the current peer identifier, empty outside a session.
func (c *Controller) Peer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// Pending returns a copy of the pending incoming call, if any.
func (c *Controller) Pending() *IncomingCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	pending := *c.pending
	return &pending
}

// Status returns the last user-visible status message.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LocalTracks returns the local media handles, nil when not capturing.
func (c *Controller) LocalTracks() []Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracks
}

// RemoteMedia returns the inbound media handle, nil until the engine
// surfaces one.
func (c *Controller) RemoteMedia() RemoteTrack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}
