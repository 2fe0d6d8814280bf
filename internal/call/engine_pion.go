package call

import (
	"fmt"
	"log"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
	"github.com/pion/webrtc/v4"
)

// localTrack is any Track backed by a pion local track.
type localTrack interface {
	Track
	Local() webrtc.TrackLocal
}

// PionFactory builds Engine instances backed by pion/webrtc.
type PionFactory struct {
	STUNServer string
}

// New creates a PeerConnection wired to cb. One engine per session.
func (f *PionFactory) New(cb Callbacks) (Engine, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{f.STUNServer}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			log.Printf("[webrtc] ICE gathering complete")
			return
		}
		init := candidate.ToJSON()
		out := models.ICECandidate{Candidate: init.Candidate}
		if init.SDPMid != nil {
			out.SDPMid = *init.SDPMid
		}
		if init.SDPMLineIndex != nil {
			out.SDPMLineIndex = *init.SDPMLineIndex
		}
		cb.OnICECandidate(out)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("[webrtc] peer connection state: %s", state.String())
		cb.OnConnectionStateChange(mapConnState(state))
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Printf("[webrtc] got track: kind=%s codec=%s", track.Kind(), track.Codec().MimeType)
		cb.OnRemoteTrack(&pionRemoteTrack{track: track})
	})

	return &pionEngine{pc: pc}, nil
}

type pionEngine struct {
	pc *webrtc.PeerConnection
}

func (e *pionEngine) CreateOffer() (models.SessionDescription, error) {
	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return models.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	return fromPionSD(offer), nil
}

func (e *pionEngine) CreateAnswer() (models.SessionDescription, error) {
	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return models.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}
	return fromPionSD(answer), nil
}

func (e *pionEngine) SetLocalDescription(sd models.SessionDescription) error {
	if err := e.pc.SetLocalDescription(toPionSD(sd)); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	return nil
}

func (e *pionEngine) SetRemoteDescription(sd models.SessionDescription) error {
	if err := e.pc.SetRemoteDescription(toPionSD(sd)); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

func (e *pionEngine) AddICECandidate(candidate models.ICECandidate) error {
	mid := candidate.SDPMid
	index := candidate.SDPMLineIndex
	init := webrtc.ICECandidateInit{
		Candidate:     candidate.Candidate,
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	}
	if err := e.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("add ice candidate: %w", err)
	}
	return nil
}

func (e *pionEngine) AddTrack(t Track) error {
	lt, ok := t.(localTrack)
	if !ok {
		return fmt.Errorf("track %s is not a pion local track", t.ID())
	}
	if _, err := e.pc.AddTrack(lt.Local()); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	return nil
}

func (e *pionEngine) Close() error {
	return e.pc.Close()
}

type pionRemoteTrack struct {
	track *webrtc.TrackRemote
}

func (t *pionRemoteTrack) ID() string   { return t.track.ID() }
func (t *pionRemoteTrack) Kind() string { return t.track.Kind().String() }

func fromPionSD(sd webrtc.SessionDescription) models.SessionDescription {
	return models.SessionDescription{Type: sd.Type.String(), SDP: sd.SDP}
}

func toPionSD(sd models.SessionDescription) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.NewSDPType(sd.Type), SDP: sd.SDP}
}

func mapConnState(state webrtc.PeerConnectionState) ConnState {
	switch state {
	case webrtc.PeerConnectionStateConnecting:
		return ConnConnecting
	case webrtc.PeerConnectionStateConnected:
		return ConnConnected
	case webrtc.PeerConnectionStateDisconnected:
		return ConnDisconnected
	case webrtc.PeerConnectionStateFailed:
		return ConnFailed
	case webrtc.PeerConnectionStateClosed:
		return ConnClosed
	}
	return ConnNew
}
