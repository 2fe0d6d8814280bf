package call

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// TrackSource is a MediaSource producing pion sample tracks, one audio
// and one video. It is the seam where a capture backend writes its
// samples; the controller only sees opaque Track handles.
type TrackSource struct {
	mu     sync.Mutex
	tracks []Track
}

func NewTrackSource() *TrackSource {
	return &TrackSource{}
}

// Start creates the local tracks. Repeated calls return the same
// handles until Stop.
func (s *TrackSource) Start() ([]Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracks != nil {
		return s.tracks, nil
	}

	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", "capture-audio",
	)
	if err != nil {
		return nil, fmt.Errorf("create audio track: %w", err)
	}
	video, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"video", "capture-video",
	)
	if err != nil {
		return nil, fmt.Errorf("create video track: %w", err)
	}

	s.tracks = []Track{
		&sampleTrack{track: audio},
		&sampleTrack{track: video},
	}
	return s.tracks, nil
}

// Stop releases the track handles. A later Start creates fresh ones.
func (s *TrackSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = nil
}

type sampleTrack struct {
	track *webrtc.TrackLocalStaticSample
}

func (t *sampleTrack) ID() string { return t.track.ID() }

func (t *sampleTrack) Local() webrtc.TrackLocal { return t.track }
