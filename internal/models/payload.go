package models

// SessionDescription carries an SDP offer or answer between peers. The
// relay never inspects it.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// ICECandidate carries one network-reachability candidate.
type ICECandidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex"`
}

// CallRequest is the payload of a call-request envelope.
type CallRequest struct {
	Offer SessionDescription `json:"offer"`
}

// ChatMessage is the payload of a chat-message envelope.
type ChatMessage struct {
	Text string `json:"text"`
}

// Presence carries the full live endpoint set. Clients reconcile from
// this snapshot rather than applying diffs.
type Presence struct {
	Endpoints []string `json:"endpoints"`
}

// Welcome tells a freshly connected client its assigned endpoint id.
type Welcome struct {
	ID string `json:"id"`
}
