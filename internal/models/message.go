package models

import "encoding/json"

// Kind represents the type of a relayed envelope
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindPresence     Kind = "presence"
	KindCallRequest  Kind = "call-request"
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindCandidate    Kind = "candidate"
	KindCallRejected Kind = "call-rejected"
	KindHangup       Kind = "hangup"
	KindChatMessage  Kind = "chat-message"
)

// Envelope is the wire unit exchanged with the relay. From is always
// overwritten by the relay with its own record of the sender, so a
// recipient can trust it.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an addressed envelope, marshaling payload in place.
func NewEnvelope(kind Kind, to string, payload any) (Envelope, error) {
	env := Envelope{Kind: kind, To: to}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		env.Payload = data
	}
	return env, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// IsSignaling reports whether the kind belongs to the call lifecycle
// (as opposed to presence bookkeeping or chat).
func (k Kind) IsSignaling() bool {
	switch k {
	case KindCallRequest, KindOffer, KindAnswer, KindCandidate, KindCallRejected, KindHangup:
		return true
	}
	return false
}
