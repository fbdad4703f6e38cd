package core

import "encoding/json"

// SignalKind identifies a call signaling payload relayed between two peers.
type SignalKind int

const (
	// SignalOffer carries an SDP offer to the callee.
	SignalOffer SignalKind = iota
	// SignalAnswer carries an SDP answer back to the caller.
	SignalAnswer
	// SignalICECandidate carries one ICE candidate to the counterpart.
	SignalICECandidate
	// SignalEndCall tells the counterpart the call is over.
	SignalEndCall
	// SignalScreenShareStart announces a screen share within a call.
	SignalScreenShareStart
	// SignalScreenShareEnd announces the screen share stopped.
	SignalScreenShareEnd
)

// Signal is an opaque signaling payload addressed to a single identity.
// The hub never looks inside Payload; SDP and ICE bytes are forwarded
// exactly as received. The hub keeps no record of the call either way:
// CallID is a caller-chosen correlation key, not a server resource.
type Signal struct {
	Kind        SignalKind
	From        string
	To          string
	CallID      string
	IsVideoCall bool
	Payload     json.RawMessage // SDP or ICE candidate; nil for end/screen-share
}
