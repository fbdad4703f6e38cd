package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello            = "hello"
	InboundTypeChatMessage      = "chat message"
	InboundTypePrivateMessage   = "private message"
	InboundTypeCallOffer        = "call-offer"
	InboundTypeCallAnswer       = "call-answer"
	InboundTypeICECandidate     = "ice-candidate"
	InboundTypeEndCall          = "end-call"
	InboundTypeScreenShareStart = "screen-share-start"
	InboundTypeScreenShareEnd   = "screen-share-end"
	InboundTypeOnlineUsers      = "online-users"
	InboundTypePing             = "ping"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names. Call events mirror their inbound counterparts
// and carry `from` instead of `to`.
const (
	EventChatMessage        = "chat message"
	EventPrivateMessage     = "private message"
	EventIncomingCall       = "incoming-call"
	EventCallAnswered       = "call-answered"
	EventICECandidate       = "ice-candidate"
	EventCallEnded          = "call-ended"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareEnded   = "screen-share-ended"
	EventUserStatusChanged  = "user-status-changed"
	EventOnlineUsers        = "online-users"
	EventSystemNotification = "system-notification"
	EventPong               = "pong"
)

// HelloData is sent by the client to bind its verified identity. The
// token is the same JWT issued by the HTTP login endpoints; the routing
// identity comes from its claims.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// ChatMessageData is a global chat message from the client.
type ChatMessageData struct {
	Message string `json:"message"`
}

// PrivateMessageData is a direct message addressed to one user.
type PrivateMessageData struct {
	Receiver    string          `json:"receiver"`
	Message     string          `json:"message"`
	MessageType string          `json:"messageType,omitempty"`
	FileData    json.RawMessage `json:"fileData,omitempty"`
}

// CallOfferData starts a call: an opaque SDP offer for one identity.
type CallOfferData struct {
	To          string          `json:"to"`
	Offer       json.RawMessage `json:"offer"`
	IsVideoCall bool            `json:"isVideoCall"`
	CallID      string          `json:"callId"`
}

// CallAnswerData carries the SDP answer back to the caller.
type CallAnswerData struct {
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
	CallID string          `json:"callId"`
}

// ICECandidateData relays one ICE candidate to the counterpart.
type ICECandidateData struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
	CallID    string          `json:"callId"`
}

// CallControlData covers end-call and the screen share start/end pair.
type CallControlData struct {
	To     string `json:"to"`
	CallID string `json:"callId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventChatMessageData is a global chat message delivered to clients.
type EventChatMessageData struct {
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	TS        int64  `json:"ts"`
}

// EventPrivateMessageData is a direct message (or its sender echo).
type EventPrivateMessageData struct {
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver"`
	Message     string          `json:"message"`
	MessageType string          `json:"messageType"`
	FileData    json.RawMessage `json:"fileData,omitempty"`
	Timestamp   string          `json:"timestamp"`
	TS          int64           `json:"ts"`
}

// EventIncomingCallData delivers a relayed SDP offer.
type EventIncomingCallData struct {
	From        string          `json:"from"`
	Offer       json.RawMessage `json:"offer"`
	IsVideoCall bool            `json:"isVideoCall"`
	CallID      string          `json:"callId"`
}

// EventCallAnsweredData delivers a relayed SDP answer.
type EventCallAnsweredData struct {
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
	CallID string          `json:"callId"`
}

// EventICECandidateData delivers a relayed ICE candidate.
type EventICECandidateData struct {
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
	CallID    string          `json:"callId"`
}

// EventCallControlData covers call-ended and screen-share-started/ended.
type EventCallControlData struct {
	From   string `json:"from"`
	CallID string `json:"callId"`
}

// EventUserStatusData announces an identity going online or offline.
type EventUserStatusData struct {
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
}

// EventOnlineUsersData is the presence snapshot.
type EventOnlineUsersData struct {
	Users []string `json:"users"`
}

// EventNotificationData is an admin announcement.
type EventNotificationData struct {
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
	From    string `json:"from"`
	TS      int64  `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
