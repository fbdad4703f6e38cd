package core

// EventKind is a notification the hub emits to clients.
type EventKind int

const (
	// EventGlobalMessage delivers a global chat message.
	EventGlobalMessage EventKind = iota
	// EventPrivateMessage delivers a direct message (or its sender echo).
	EventPrivateMessage
	// EventIncomingCall delivers a relayed SDP offer.
	EventIncomingCall
	// EventCallAnswered delivers a relayed SDP answer.
	EventCallAnswered
	// EventICECandidate delivers a relayed ICE candidate.
	EventICECandidate
	// EventCallEnded tells the counterpart the call is over.
	EventCallEnded
	// EventScreenShareStarted announces a screen share in a call.
	EventScreenShareStarted
	// EventScreenShareEnded announces the screen share stopped.
	EventScreenShareEnded
	// EventUserStatusChanged announces an identity going online or offline.
	EventUserStatusChanged
	// EventOnlineUsers delivers the current presence snapshot.
	EventOnlineUsers
	// EventNotification delivers an admin announcement.
	EventNotification
	// EventPong answers a ping.
	EventPong
	// EventError notifies the client about a rejected command.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind         EventKind
	Message      Message
	Signal       Signal
	User         string // for EventUserStatusChanged
	Online       bool   // for EventUserStatusChanged
	Users        []string
	Notification *Notification
	Error        *CoreError
}
