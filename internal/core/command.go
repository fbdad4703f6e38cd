package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendGlobalMessage appends to the global log and broadcasts.
	CommandSendGlobalMessage CommandKind = iota
	// CommandSendPrivateMessage persists and routes a direct message.
	CommandSendPrivateMessage
	// CommandSendSignal relays a call signaling payload to its target.
	CommandSendSignal
	// CommandListOnlineUsers asks for the current presence snapshot.
	CommandListOnlineUsers
	// CommandPing requests a liveness reply.
	CommandPing
)

// Command represents an action requested by a client. Only the field
// matching Kind is populated.
type Command struct {
	Kind    CommandKind
	Message Message
	Signal  Signal
}
