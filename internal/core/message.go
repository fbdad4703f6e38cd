package core

import (
	"encoding/json"
	"time"
)

// MessageKind distinguishes the global chat log from direct messages.
type MessageKind string

const (
	MessageKindGlobal  MessageKind = "global"
	MessageKindPrivate MessageKind = "private"
)

// Message content types carried in the messageType field.
const (
	MessageTypeText  = "text"
	MessageTypeFile  = "file"
	MessageTypeVoice = "voice"
)

// Message is the domain model for a chat message.
type Message struct {
	ID          int64
	Kind        MessageKind
	Sender      string
	Receiver    string // empty for global messages
	Text        string
	MessageType string
	FileData    json.RawMessage // opaque upload metadata, nil for plain text
	DisplayTime string          // locale-formatted wall clock, set when routed
	SentAt      time.Time
}
