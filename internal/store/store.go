package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// MessageKind distinguishes the global log from direct messages.
type MessageKind string

const (
	MessageKindGlobal  MessageKind = "global"
	MessageKindPrivate MessageKind = "private"
)

// Message represents a persisted chat message. The log is append-only;
// the autoincrement ID doubles as arrival order.
type Message struct {
	ID          int64
	Kind        MessageKind
	Sender      string
	Receiver    string // empty for global messages
	Body        string
	MessageType string // text, file or voice
	FileData    []byte // raw upload-metadata JSON, nil when absent
	DisplayTime string // locale-formatted wall clock recorded at send time
	CreatedAt   time.Time
}

// Conversation summarizes a private thread for the conversation list.
type Conversation struct {
	Username  string // the counterpart
	LastBody  string
	LastType  string
	LastIsOwn bool
	LastAt    time.Time
}

// Notification represents a persisted admin announcement.
// Target narrows it to one username; empty means broadcast.
type Notification struct {
	ID        int64
	Title     string
	Body      string
	Sender    string
	Target    string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers searches for users by username substring.
	SearchUsers(ctx context.Context, query string) ([]*User, error)

	// ListUsers lists all registered users.
	ListUsers(ctx context.Context) ([]*User, error)
}

// MessageStore handles the chat log.
type MessageStore interface {
	// SaveMessage appends a message to the log and sets msg.ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListGlobalMessages returns the global log in arrival order.
	// A positive limit returns only the most recent messages, still
	// oldest first.
	ListGlobalMessages(ctx context.Context, limit int) ([]*Message, error)

	// ListPrivateMessages returns the private thread between two users,
	// in arrival order, regardless of direction.
	ListPrivateMessages(ctx context.Context, userA, userB string) ([]*Message, error)

	// ListConversations summarizes the private threads a user is part
	// of, most recently active first.
	ListConversations(ctx context.Context, username string) ([]*Conversation, error)
}

// NotificationStore handles admin announcements.
type NotificationStore interface {
	// SaveNotification persists a notification and sets n.ID.
	SaveNotification(ctx context.Context, n *Notification) error

	// ListNotifications returns broadcasts plus notifications targeted
	// at username, newest first.
	ListNotifications(ctx context.Context, username string) ([]*Notification, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	NotificationStore

	// Close closes the underlying database connection.
	Close() error
}
