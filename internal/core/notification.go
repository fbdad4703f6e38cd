package core

import "time"

// Notification is an admin announcement pushed to connected clients.
// Target narrows delivery to one identity; empty means broadcast.
type Notification struct {
	ID        int64
	Title     string
	Body      string
	Sender    string
	Target    string
	CreatedAt time.Time
}
