package core

// Client is one live connection as seen by the hub.
//
// Identity is empty until the connection completes the hello exchange;
// it is written by the hub goroutine only. Transports must not read it
// while the hub is running.
type Client struct {
	ID       string
	Identity string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs an anonymous client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
	}
}
