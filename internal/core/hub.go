package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/store"
)

type clientCommand struct {
	client *Client
	cmd    *Command
}

type identifyRequest struct {
	client   *Client
	identity string
}

// Hub owns the presence table and the message log and routes every
// inbound event to persistence and/or target connections.
//
// All shared state is confined to the Run goroutine; transports talk to
// the hub exclusively through channels, so two concurrent registrations
// for the same identity can never interleave.
type Hub struct {
	store store.Store // nil disables persistence
	log   zerolog.Logger

	register      chan *Client
	unregister    chan *Client
	identities    chan identifyRequest
	commands      chan clientCommand
	queries       chan chan []string
	notifications chan *Notification

	clients  map[*Client]struct{}
	presence *Presence
}

// NewHub creates a hub. Pass a nil store to disable persistence and a
// nil logger to silence logging (both useful in tests).
func NewHub(st store.Store, logger *zerolog.Logger) *Hub {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Hub{
		store:         st,
		log:           l,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		identities:    make(chan identifyRequest),
		commands:      make(chan clientCommand),
		queries:       make(chan chan []string),
		notifications: make(chan *Notification),
		clients:       make(map[*Client]struct{}),
		presence:      NewPresence(),
	}
}

// RegisterClient adds a new anonymous connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient removes a connection. In-flight events already
// dispatched to other clients are not recalled.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// IdentifyClient binds a verified identity to the connection. The
// identity must come from a validated session token, never from a
// client-supplied display name.
func (h *Hub) IdentifyClient(c *Client, identity string) {
	h.identities <- identifyRequest{client: c, identity: identity}
}

// PublishNotification fans an admin announcement out to its target, or
// to everyone when the target is empty.
func (h *Hub) PublishNotification(n *Notification) {
	h.notifications <- n
}

// OnlineUsers returns a snapshot of identities with a live connection.
func (h *Hub) OnlineUsers(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	select {
	case h.queries <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case users := <-reply:
		return users, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run processes hub traffic until the context is cancelled. It must be
// running before clients are registered.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.dropClient(c)
		case req := <-h.identities:
			h.handleIdentify(req.client, req.identity)
		case cc := <-h.commands:
			h.handleCommand(ctx, cc.client, cc.cmd)
		case reply := <-h.queries:
			reply <- h.presence.Identities()
		case n := <-h.notifications:
			h.handleNotification(n)
		case <-ctx.Done():
			return
		}
	}
}

// pump feeds one client's commands into the shared hub stream, keeping
// per-client arrival order.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for cmd := range c.Commands {
		select {
		case h.commands <- clientCommand{client: c, cmd: cmd}:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleIdentify(c *Client, identity string) {
	if identity == "" {
		return
	}
	if _, ok := h.clients[c]; !ok {
		return
	}
	if c.Identity != "" && c.Identity != identity {
		// Re-hello under a new identity releases the old mapping.
		if h.presence.Unregister(c) {
			h.broadcast(&Event{Kind: EventUserStatusChanged, User: c.Identity, Online: false})
		}
	}
	c.Identity = identity
	// Overwrites any previous connection for this identity. The stale
	// connection is not closed; it simply stops being a routing target.
	h.presence.Register(identity, c)

	h.log.Debug().Str("client_id", c.ID).Str("identity", identity).Msg("client identified")

	h.broadcast(&Event{Kind: EventUserStatusChanged, User: identity, Online: true})
	h.send(c, &Event{Kind: EventOnlineUsers, Users: h.presence.Identities()})
}

func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	// Only the connection that still owns the presence entry takes the
	// identity offline; a replaced connection disconnecting must not.
	if h.presence.Unregister(c) {
		h.broadcast(&Event{Kind: EventUserStatusChanged, User: c.Identity, Online: false})
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if c.Identity == "" {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeNotIdentified, "send hello first")})
		return
	}

	switch cmd.Kind {
	case CommandSendGlobalMessage:
		h.handleGlobalMessage(ctx, c, cmd.Message)
	case CommandSendPrivateMessage:
		h.handlePrivateMessage(ctx, c, cmd.Message)
	case CommandSendSignal:
		h.handleSignal(c, cmd.Signal)
	case CommandListOnlineUsers:
		h.send(c, &Event{Kind: EventOnlineUsers, Users: h.presence.Identities()})
	case CommandPing:
		h.send(c, &Event{Kind: EventPong})
	default:
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) handleGlobalMessage(ctx context.Context, c *Client, msg Message) {
	h.stampMessage(c, &msg, MessageKindGlobal)
	msg.Receiver = ""

	h.persist(ctx, &msg)
	h.broadcast(&Event{Kind: EventGlobalMessage, Message: msg})
}

func (h *Hub) handlePrivateMessage(ctx context.Context, c *Client, msg Message) {
	h.stampMessage(c, &msg, MessageKindPrivate)

	// Persisted regardless of the receiver being online, so the message
	// shows up in history fetches even when real-time delivery misses.
	h.persist(ctx, &msg)

	ev := &Event{Kind: EventPrivateMessage, Message: msg}
	if target := h.presence.Lookup(msg.Receiver); target != nil && target != c {
		h.send(target, ev)
	}
	// Sender always gets an echo of its own message.
	h.send(c, ev)
}

func (h *Hub) handleSignal(c *Client, sig Signal) {
	sig.From = c.Identity

	target := h.presence.Lookup(sig.To)
	if target == nil {
		// Routing miss: dropped silently, the caller detects it via its
		// own timeout.
		h.log.Debug().
			Str("from", sig.From).
			Str("to", sig.To).
			Str("call_id", sig.CallID).
			Msg("signal target offline, dropped")
		return
	}

	h.send(target, &Event{Kind: signalEventKind(sig.Kind), Signal: sig})
}

func (h *Hub) handleNotification(n *Notification) {
	ev := &Event{Kind: EventNotification, Notification: n}
	if n.Target != "" {
		if target := h.presence.Lookup(n.Target); target != nil {
			h.send(target, ev)
		}
		return
	}
	h.broadcast(ev)
}

// stampMessage fills the routing-owned fields: sender identity and the
// arrival timestamps.
func (h *Hub) stampMessage(c *Client, msg *Message, kind MessageKind) {
	now := time.Now()
	msg.Kind = kind
	msg.Sender = c.Identity
	msg.SentAt = now
	msg.DisplayTime = now.Format("15:04:05")
	if msg.MessageType == "" {
		msg.MessageType = MessageTypeText
	}
}

// persist writes the message through to durable storage. Failures are
// logged and never surfaced to the sender; the in-memory dispatch
// proceeds either way.
func (h *Hub) persist(ctx context.Context, msg *Message) {
	if h.store == nil {
		return
	}
	rec := &store.Message{
		Kind:        store.MessageKind(msg.Kind),
		Sender:      msg.Sender,
		Receiver:    msg.Receiver,
		Body:        msg.Text,
		MessageType: msg.MessageType,
		FileData:    []byte(msg.FileData),
		DisplayTime: msg.DisplayTime,
		CreatedAt:   msg.SentAt,
	}
	if err := h.store.SaveMessage(ctx, rec); err != nil {
		h.log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("save message")
		return
	}
	msg.ID = rec.ID
}

func (h *Hub) broadcast(ev *Event) {
	for c := range h.clients {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
		h.log.Debug().Str("client_id", c.ID).Msg("event dropped, slow consumer")
	}
}

func signalEventKind(k SignalKind) EventKind {
	switch k {
	case SignalOffer:
		return EventIncomingCall
	case SignalAnswer:
		return EventCallAnswered
	case SignalICECandidate:
		return EventICECandidate
	case SignalEndCall:
		return EventCallEnded
	case SignalScreenShareStart:
		return EventScreenShareStarted
	default:
		return EventScreenShareEnded
	}
}
