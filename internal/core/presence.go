package core

import "sort"

// Presence maps a routing identity to its live connection.
//
// At most one connection per identity at any instant. A reconnect
// overwrites the entry; the stale connection loses routing reachability
// but stays open until it disconnects on its own.
//
// Presence is owned by the hub goroutine and is not safe for concurrent
// use on its own.
type Presence struct {
	byIdentity map[string]*Client
}

// NewPresence constructs an empty presence table.
func NewPresence() *Presence {
	return &Presence{byIdentity: make(map[string]*Client)}
}

// Register inserts or overwrites the mapping for identity.
func (p *Presence) Register(identity string, c *Client) {
	p.byIdentity[identity] = c
}

// Unregister removes the client's mapping, but only when the stored
// connection is still this one. A newer registration for the same
// identity must survive the old connection's disconnect. Reports whether
// an entry was removed.
func (p *Presence) Unregister(c *Client) bool {
	if c.Identity == "" {
		return false
	}
	cur, ok := p.byIdentity[c.Identity]
	if !ok || cur != c {
		return false
	}
	delete(p.byIdentity, c.Identity)
	return true
}

// Lookup returns the current connection for identity, or nil.
func (p *Presence) Lookup(identity string) *Client {
	return p.byIdentity[identity]
}

// Identities returns the identities currently online, sorted.
func (p *Presence) Identities() []string {
	out := make([]string, 0, len(p.byIdentity))
	for identity := range p.byIdentity {
		out = append(out, identity)
	}
	sort.Strings(out)
	return out
}
