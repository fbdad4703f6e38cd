package core

import "testing"

func TestPresenceRegisterAndLookup(t *testing.T) {
	p := NewPresence()

	if got := p.Lookup("alice"); got != nil {
		t.Fatalf("expected nil for unknown identity, got %+v", got)
	}

	c1 := NewClient("c1")
	c1.Identity = "alice"
	p.Register("alice", c1)

	if got := p.Lookup("alice"); got != c1 {
		t.Fatalf("expected c1, got %+v", got)
	}
}

func TestPresenceReconnectKeepsNewestMapping(t *testing.T) {
	p := NewPresence()

	c1 := NewClient("c1")
	c1.Identity = "alice"
	c2 := NewClient("c2")
	c2.Identity = "alice"

	p.Register("alice", c1)
	p.Register("alice", c2)

	if got := p.Lookup("alice"); got != c2 {
		t.Fatalf("expected newest connection c2, got %s", got.ID)
	}

	// The stale connection disconnecting must not remove the newer one.
	if removed := p.Unregister(c1); removed {
		t.Fatal("unregistering stale connection removed the mapping")
	}
	if got := p.Lookup("alice"); got != c2 {
		t.Fatalf("mapping lost after stale unregister, got %+v", got)
	}

	if removed := p.Unregister(c2); !removed {
		t.Fatal("expected current connection unregister to remove mapping")
	}
	if got := p.Lookup("alice"); got != nil {
		t.Fatalf("expected empty table, got %+v", got)
	}
}

func TestPresenceUnregisterAnonymous(t *testing.T) {
	p := NewPresence()

	c := NewClient("c1")
	if removed := p.Unregister(c); removed {
		t.Fatal("anonymous connection must not remove anything")
	}
}

func TestPresenceIdentitiesSorted(t *testing.T) {
	p := NewPresence()
	for _, name := range []string{"mallory", "alice", "bob"} {
		c := NewClient(name)
		c.Identity = name
		p.Register(name, c)
	}

	got := p.Identities()
	want := []string{"alice", "bob", "mallory"}
	if len(got) != len(want) {
		t.Fatalf("expected %d identities, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
