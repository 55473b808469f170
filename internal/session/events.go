package session

import "slices"

// EventType names a session change.
type EventType string

const (
	SignedIn       EventType = "signed_in"
	SignedOut      EventType = "signed_out"
	TokenRefreshed EventType = "token_refreshed"
	SignedUp       EventType = "signed_up"
)

// Event is delivered to every listener, in subscription order, on the
// goroutine that published it.
type Event struct {
	Type    EventType
	Session *Session
	// CartID is the anonymous cart id the client sent along, if any.
	CartID string
}

type Listener func(Event)

// Subscribe registers fn and returns a func that removes it.
func (g *Gate) Subscribe(fn Listener) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// Publish notifies listeners of e.
func (g *Gate) Publish(e Event) {
	g.mu.RLock()
	ids := make([]int, 0, len(g.listeners))
	for id := range g.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, g.listeners[id])
	}
	g.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
