package gate

import (
	"sync"
)

// Registry is the bidirectional user <-> connection mapping. At most one
// live client per user: a later Register for the same user evicts the
// older client from both indexes under the same lock.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client // user -> client
	byConn map[string]*Client // conn_id -> client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Register installs the mapping for userID and returns the evicted client
// when an older connection was superseded, nil otherwise. The evicted
// transport is not closed here; its own lifecycle tears it down and its
// disconnect resolves to a no-op because it is no longer indexed.
func (r *Registry) Register(userID string, c *Client) (evicted *Client) {
	if userID == "" || c == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok && old.ConnID != c.ConnID {
		delete(r.byConn, old.ConnID)
		evicted = old
	}
	r.byUser[userID] = c
	r.byConn[c.ConnID] = c
	return evicted
}

// Unregister removes the entry keyed by connID and its reverse mapping.
// No-op if absent or if the user index already points at a newer client.
func (r *Registry) Unregister(connID string) {
	if connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	if u := c.User(); u != "" {
		if cur, ok := r.byUser[u]; ok && cur.ConnID == connID {
			delete(r.byUser, u)
		}
	}
}

func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

func (r *Registry) ByConnID(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	return c, ok
}

// Snapshot returns all registered clients, for fan-out.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

func (r *Registry) ConnectedUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
