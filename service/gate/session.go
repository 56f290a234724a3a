package gate

import (
	"sync"
	"time"
)

// DefaultFreshnessWindow is how long a chat session counts as actively
// viewed without a refresh.
const DefaultFreshnessWindow = 5 * time.Minute

type TrackerConf struct {
	FreshnessWindow time.Duration
	SweepEvery      time.Duration    // periodic eviction of stale entries
	Clock           func() time.Time // injectable for tests; nil => time.Now
}

func (c *TrackerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = DefaultFreshnessWindow
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = time.Minute
	}
}

type chatSession struct {
	userA        string
	userB        string
	lastActivity time.Time
	active       bool
}

// PeerActivity is one row of ActiveSessionsFor.
type PeerActivity struct {
	Peer         string
	LastActivity time.Time
}

// SessionTracker tracks which unordered user pairs are actively viewing a
// shared conversation. Staleness is derived on read; a background sweeper
// bounds memory by evicting entries already past the freshness window.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*chatSession

	conf     TrackerConf
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewSessionTracker() *SessionTracker {
	return NewSessionTrackerWithConf(TrackerConf{})
}

func NewSessionTrackerWithConf(conf TrackerConf) *SessionTracker {
	conf.norm()
	t := &SessionTracker{
		sessions: make(map[string]*chatSession),
		conf:     conf,
		stopCh:   make(chan struct{}),
	}
	go t.sweeper()
	return t
}

func (t *SessionTracker) Close() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// DyadKey returns the canonical, order-independent key for a user pair,
// so (a,b) and (b,a) resolve to the same session.
func DyadKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// MarkActive creates or refreshes the session for the pair.
func (t *SessionTracker) MarkActive(a, b string) {
	now := t.conf.Clock()
	key := DyadKey(a, b)

	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[key]
	if !ok {
		s = &chatSession{userA: a, userB: b}
		t.sessions[key] = s
	}
	s.lastActivity = now
	s.active = true
}

// MarkInactive deletes the session outright. An explicit leave is a hard
// delete: a later freshness check must find nothing.
func (t *SessionTracker) MarkInactive(a, b string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, DyadKey(a, b))
}

// IsActiveBetween reports whether the pair's session exists, is active,
// and is still inside the freshness window. Stale entries are treated as
// inactive but not evicted here; the sweeper handles eviction.
func (t *SessionTracker) IsActiveBetween(a, b string) bool {
	now := t.conf.Clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[DyadKey(a, b)]
	if !ok || !s.active {
		return false
	}
	return now.Sub(s.lastActivity) < t.conf.FreshnessWindow
}

// ActiveSessionsFor lists every fresh session involving user.
func (t *SessionTracker) ActiveSessionsFor(user string) []PeerActivity {
	now := t.conf.Clock()
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []PeerActivity
	for _, s := range t.sessions {
		if s.userA != user && s.userB != user {
			continue
		}
		if !s.active || now.Sub(s.lastActivity) >= t.conf.FreshnessWindow {
			continue
		}
		peer := s.userA
		if peer == user {
			peer = s.userB
		}
		out = append(out, PeerActivity{Peer: peer, LastActivity: s.lastActivity})
	}
	return out
}

// PurgeUser removes every session involving user and returns how many
// entries were dropped. Called on disconnect.
func (t *SessionTracker) PurgeUser(user string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for key, s := range t.sessions {
		if s.userA == user || s.userB == user {
			delete(t.sessions, key)
			n++
		}
	}
	return n
}

// Len reports the number of tracked entries, stale ones included.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *SessionTracker) sweeper() {
	tk := time.NewTicker(t.conf.SweepEvery)
	defer tk.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-tk.C:
			t.SweepOnce(t.conf.Clock())
		}
	}
}

// SweepOnce evicts entries past the freshness window. Read-time checks
// stay authoritative; this only bounds memory.
func (t *SessionTracker) SweepOnce(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for key, s := range t.sessions {
		if now.Sub(s.lastActivity) >= t.conf.FreshnessWindow {
			delete(t.sessions, key)
			n++
		}
	}
	return n
}
