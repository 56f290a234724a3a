package gate

import (
	"context"
	"time"

	"PPresence/logger"
	"PPresence/service/directory"
	"PPresence/tools/safe"
)

// PresenceMirror is the best-effort write-through of online state to an
// external store, for operational visibility only. Routing decisions
// never read it.
type PresenceMirror interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
}

// NoopPresence is wired when no external store is configured.
type NoopPresence struct{}

func (NoopPresence) Online(context.Context, string) error  { return nil }
func (NoopPresence) Offline(context.Context, string) error { return nil }

type ServerConf struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendQueueSize   int

	FreshnessWindow time.Duration
	SweepEvery      time.Duration

	FanoutWorkers int
	FanoutQueue   int

	Clock func() time.Time
}

func (c *ServerConf) norm() {
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 4096
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 4096
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Server owns the presence core: registry, session tracker, delivery
// engine, fan-out, and the event dispatcher.
type Server struct {
	conf     ServerConf
	reg      *Registry
	sessions *SessionTracker
	fanout   *Fanout
	disp     *Dispatcher
	engine   *DeliveryEngine
	notifier Notifier
	dir      directory.Directory
	presence PresenceMirror
}

func NewServer(conf ServerConf, dir directory.Directory, notifier Notifier, presence PresenceMirror) *Server {
	conf.norm()
	if presence == nil {
		presence = NoopPresence{}
	}
	reg := NewRegistry()
	sessions := NewSessionTrackerWithConf(TrackerConf{
		FreshnessWindow: conf.FreshnessWindow,
		SweepEvery:      conf.SweepEvery,
		Clock:           conf.Clock,
	})
	s := &Server{
		conf:     conf,
		reg:      reg,
		sessions: sessions,
		fanout:   NewFanout(conf.FanoutWorkers, conf.FanoutQueue),
		disp:     NewDispatcher(),
		notifier: notifier,
		dir:      dir,
		presence: presence,
	}
	s.engine = NewDeliveryEngine(reg, sessions, notifier)
	return s
}

func (s *Server) Registry() *Registry            { return s.reg }
func (s *Server) Sessions() *SessionTracker      { return s.sessions }
func (s *Server) Disp() *Dispatcher              { return s.disp }
func (s *Server) Engine() *DeliveryEngine        { return s.engine }
func (s *Server) Directory() directory.Directory { return s.dir }
func (s *Server) Conf() ServerConf               { return s.conf }
func (s *Server) Presence() PresenceMirror       { return s.presence }

func (s *Server) DispatchFrame(f *Frame, c *Client) error {
	return s.disp.Dispatch(&Context{S: s}, f, c)
}

// BroadcastAll pushes a dashboard update to every connected client: once
// through the fan-out pool over a registry snapshot, then an explicit
// per-user send keyed by registry lookup. The double path defends against
// partial group-delivery; clients must treat updates as re-fetch hints,
// so the duplicate is harmless.
func (s *Server) BroadcastAll(updateType string, payload any) {
	data, err := EncodeEnvelope(BuildDashboardUpdate(updateType, payload))
	if err != nil {
		logger.Errorf("[broadcast] encode update type=%s: %v", updateType, err)
		return
	}
	s.fanout.Broadcast(s.reg.Snapshot(), data)

	for _, user := range s.reg.ConnectedUsers() {
		if c, ok := s.reg.Lookup(user); ok {
			_ = c.Enqueue(data)
		}
	}
}

// SendToUser pushes a dashboard update to one user, reporting whether a
// live connection existed.
func (s *Server) SendToUser(userID, updateType string, payload any) bool {
	c, ok := s.reg.Lookup(userID)
	if !ok {
		return false
	}
	data, err := EncodeEnvelope(BuildDashboardUpdate(updateType, payload))
	if err != nil {
		logger.Errorf("[broadcast] encode update type=%s: %v", updateType, err)
		return false
	}
	_ = c.Enqueue(data)
	return true
}

// OnDisconnect purges all state for the connection's user and notifies
// the peers that had a fresh session with them, captured before the
// purge. Historical behavior notified every connected user; that scope
// was narrowed deliberately and is asserted by tests.
func (s *Server) OnDisconnect(connID string) {
	c, ok := s.reg.ByConnID(connID)
	if !ok {
		// Superseded or never joined.
		return
	}
	user := c.User()
	if user == "" {
		s.reg.Unregister(connID)
		return
	}

	peers := s.sessions.ActiveSessionsFor(user)
	s.reg.Unregister(connID)
	purged := s.sessions.PurgeUser(user)
	logger.Infof("[gate] disconnect user=%s conn=%s purged_sessions=%d", user, connID, purged)

	env := BuildUserDisconnected(user)
	for _, pa := range peers {
		if pc, ok := s.reg.Lookup(pa.Peer); ok {
			if err := pc.SendEnvelope(env); err != nil {
				logger.Warnf("[gate] notify peer=%s of disconnect: %v", pa.Peer, err)
			}
		}
	}

	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.presence.Offline(ctx, user); err != nil {
			logger.Warnf("[gate] presence offline user=%s: %v", user, err)
		}
	})
}

func (s *Server) Close() {
	s.sessions.Close()
	s.fanout.Close()
	for _, c := range s.reg.Snapshot() {
		c.Close()
	}
}
