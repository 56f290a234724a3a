package dashboard

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"PPresence/logger"

	"github.com/nats-io/nats.go"
)

type NatsConf struct {
	URLs          []string
	Name          string
	Subject       string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NatsIngest subscribes to the producer subject and relays every update
// into the broadcaster.
type NatsIngest struct {
	cfg NatsConf
	nc  *nats.Conn
	sub *nats.Subscription
	b   Broadcaster
}

func NewNatsIngest(cfg NatsConf, b Broadcaster) (*NatsIngest, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.Subject == "" {
		cfg.Subject = "dashboard.events"
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, err
	}
	return &NatsIngest{cfg: cfg, nc: nc, b: b}, nil
}

func (n *NatsIngest) Start() error {
	sub, err := n.nc.Subscribe(n.cfg.Subject, func(msg *nats.Msg) {
		var u Update
		if err := json.Unmarshal(msg.Data, &u); err != nil {
			logger.Warnf("[dashboard] bad update on %s: %v", msg.Subject, err)
			return
		}
		if u.Type == "" {
			logger.Warnf("[dashboard] update without type on %s", msg.Subject)
			return
		}
		relay(n.b, u)
	})
	if err != nil {
		return err
	}
	n.sub = sub
	logger.Infof("[dashboard] subscribed subject=%s", n.cfg.Subject)
	return nil
}

func (n *NatsIngest) Close() {
	if n.sub != nil {
		_ = n.sub.Drain()
	}
	if n.nc != nil {
		_ = n.nc.Drain()
	}
}
