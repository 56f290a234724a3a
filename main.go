package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"PPresence/global/config"
	"PPresence/logger"
	"PPresence/service/dashboard"
	"PPresence/service/directory"
	"PPresence/service/gate"
	"PPresence/service/gate/handlers"
	"PPresence/service/notify"
	"PPresence/service/storage"
	"PPresence/tools/ids"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("[boot] load config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)
	ids.SetNodeID(cfg.NodeID)

	var dir directory.Directory
	switch cfg.Directory.Mode {
	case "http":
		dir = directory.NewHTTPDirectory(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	default:
		dir = directory.NewLocalDirectory([]byte(cfg.Directory.JWTSecret))
	}

	var presence gate.PresenceMirror = gate.NoopPresence{}
	var notifLog notify.NotificationLog
	if cfg.Redis.Addr != "" {
		rdb, err := storage.NewRedisClient(storage.RedisConf{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Errorf("[boot] redis: %v", err)
			os.Exit(1)
		}
		presence = storage.NewPresenceStore(rdb, strconv.FormatInt(cfg.NodeID, 10), 2*cfg.FreshnessWindow)
		notifLog = storage.NewRedisNotificationLog(rdb, "")
	}

	var provider notify.PushProvider = noopProvider{}
	if cfg.Push.URL != "" {
		provider = notify.NewHTTPPushProvider(cfg.Push.URL, cfg.Push.Timeout)
	}
	notifier := notify.NewDispatcher(provider, notifLog, dir)

	srv := gate.NewServer(gate.ServerConf{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		SendQueueSize:   cfg.SendQueueSize,
		FreshnessWindow: cfg.FreshnessWindow,
		SweepEvery:      cfg.SweepEvery,
		FanoutWorkers:   cfg.FanoutWorkers,
		FanoutQueue:     cfg.FanoutQueue,
	}, dir, notifier, presence)
	handlers.RegisterAll(srv)

	var natsIngest *dashboard.NatsIngest
	if len(cfg.Nats.URLs) > 0 {
		natsIngest, err = dashboard.NewNatsIngest(dashboard.NatsConf{
			URLs:    cfg.Nats.URLs,
			Name:    cfg.Nats.Name,
			Subject: cfg.Nats.Subject,
		}, srv)
		if err != nil {
			logger.Errorf("[boot] nats: %v", err)
			os.Exit(1)
		}
		if err := natsIngest.Start(); err != nil {
			logger.Errorf("[boot] nats subscribe: %v", err)
			os.Exit(1)
		}
	}

	engine := newRouter(srv)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	go func() {
		logger.Infof("[boot] listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[boot] http server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("[boot] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	if natsIngest != nil {
		natsIngest.Close()
	}
	srv.Close()
}

// noopProvider stands in when no push gateway is configured; dispatch
// degrades to log-only.
type noopProvider struct{}

func (noopProvider) Send(_ context.Context, _, title, _ string, _ map[string]string) (string, error) {
	logger.Debugf("[notify] noop provider, dropping push title=%q", title)
	return "", nil
}
