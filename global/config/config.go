package config

import (
	"time"

	"github.com/spf13/viper"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NatsConfig struct {
	URLs    []string
	Name    string
	Subject string // dashboard producer subject
}

type DirectoryConfig struct {
	// Mode "http" validates tokens against an external auth service,
	// "local" verifies HMAC JWTs in-process (dev / tests).
	Mode      string
	BaseURL   string
	Timeout   time.Duration
	JWTSecret string
}

type PushConfig struct {
	URL     string
	Timeout time.Duration
}

type AppConfig struct {
	HTTPAddr string
	NodeID   int64

	ReadBufferSize  int
	WriteBufferSize int
	SendQueueSize   int

	FreshnessWindow time.Duration // session staleness cutoff
	SweepEvery      time.Duration // session sweep period

	FanoutWorkers int
	FanoutQueue   int

	Redis     RedisConfig
	Nats      NatsConfig
	Directory DirectoryConfig
	Push      PushConfig

	LogLevel string
}

// Load reads configuration from environment (prefix PPRESENCE_) over an
// optional yaml file pointed at by PPRESENCE_CONFIG. Defaults are complete
// enough to boot without either.
func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8090")
	v.SetDefault("node_id", 1)
	v.SetDefault("read_buffer_size", 4096)
	v.SetDefault("write_buffer_size", 4096)
	v.SetDefault("send_queue_size", 256)
	v.SetDefault("freshness_window", "5m")
	v.SetDefault("sweep_every", "1m")
	v.SetDefault("fanout_workers", 4)
	v.SetDefault("fanout_queue", 1024)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("nats.urls", []string{})
	v.SetDefault("nats.name", "ppresence")
	v.SetDefault("nats.subject", "dashboard.events")
	v.SetDefault("directory.mode", "local")
	v.SetDefault("directory.base_url", "")
	v.SetDefault("directory.timeout", "3s")
	v.SetDefault("directory.jwt_secret", "dev-secret")
	v.SetDefault("push.url", "")
	v.SetDefault("push.timeout", "5s")
	v.SetDefault("log_level", "debug")

	v.SetEnvPrefix("PPRESENCE")
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &AppConfig{
		HTTPAddr:        v.GetString("http_addr"),
		NodeID:          v.GetInt64("node_id"),
		ReadBufferSize:  v.GetInt("read_buffer_size"),
		WriteBufferSize: v.GetInt("write_buffer_size"),
		SendQueueSize:   v.GetInt("send_queue_size"),
		FreshnessWindow: v.GetDuration("freshness_window"),
		SweepEvery:      v.GetDuration("sweep_every"),
		FanoutWorkers:   v.GetInt("fanout_workers"),
		FanoutQueue:     v.GetInt("fanout_queue"),
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Nats: NatsConfig{
			URLs:    v.GetStringSlice("nats.urls"),
			Name:    v.GetString("nats.name"),
			Subject: v.GetString("nats.subject"),
		},
		Directory: DirectoryConfig{
			Mode:      v.GetString("directory.mode"),
			BaseURL:   v.GetString("directory.base_url"),
			Timeout:   v.GetDuration("directory.timeout"),
			JWTSecret: v.GetString("directory.jwt_secret"),
		},
		Push: PushConfig{
			URL:     v.GetString("push.url"),
			Timeout: v.GetDuration("push.timeout"),
		},
		LogLevel: v.GetString("log_level"),
	}
	return cfg, nil
}
