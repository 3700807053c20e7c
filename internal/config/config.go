package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

// Queue backends.
const (
	QueueBackendEmbedded = "embedded"
	QueueBackendAMQP     = "amqp"
)

// Task metadata backends.
const (
	TaskBackendEmbedded = "embedded"
	TaskBackendRedis    = "redis"
	TaskBackendHTTP     = "http"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Namespace string        `json:"namespace" yaml:"namespace"`
	Queues    QueuesConfig  `json:"queues" yaml:"queues"`
	Tasks     TasksConfig   `json:"tasks" yaml:"tasks"`
	AMQP      AMQPConfig    `json:"amqp" yaml:"amqp"`
	Redis     RedisConfig   `json:"redis" yaml:"redis"`
	Server    ServerConfig  `json:"server" yaml:"server"`
	Log       logpkg.Config `json:"log" yaml:"log"`
}

// QueuesConfig names the two downstream chunk queues.
type QueuesConfig struct {
	Backend         string `json:"backend" yaml:"backend"`
	PrimaryQueue    string `json:"primaryQueue" yaml:"primaryQueue"`
	ComparisonQueue string `json:"comparisonQueue" yaml:"comparisonQueue"`
	// LeaseMs and MaxAttempts apply to the embedded queues only.
	LeaseMs     int64 `json:"leaseMs" yaml:"leaseMs"`
	MaxAttempts int   `json:"maxAttempts" yaml:"maxAttempts"`
}

// TasksConfig selects where task metadata is read from.
type TasksConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	// ServiceURL is the base URL of a remote task details service (backend=http).
	ServiceURL string        `json:"serviceURL" yaml:"serviceURL"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

type AMQPConfig struct {
	URL      string `json:"url" yaml:"url"`
	Exchange string `json:"exchange" yaml:"exchange"`
}

type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

type ServerConfig struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Namespace: "default",
		Queues: QueuesConfig{
			Backend:         QueueBackendEmbedded,
			PrimaryQueue:    "primary-file-chunks",
			ComparisonQueue: "comparison-file-chunks",
			LeaseMs:         30_000,
			MaxAttempts:     5,
		},
		Tasks: TasksConfig{
			Backend: TaskBackendEmbedded,
			Timeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "recon",
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
		},
		Log: logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Queues.PrimaryQueue == "" || c.Queues.ComparisonQueue == "" {
		return fmt.Errorf("config: both queue names are required")
	}
	if c.Queues.PrimaryQueue == c.Queues.ComparisonQueue {
		return fmt.Errorf("config: primary and comparison queues must differ")
	}
	switch c.Queues.Backend {
	case QueueBackendEmbedded:
	case QueueBackendAMQP:
		if c.AMQP.URL == "" {
			return fmt.Errorf("config: amqp.url is required for the amqp queue backend")
		}
	default:
		return fmt.Errorf("config: unknown queue backend %q", c.Queues.Backend)
	}
	switch c.Tasks.Backend {
	case TaskBackendEmbedded, TaskBackendRedis:
	case TaskBackendHTTP:
		if c.Tasks.ServiceURL == "" {
			return fmt.Errorf("config: tasks.serviceURL is required for the http task backend")
		}
	default:
		return fmt.Errorf("config: unknown task backend %q", c.Tasks.Backend)
	}
	return nil
}
