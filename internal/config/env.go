package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays RECON_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("RECON_NAMESPACE", &cfg.Namespace)
	str("RECON_QUEUE_BACKEND", &cfg.Queues.Backend)
	str("RECON_PRIMARY_QUEUE", &cfg.Queues.PrimaryQueue)
	str("RECON_COMPARISON_QUEUE", &cfg.Queues.ComparisonQueue)
	str("RECON_TASK_BACKEND", &cfg.Tasks.Backend)
	str("RECON_TASK_SERVICE_URL", &cfg.Tasks.ServiceURL)
	str("RECON_AMQP_URL", &cfg.AMQP.URL)
	str("RECON_AMQP_EXCHANGE", &cfg.AMQP.Exchange)
	str("RECON_REDIS_ADDR", &cfg.Redis.Addr)
	str("RECON_REDIS_PASSWORD", &cfg.Redis.Password)
	str("RECON_REDIS_KEY_PREFIX", &cfg.Redis.KeyPrefix)
	str("RECON_HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("RECON_GRPC_ADDR", &cfg.Server.GRPCAddr)
	str("RECON_LOG_LEVEL", &cfg.Log.Level)
	str("RECON_LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("RECON_QUEUE_LEASE_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Queues.LeaseMs = n
		}
	}
	if v := os.Getenv("RECON_QUEUE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Queues.MaxAttempts = n
		}
	}
	if v := os.Getenv("RECON_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("RECON_TASK_SERVICE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Tasks.Timeout = d
		}
	}
}
