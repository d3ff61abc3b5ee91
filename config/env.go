package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides cfg from FICORE_* variables read through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	var errs []string
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}

	str("FICORE_ADDR", &cfg.Server.Addr)
	list("FICORE_ALLOWED_ORIGINS", &cfg.Server.AllowedOrigins)
	duration("FICORE_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	boolean("FICORE_DISABLE_METRICS", &cfg.Server.DisableMetrics)

	str("FICORE_STORE_DRIVER", &cfg.Store.Driver)
	str("FICORE_SQLITE_PATH", &cfg.Store.SQLitePath)
	str("FICORE_POSTGRES_DSN", &cfg.Store.PostgresDSN)
	str("FICORE_MONGO_URI", &cfg.Store.MongoURI)
	str("FICORE_MONGO_DATABASE", &cfg.Store.MongoDatabase)
	boolean("FICORE_DISABLE_MIGRATE", &cfg.Store.DisableMigrate)

	str("FICORE_JWT_SECRET", &cfg.Auth.Secret)
	str("FICORE_JWT_ISSUER", &cfg.Auth.Issuer)
	duration("FICORE_TOKEN_TTL", &cfg.Auth.TokenTTL)

	str("FICORE_REDIS_ADDR", &cfg.Cache.Addr)
	str("FICORE_REDIS_PASSWORD", &cfg.Cache.Password)
	integer("FICORE_REDIS_DB", &cfg.Cache.DB)
	duration("FICORE_CACHE_TTL", &cfg.Cache.TTL)

	list("FICORE_KAFKA_BROKERS", &cfg.Events.Brokers)
	str("FICORE_KAFKA_TOPIC", &cfg.Events.Topic)
	str("FICORE_KAFKA_USERNAME", &cfg.Events.Username)
	str("FICORE_KAFKA_PASSWORD", &cfg.Events.Password)
	boolean("FICORE_KAFKA_TLS", &cfg.Events.TLS)
	boolean("FICORE_PUBLISH_AUDIT", &cfg.Events.PublishAudit)
	list("FICORE_AUDIT_SKIP", &cfg.Events.AuditSkip)
	str("FICORE_AUDIT_MIN_SEVERITY", &cfg.Events.AuditMinSeverity)

	str("FICORE_LOG_LEVEL", &cfg.Log.Level)
	str("FICORE_LOG_FORMAT", &cfg.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
