package config

// Redis backs the shared rate-limit store and the response cache.  Both
// degrade gracefully when it is unreachable.

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings.  Addr wins over Host/Port.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func (l *loader) loadRedis() RedisConfig {
	addr := getenv("REDIS_ADDR", "")
	host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", "")
	if addr == "" && host != "" {
		if port == "" {
			port = "6379"
		}
		addr = net.JoinHostPort(host, port)
	}
	return RedisConfig{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       l.envInt("REDIS_DB", 0),
		TLS:      l.envBool("REDIS_TLS", false),
	}
}

// Enabled reports whether a Redis server is configured at all.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// NewRedisClient connects and pings the server with a short timeout.  The
// caller decides what to do without Redis.
func NewRedisClient(ctx context.Context, c RedisConfig) (*redis.Client, error) {
	var tlsConf *tls.Config
	if c.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      c.Addr,
		Password:  c.Password,
		DB:        c.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
