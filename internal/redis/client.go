package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Piyush-Mishra-IIITB/socket/config"
	"github.com/redis/go-redis/v9"
)

const (
	endpointsKey = "relay:endpoints"
	mirrorTTL    = 24 * time.Hour
	opTimeout    = 2 * time.Second
)

// Mirror maintains a best-effort copy of the live endpoint set in a
// Redis set, for visibility from outside the relay process. Mirror
// failures are logged and otherwise ignored: the registry's in-memory
// set is authoritative.
type Mirror struct {
	client *redis.Client
}

// NewMirror connects to Redis and verifies the connection.
func NewMirror(cfg config.RedisConfig) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Mirror{client: client}, nil
}

// Add records id as live.
func (m *Mirror) Add(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.client.SAdd(ctx, endpointsKey, id).Err(); err != nil {
		log.Printf("presence mirror add failed: %v", err)
		return
	}
	m.client.Expire(ctx, endpointsKey, mirrorTTL)
}

// Remove records id as gone.
func (m *Mirror) Remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.client.SRem(ctx, endpointsKey, id).Err(); err != nil {
		log.Printf("presence mirror remove failed: %v", err)
	}
}

// Close closes the Redis connection.
func (m *Mirror) Close() error {
	return m.client.Close()
}
