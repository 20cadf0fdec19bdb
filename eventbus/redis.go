package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBridgeOptions configures RedisBridge: dial/pool settings and a
// channel name. NewRedisBridge pings the server before returning, with
// a remediation hint attached on failure.
type RedisBridgeOptions struct {
	Addr         string
	Password     string
	DB           int
	Channel      string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisBridge republishes every event a Bus emits onto a Redis pub/sub
// channel, letting other processes observe the same event stream. It
// does not participate in local delivery or buffering; it is a passive
// subscriber of the Bus like any other.
type RedisBridge struct {
	client  *redis.Client
	channel string
}

// NewRedisBridge connects to Redis and verifies reachability before
// returning, failing fast rather than deferring the error to first use.
func NewRedisBridge(ctx context.Context, opts RedisBridgeOptions) (*RedisBridge, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if opts.Channel == "" {
		opts.Channel = "agentcore:events"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w\n\n"+
			"Fix:\n"+
			"  1. Check Redis is running: redis-cli ping\n"+
			"  2. Verify the address: %s\n"+
			"  3. Check firewall/network settings\n", err, opts.Addr)
	}

	return &RedisBridge{client: client, channel: opts.Channel}, nil
}

// Forward subscribes to every event published on bus and republishes its JSON
// encoding to Redis. Returns the unsubscribe function from Bus.Subscribe.
func (r *RedisBridge) Forward(bus *Bus) func() {
	return bus.Subscribe(SubscribeOptions{
		Handler: func(ctx context.Context, e Event) error {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("eventbus: failed to marshal event for redis: %w", err)
			}
			return r.client.Publish(ctx, r.channel, payload).Err()
		},
	})
}

// Close releases the underlying Redis connection.
func (r *RedisBridge) Close() error {
	return r.client.Close()
}
