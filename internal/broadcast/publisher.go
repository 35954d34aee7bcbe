// Package broadcast is the optional cross-process invalidation fan-out
// of §4.7: a best-effort Redis pub/sub hint that a world's monitor
// generation has advanced, plus a bounded LRU wrapper around a
// caller-supplied group_by callback. Neither piece ever blocks or is
// treated as a cache-correctness dependency — the in-process cache never
// waits on Redis and never fails because Redis is unreachable.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis connection settings for the publisher.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Channel  string        `mapstructure:"channel"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns sane defaults for local development.
func DefaultConfig() Config {
	return Config{
		Addr:    "localhost:6379",
		Channel: "ecscache:generation",
		Timeout: 2 * time.Second,
	}
}

// GenerationMessage is the payload published whenever a world's monitor
// generation advances.
type GenerationMessage struct {
	WorldID    string `json:"world_id"`
	Generation uint64 `json:"generation"`
}

// Publisher publishes world monitor-generation notices to a Redis pub/sub
// channel so sibling processes sharing the same world snapshot can
// trigger their own local rematch. It does not watch a world itself:
// cmd/ecscached's watchWorldGeneration polls the generation and calls
// Publish when the polled value has changed.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher constructs a Publisher against cfg. It does not dial
// eagerly — go-redis connects lazily on first command, and a dead Redis
// at startup must never prevent the cache from starting.
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Publisher{client: client, channel: cfg.Channel, logger: logger}
}

// Publish sends one generation advance notice. Failures are logged at
// debug level and otherwise swallowed — this channel is a hint, never a
// correctness dependency (spec.md §5's "no suspension points").
func (p *Publisher) Publish(ctx context.Context, worldID string, generation uint64) {
	payload, err := json.Marshal(GenerationMessage{WorldID: worldID, Generation: generation})
	if err != nil {
		p.logger.Debug("broadcast: marshal generation message failed", "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Debug("broadcast: publish generation failed", "error", err, "channel", p.channel)
	}
}

// Subscribe returns a channel of generation advances from sibling
// processes. The returned cancel function must be called to release the
// underlying subscription.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan GenerationMessage, func()) {
	sub := p.client.Subscribe(ctx, p.channel)
	out := make(chan GenerationMessage, 16)

	go func() {
		defer close(out)
		ch := sub.Channel()
		for msg := range ch {
			var gm GenerationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &gm); err != nil {
				p.logger.Debug("broadcast: decode generation message failed", "error", err)
				continue
			}
			select {
			case out <- gm:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}

// Close releases the underlying Redis client.
func (p *Publisher) Close() error { return p.client.Close() }
