package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/breez/device-sync/metrics"
	"github.com/redis/go-redis/v9"
)

// pushTrimScript appends one envelope and trims the list to its capacity
// in a single step, so concurrent pushers never leave it over the cap.
var pushTrimScript = redis.NewScript(`
local n = redis.call("RPUSH", KEYS[1], ARGV[1])
local max = tonumber(ARGV[2])
local over = n - max
if over > 0 then
  redis.call("LTRIM", KEYS[1], over, -1)
else
  over = 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call("EXPIRE", KEYS[1], ttl)
end
return over
`)

type RedisBufferOptions struct {
	Prefix   string
	Capacity int
	TTL      time.Duration
}

func (o RedisBufferOptions) withDefaults() RedisBufferOptions {
	if o.Prefix == "" {
		o.Prefix = "devicesync"
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultBufferCapacity
	}
	if o.TTL == 0 {
		o.TTL = 7 * 24 * time.Hour
	}
	return o
}

// RedisBuffer shares the offline backlog between instances. Like the
// in-process ring it is not a source of truth; keys expire after TTL.
type RedisBuffer struct {
	client redis.UniversalClient
	opts   RedisBufferOptions
}

func NewRedisBuffer(client redis.UniversalClient, opts RedisBufferOptions) *RedisBuffer {
	return &RedisBuffer{client: client, opts: opts.withDefaults()}
}

func (b *RedisBuffer) key(ownerID string) string {
	return fmt.Sprintf("%s:offline:%s", b.opts.Prefix, ownerID)
}

func (b *RedisBuffer) Capacity() int {
	return b.opts.Capacity
}

func (b *RedisBuffer) Push(ctx context.Context, ownerID string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	evicted, err := pushTrimScript.Run(ctx, b.client,
		[]string{b.key(ownerID)}, data, b.opts.Capacity, int64(b.opts.TTL/time.Second)).Int64()
	if err != nil {
		return fmt.Errorf("failed to push envelope: %w", err)
	}
	if evicted > 0 {
		metrics.BufferEvictions.Add(float64(evicted))
	}
	return nil
}

func (b *RedisBuffer) Snapshot(ctx context.Context, ownerID string) ([]Envelope, error) {
	items, err := b.client.LRange(ctx, b.key(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read offline buffer: %w", err)
	}
	envelopes := make([]Envelope, 0, len(items))
	for _, item := range items {
		var env Envelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			return nil, fmt.Errorf("failed to decode envelope: %w", err)
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

func (b *RedisBuffer) Len(ctx context.Context, ownerID string) (int, error) {
	n, err := b.client.LLen(ctx, b.key(ownerID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read offline buffer length: %w", err)
	}
	return int(n), nil
}
