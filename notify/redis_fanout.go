package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisFanoutOptions struct {
	Prefix string
	// PresenceTTL is how long a device counts as live without a refresh
	// from the instance holding its connection.
	PresenceTTL time.Duration
	// KnownTTL bounds how long an owner's known-device set survives without
	// any of its devices registering.
	KnownTTL time.Duration
}

func (o RedisFanoutOptions) withDefaults() RedisFanoutOptions {
	if o.Prefix == "" {
		o.Prefix = "devicesync"
	}
	if o.PresenceTTL <= 0 {
		o.PresenceTTL = 90 * time.Second
	}
	if o.KnownTTL <= 0 {
		o.KnownTTL = DefaultKnownTTL
	}
	return o
}

type fanoutMessage struct {
	OwnerId         string   `json:"owner_id"`
	ExcludeDeviceId string   `json:"exclude_device_id"`
	Envelope        Envelope `json:"envelope"`
}

// RedisFanout lets several instances serve one owner's devices. Envelopes
// are published on a shared channel and every instance delivers them to the
// devices it holds; presence lives in per-owner sorted sets scored by the
// last refresh time.
type RedisFanout struct {
	client redis.UniversalClient
	buffer Buffer
	local  *Hub
	opts   RedisFanoutOptions
	log    *zap.Logger

	pubsub   *redis.PubSub
	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewRedisFanout(client redis.UniversalClient, buffer Buffer, log *zap.Logger, opts RedisFanoutOptions) *RedisFanout {
	if log == nil {
		log = zap.NewNop()
	}
	f := &RedisFanout{
		client: client,
		buffer: buffer,
		opts:   opts.withDefaults(),
		log:    log,
		stop:   make(chan struct{}),
	}
	f.local = NewHub(buffer, WithLogger(log), WithDropHook(f.dropped), WithKnownTTL(f.opts.KnownTTL))
	return f
}

func (f *RedisFanout) channel() string {
	return f.opts.Prefix + ":fanout"
}

func (f *RedisFanout) knownKey(ownerID string) string {
	return fmt.Sprintf("%s:known:%s", f.opts.Prefix, ownerID)
}

func (f *RedisFanout) liveKey(ownerID string) string {
	return fmt.Sprintf("%s:live:%s", f.opts.Prefix, ownerID)
}

// Start subscribes to the fanout channel and begins refreshing presence for
// local devices. It returns once the subscription is confirmed.
func (f *RedisFanout) Start(ctx context.Context) error {
	f.pubsub = f.client.Subscribe(ctx, f.channel())
	if _, err := f.pubsub.Receive(ctx); err != nil {
		f.pubsub.Close()
		return fmt.Errorf("failed to subscribe to %v: %w", f.channel(), err)
	}
	messages := f.pubsub.Channel()

	f.wg.Add(2)
	go func() {
		defer f.wg.Done()
		for msg := range messages {
			f.handle(msg)
		}
	}()
	go func() {
		defer f.wg.Done()
		f.refreshLoop()
	}()
	return nil
}

func (f *RedisFanout) Close() error {
	var err error
	f.stopOnce.Do(func() {
		close(f.stop)
		if f.pubsub != nil {
			err = f.pubsub.Close()
		}
		f.wg.Wait()
	})
	return err
}

func (f *RedisFanout) Register(ctx context.Context, ownerID, deviceID string, ch Channel) error {
	now := float64(time.Now().UnixMilli())
	_, err := f.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, f.knownKey(ownerID), deviceID)
		p.Expire(ctx, f.knownKey(ownerID), f.opts.KnownTTL)
		p.ZAdd(ctx, f.liveKey(ownerID), redis.Z{Score: now, Member: deviceID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record presence: %w", err)
	}
	return f.local.Register(ctx, ownerID, deviceID, ch)
}

func (f *RedisFanout) Unregister(ctx context.Context, deviceID string) error {
	ownerID, ok := f.local.OwnerOf(deviceID)
	if err := f.local.Unregister(ctx, deviceID); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return f.client.ZRem(ctx, f.liveKey(ownerID), deviceID).Err()
}

func (f *RedisFanout) Detach(ctx context.Context, deviceID string, ch Channel) error {
	ownerID, ok := f.local.OwnerOf(deviceID)
	if err := f.local.Detach(ctx, deviceID, ch); err != nil {
		return err
	}
	if _, still := f.local.OwnerOf(deviceID); !ok || still {
		return nil
	}
	return f.client.ZRem(ctx, f.liveKey(ownerID), deviceID).Err()
}

// Notify decides buffering from the shared presence sets and publishes the
// envelope for live delivery on every instance.
func (f *RedisFanout) Notify(ctx context.Context, ownerID, excludeDeviceID string, env Envelope) error {
	cutoff := strconv.FormatInt(time.Now().Add(-f.opts.PresenceTTL).UnixMilli(), 10)
	var known *redis.StringSliceCmd
	var live *redis.StringSliceCmd
	_, err := f.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		known = p.SMembers(ctx, f.knownKey(ownerID))
		live = p.ZRangeByScore(ctx, f.liveKey(ownerID), &redis.ZRangeBy{Min: cutoff, Max: "+inf"})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to read presence: %w", ErrDelivery, err)
	}

	liveSet := make(map[string]struct{})
	recipients := 0
	for _, id := range live.Val() {
		liveSet[id] = struct{}{}
		if id != excludeDeviceID {
			recipients++
		}
	}
	missing := false
	for _, id := range known.Val() {
		if id == excludeDeviceID {
			continue
		}
		if _, ok := liveSet[id]; !ok {
			missing = true
			break
		}
	}

	if missing || recipients == 0 {
		if err := f.buffer.Push(ctx, ownerID, env); err != nil {
			return fmt.Errorf("%w: %w", ErrDelivery, err)
		}
	}
	if recipients == 0 {
		return nil
	}

	data, err := json.Marshal(fanoutMessage{OwnerId: ownerID, ExcludeDeviceId: excludeDeviceID, Envelope: env})
	if err != nil {
		return fmt.Errorf("failed to marshal fanout message: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel(), data).Err(); err != nil {
		return fmt.Errorf("%w: failed to publish: %w", ErrDelivery, err)
	}
	return nil
}

func (f *RedisFanout) handle(msg *redis.Message) {
	var m fanoutMessage
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		f.log.Warn("invalid fanout message", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.local.Deliver(ctx, m.OwnerId, m.ExcludeDeviceId, m.Envelope)
}

func (f *RedisFanout) refreshLoop() {
	t := time.NewTicker(f.opts.PresenceTTL / 3)
	defer t.Stop()
	for {
		select {
		case <-f.stop:
			return
		case <-t.C:
			f.refresh()
		}
	}
}

func (f *RedisFanout) refresh() {
	f.local.ForgetExpired()
	online := f.local.Online()
	if len(online) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := float64(time.Now().UnixMilli())
	_, err := f.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for deviceID, ownerID := range online {
			p.ZAdd(ctx, f.liveKey(ownerID), redis.Z{Score: now, Member: deviceID})
		}
		return nil
	})
	if err != nil {
		f.log.Warn("failed to refresh device presence", zap.Error(err))
	}
}

func (f *RedisFanout) dropped(ownerID, deviceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.client.ZRem(ctx, f.liveKey(ownerID), deviceID).Err(); err != nil {
		f.log.Warn("failed to clear presence", zap.String("device", deviceID), zap.Error(err))
	}
}
