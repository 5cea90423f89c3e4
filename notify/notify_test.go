package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/breez/device-sync/store"
	"github.com/stretchr/testify/require"
)

func envelope(owner string, version int64) Envelope {
	return Envelope{OwnerId: owner, DataType: store.HealthData, Version: version, ProducedAt: time.Now().UTC()}
}

func drain(ch *QueueChannel) []int64 {
	var versions []int64
	for {
		select {
		case env := <-ch.Events():
			versions = append(versions, env.Version)
		default:
			return versions
		}
	}
}

type failingChannel struct {
	mu     sync.Mutex
	closed bool
}

func (c *failingChannel) Send(ctx context.Context, env Envelope) error {
	return errors.New("connection reset")
}

func (c *failingChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func TestRingBufferEvictsOldest(t *testing.T) {
	ctx := context.Background()
	b := NewRingBuffer(3)
	for v := int64(1); v <= 5; v++ {
		require.NoError(t, b.Push(ctx, "u1", envelope("u1", v)))
		n, err := b.Len(ctx, "u1")
		require.NoError(t, err)
		require.LessOrEqual(t, n, 3)
	}
	got, err := b.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []int64{3, 4, 5}, []int64{got[0].Version, got[1].Version, got[2].Version})

	// snapshots do not consume
	again, err := b.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, got, again)

	empty, err := b.Snapshot(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestQueueChannel(t *testing.T) {
	ch := NewQueueChannel(1)
	require.NoError(t, ch.Send(context.Background(), envelope("u1", 1)))
	require.ErrorIs(t, ch.Send(context.Background(), envelope("u1", 2)), ErrBackpressure)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	require.ErrorIs(t, ch.Send(context.Background(), envelope("u1", 3)), ErrChannelClosed)
}

func TestHubExcludesOrigin(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(10))
	phone := NewQueueChannel(10)
	watch := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "phone", phone))
	require.NoError(t, hub.Register(ctx, "u1", "watch", watch))

	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 1)))
	require.Empty(t, drain(phone))
	require.Equal(t, []int64{1}, drain(watch))

	// all devices live, nothing buffered
	n, err := hub.buffer.Len(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestHubBuffersForOfflineDevice(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(3))
	phone := NewQueueChannel(10)
	watch := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "phone", phone))
	require.NoError(t, hub.Register(ctx, "u1", "watch", watch))
	require.NoError(t, hub.Unregister(ctx, "watch"))

	for v := int64(1); v <= 5; v++ {
		require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", v)))
	}

	reconnected := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "watch", reconnected))
	require.Equal(t, []int64{3, 4, 5}, drain(reconnected))
}

func TestHubBuffersWithoutRecipients(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(10))
	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 1)))

	tablet := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "tablet", tablet))
	require.Equal(t, []int64{1}, drain(tablet))
}

func TestHubDropsFailedChannel(t *testing.T) {
	ctx := context.Background()
	var dropped []string
	hub := NewHub(NewRingBuffer(10), WithDropHook(func(owner, device string) {
		dropped = append(dropped, owner+"/"+device)
	}))
	bad := &failingChannel{}
	require.NoError(t, hub.Register(ctx, "u1", "watch", bad))

	err := hub.Notify(ctx, "u1", "phone", envelope("u1", 1))
	require.ErrorIs(t, err, ErrDelivery)
	require.True(t, bad.closed)
	require.Equal(t, []string{"u1/watch"}, dropped)
	_, ok := hub.OwnerOf("watch")
	require.False(t, ok)

	// the failed envelope waits in the buffer
	watch := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "watch", watch))
	require.Equal(t, []int64{1}, drain(watch))
}

func TestHubReplaceAndDetach(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(10))
	first := NewQueueChannel(10)
	second := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "watch", first))
	require.NoError(t, hub.Register(ctx, "u1", "watch", second))

	select {
	case <-first.Done():
	default:
		t.Fatal("replaced channel was not closed")
	}

	// a stale transport must not detach the newer connection
	require.NoError(t, hub.Detach(ctx, "watch", first))
	owner, ok := hub.OwnerOf("watch")
	require.True(t, ok)
	require.Equal(t, "u1", owner)

	require.NoError(t, hub.Detach(ctx, "watch", second))
	_, ok = hub.OwnerOf("watch")
	require.False(t, ok)
	require.Empty(t, hub.Online())
}

func TestHubConcurrentRegisterNotify(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(1000))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		deviceID := fmt.Sprintf("device-%d", i)
		go func() {
			defer wg.Done()
			ch := NewQueueChannel(2000)
			for j := 0; j < 10; j++ {
				require.NoError(t, hub.Register(ctx, "u1", deviceID, ch))
				require.NoError(t, hub.Detach(ctx, deviceID, ch))
				ch = NewQueueChannel(2000)
			}
		}()
		go func(v int64) {
			defer wg.Done()
			for j := int64(0); j < 10; j++ {
				hub.Notify(ctx, "u1", "origin", envelope("u1", v*10+j))
			}
		}(int64(i))
	}
	wg.Wait()
	require.Empty(t, hub.Online())
	n, err := hub.buffer.Len(ctx, "u1")
	require.NoError(t, err)
	require.LessOrEqual(t, n, 1000)
}

// gatedChannel blocks its first Send until release is closed.
type gatedChannel struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu       sync.Mutex
	versions []int64
}

func newGatedChannel() *gatedChannel {
	return &gatedChannel{entered: make(chan struct{}), release: make(chan struct{})}
}

func (c *gatedChannel) Send(ctx context.Context, env Envelope) error {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	c.mu.Lock()
	c.versions = append(c.versions, env.Version)
	c.mu.Unlock()
	return nil
}

func (c *gatedChannel) Close() error {
	return nil
}

func (c *gatedChannel) received() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.versions...)
}

func TestHubReplayPrecedesLiveSends(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(10))
	phone := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "phone", phone))
	require.NoError(t, hub.Register(ctx, "u1", "watch", NewQueueChannel(10)))
	require.NoError(t, hub.Unregister(ctx, "watch"))
	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 1)))
	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 2)))

	watch := newGatedChannel()
	registered := make(chan error, 1)
	go func() {
		registered <- hub.Register(ctx, "u1", "watch", watch)
	}()
	<-watch.entered

	notified := make(chan error, 1)
	go func() {
		notified <- hub.Notify(ctx, "u1", "phone", envelope("u1", 3))
	}()
	// let the live send reach the device before the replay resumes
	time.Sleep(50 * time.Millisecond)
	close(watch.release)

	require.NoError(t, <-registered)
	require.NoError(t, <-notified)
	require.Equal(t, []int64{1, 2, 3}, watch.received())
}

func TestHubSkipsVersionsAlreadyDelivered(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewRingBuffer(10))
	watch := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "watch", watch))

	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 2)))
	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 1)))
	require.NoError(t, hub.Notify(ctx, "u1", "phone", envelope("u1", 2)))
	require.Equal(t, []int64{2}, drain(watch))

	// other data types are tracked on their own
	other := envelope("u1", 1)
	other.DataType = store.SleepRecords
	require.NoError(t, hub.Notify(ctx, "u1", "phone", other))
	require.Equal(t, []int64{1}, drain(watch))
}

func TestHubForgetsLongOfflineDevices(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	hub := NewHub(NewRingBuffer(10), WithKnownTTL(time.Hour), WithClock(clock))

	phone := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "phone", phone))
	require.NoError(t, hub.Register(ctx, "u1", "watch", NewQueueChannel(10)))
	require.NoError(t, hub.Unregister(ctx, "watch"))

	// watch is expected back, so the envelope is kept for it
	require.NoError(t, hub.Notify(ctx, "u1", "tablet", envelope("u1", 1)))
	n, err := hub.buffer.Len(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	now = now.Add(2 * time.Hour)
	require.NoError(t, hub.Notify(ctx, "u1", "tablet", envelope("u1", 2)))
	n, err = hub.buffer.Len(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, n, "an expired device no longer causes buffering")
	require.Equal(t, []int64{1, 2}, drain(phone))
	require.NotContains(t, hub.known["u1"], "watch")

	// the sweep clears owners that are never notified again
	require.NoError(t, hub.Unregister(ctx, "phone"))
	now = now.Add(2 * time.Hour)
	require.Equal(t, 1, hub.ForgetExpired())
	require.Empty(t, hub.known)
}

// slowBuffer blocks snapshots of one owner until release is closed.
type slowBuffer struct {
	*RingBuffer
	owner   string
	entered chan struct{}
	release chan struct{}
}

func (b *slowBuffer) Snapshot(ctx context.Context, ownerID string) ([]Envelope, error) {
	if ownerID == b.owner {
		close(b.entered)
		<-b.release
	}
	return b.RingBuffer.Snapshot(ctx, ownerID)
}

func TestHubSlowBufferDoesNotBlockOtherOwners(t *testing.T) {
	ctx := context.Background()
	buffer := &slowBuffer{RingBuffer: NewRingBuffer(10), owner: "u1", entered: make(chan struct{}), release: make(chan struct{})}
	hub := NewHub(buffer)
	tv := NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u2", "tv", tv))

	registered := make(chan error, 1)
	go func() {
		registered <- hub.Register(ctx, "u1", "watch", NewQueueChannel(10))
	}()
	<-buffer.entered

	notified := make(chan error, 1)
	go func() {
		notified <- hub.Notify(ctx, "u2", "phone", envelope("u2", 1))
	}()
	select {
	case err := <-notified:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notify for another owner waited on a buffer read")
	}
	require.Equal(t, []int64{1}, drain(tv))
	require.Len(t, hub.Online(), 2)

	close(buffer.release)
	require.NoError(t, <-registered)
}
