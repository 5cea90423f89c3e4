package notify

import (
	"context"
	"sync"

	"github.com/breez/device-sync/metrics"
)

const DefaultBufferCapacity = 100

// Buffer keeps the most recent envelopes per owner for devices that are not
// connected. Once an owner's queue holds Capacity entries, each Push evicts
// the oldest one. Snapshot does not consume: every reconnecting device of the
// owner receives the same backlog.
type Buffer interface {
	Push(ctx context.Context, ownerID string, env Envelope) error
	Snapshot(ctx context.Context, ownerID string) ([]Envelope, error)
	Len(ctx context.Context, ownerID string) (int, error)
	Capacity() int
}

// RingBuffer is the in-process Buffer. Contents are lost on restart.
type RingBuffer struct {
	mu       sync.Mutex
	capacity int
	rings    map[string]*ring
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &RingBuffer{
		capacity: capacity,
		rings:    make(map[string]*ring),
	}
}

func (b *RingBuffer) Capacity() int {
	return b.capacity
}

func (b *RingBuffer) Push(ctx context.Context, ownerID string, env Envelope) error {
	b.mu.Lock()
	r, ok := b.rings[ownerID]
	if !ok {
		r = &ring{items: make([]Envelope, b.capacity)}
		b.rings[ownerID] = r
	}
	evicted := r.push(env)
	b.mu.Unlock()

	if evicted {
		metrics.BufferEvictions.Inc()
	}
	return nil
}

func (b *RingBuffer) Snapshot(ctx context.Context, ownerID string) ([]Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rings[ownerID]
	if !ok {
		return nil, nil
	}
	return r.snapshot(), nil
}

func (b *RingBuffer) Len(ctx context.Context, ownerID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.rings[ownerID]; ok {
		return r.size, nil
	}
	return 0, nil
}

type ring struct {
	items []Envelope
	head  int
	size  int
}

// push appends env and reports whether the oldest entry had to go.
func (r *ring) push(env Envelope) bool {
	if r.size < len(r.items) {
		r.items[(r.head+r.size)%len(r.items)] = env
		r.size++
		return false
	}
	r.items[r.head] = env
	r.head = (r.head + 1) % len(r.items)
	return true
}

func (r *ring) snapshot() []Envelope {
	out := make([]Envelope, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}
