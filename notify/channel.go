// Package notify delivers change envelopes to an owner's connected devices
// and keeps a bounded backlog for the ones that are offline.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/breez/device-sync/store"
)

var (
	ErrChannelClosed = errors.New("device channel closed")
	ErrBackpressure  = errors.New("device channel queue full")
	ErrDelivery      = errors.New("fanout delivery failed")
)

// Envelope tells a device that (DataType, Version) was committed for its
// owner. It is a hint only: devices read the data itself through history.
type Envelope struct {
	OwnerId    string         `json:"owner_id"`
	DataType   store.DataType `json:"data_type"`
	Version    int64          `json:"version"`
	ProducedAt time.Time      `json:"produced_at"`
}

// Channel is the opaque per-device transport. Send must not block on the
// network; a slow device surfaces as ErrBackpressure.
type Channel interface {
	Send(ctx context.Context, env Envelope) error
	Close() error
}

// QueueChannel is a Channel backed by a bounded queue. The transport that
// owns the device connection drains Events until Done is closed.
type QueueChannel struct {
	events    chan Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func NewQueueChannel(size int) *QueueChannel {
	if size <= 0 {
		size = 256
	}
	return &QueueChannel{
		events: make(chan Envelope, size),
		done:   make(chan struct{}),
	}
}

func (c *QueueChannel) Send(ctx context.Context, env Envelope) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	select {
	case c.events <- env:
		return nil
	case <-c.done:
		return ErrChannelClosed
	default:
		return ErrBackpressure
	}
}

func (c *QueueChannel) Events() <-chan Envelope {
	return c.events
}

func (c *QueueChannel) Done() <-chan struct{} {
	return c.done
}

func (c *QueueChannel) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
