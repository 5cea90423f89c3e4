package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/breez/device-sync/metrics"
	"github.com/breez/device-sync/store"
	"go.uber.org/zap"
)

// Fanout routes envelopes to an owner's devices. Hub is the single-process
// implementation and RedisFanout spreads the same contract over instances.
type Fanout interface {
	Register(ctx context.Context, ownerID, deviceID string, ch Channel) error
	Unregister(ctx context.Context, deviceID string) error
	// Detach unregisters deviceID only while ch is still its channel, so a
	// transport shutting down cannot remove a newer connection.
	Detach(ctx context.Context, deviceID string, ch Channel) error
	Notify(ctx context.Context, ownerID, excludeDeviceID string, env Envelope) error
}

type device struct {
	ownerID  string
	deviceID string
	ch       Channel

	// sendMu orders every send to ch: Register holds it while replaying the
	// backlog, so live envelopes queue up behind the older buffered ones.
	sendMu sync.Mutex
	seen   map[store.DataType]int64
}

func newDevice(ownerID, deviceID string, ch Channel) *device {
	return &device{
		ownerID:  ownerID,
		deviceID: deviceID,
		ch:       ch,
		seen:     make(map[store.DataType]int64),
	}
}

// deliverLocked sends env unless d already got that version or a newer one
// of the same data type. Callers hold d.sendMu.
func (d *device) deliverLocked(ctx context.Context, env Envelope) error {
	if env.Version <= d.seen[env.DataType] {
		return nil
	}
	if err := d.ch.Send(ctx, env); err != nil {
		return err
	}
	d.seen[env.DataType] = env.Version
	metrics.FanoutDelivered.Inc()
	return nil
}

// DefaultKnownTTL is how long an offline device keeps envelopes buffering
// for its owner. It matches the default offline buffer TTL.
const DefaultKnownTTL = 7 * 24 * time.Hour

const ownerStripes = 64

type HubOption func(*Hub)

func WithLogger(log *zap.Logger) HubOption {
	return func(h *Hub) { h.log = log }
}

// WithDropHook is called after a device was removed because a send failed.
func WithDropHook(fn func(ownerID, deviceID string)) HubOption {
	return func(h *Hub) { h.onDrop = fn }
}

// WithKnownTTL sets how long a disconnected device is still expected back.
func WithKnownTTL(ttl time.Duration) HubOption {
	return func(h *Hub) {
		if ttl > 0 {
			h.knownTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

type Hub struct {
	mu      sync.RWMutex
	devices map[string]*device
	owners  map[string]map[string]*device
	// known maps each device that registered for an owner to the time it was
	// last connected. Envelopes are buffered while any of them is offline;
	// entries older than knownTTL are forgotten.
	known    map[string]map[string]time.Time
	knownTTL time.Duration

	// ownerMu serializes an owner's buffering decisions against Register's
	// backlog snapshot without holding mu across buffer I/O.
	ownerMu [ownerStripes]sync.Mutex

	buffer Buffer
	log    *zap.Logger
	onDrop func(ownerID, deviceID string)
	now    func() time.Time
}

func NewHub(buffer Buffer, opts ...HubOption) *Hub {
	h := &Hub{
		devices:  make(map[string]*device),
		owners:   make(map[string]map[string]*device),
		known:    make(map[string]map[string]time.Time),
		knownTTL: DefaultKnownTTL,
		buffer:   buffer,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) ownerLock(ownerID string) *sync.Mutex {
	f := fnv.New32a()
	f.Write([]byte(ownerID))
	return &h.ownerMu[f.Sum32()%ownerStripes]
}

// Register attaches ch as deviceID's live channel, replacing any previous
// one, and replays the owner's buffered envelopes to it. Envelopes notified
// while the replay runs are delivered after it.
func (h *Hub) Register(ctx context.Context, ownerID, deviceID string, ch Channel) error {
	d := newDevice(ownerID, deviceID, ch)
	d.sendMu.Lock()

	om := h.ownerLock(ownerID)
	om.Lock()
	h.mu.Lock()
	old := h.devices[deviceID]
	if old != nil {
		h.removeLocked(old)
	}
	h.devices[deviceID] = d
	if h.owners[ownerID] == nil {
		h.owners[ownerID] = make(map[string]*device)
	}
	h.owners[ownerID][deviceID] = d
	if h.known[ownerID] == nil {
		h.known[ownerID] = make(map[string]time.Time)
	}
	h.known[ownerID][deviceID] = h.now()
	metrics.OnlineDevices.Set(float64(len(h.devices)))
	h.mu.Unlock()

	// A concurrent Notify either buffered before this point or sees the
	// device live and waits on d.sendMu.
	pending, err := h.buffer.Snapshot(ctx, ownerID)
	om.Unlock()

	if old != nil && old.ch != ch {
		old.ch.Close()
	}
	if err != nil {
		d.sendMu.Unlock()
		h.log.Warn("failed to read offline buffer", zap.String("owner", ownerID), zap.Error(err))
		return nil
	}
	var failed error
	for _, env := range pending {
		if failed = d.deliverLocked(ctx, env); failed != nil {
			break
		}
	}
	d.sendMu.Unlock()
	if failed != nil {
		h.drop(d, failed)
		return fmt.Errorf("%w: replaying buffer to %v: %w", ErrDelivery, deviceID, failed)
	}
	h.log.Debug("device registered", zap.String("owner", ownerID), zap.String("device", deviceID), zap.Int("replayed", len(pending)))
	return nil
}

func (h *Hub) Unregister(ctx context.Context, deviceID string) error {
	h.mu.Lock()
	d := h.devices[deviceID]
	if d != nil {
		h.removeLocked(d)
	}
	h.mu.Unlock()
	if d != nil {
		d.ch.Close()
	}
	return nil
}

func (h *Hub) Detach(ctx context.Context, deviceID string, ch Channel) error {
	h.mu.Lock()
	d := h.devices[deviceID]
	if d != nil && d.ch == ch {
		h.removeLocked(d)
	} else {
		d = nil
	}
	h.mu.Unlock()
	if d != nil {
		d.ch.Close()
	}
	return nil
}

// Notify sends env to every live device of ownerID except excludeDeviceID
// and buffers it when some known device of the owner is not reachable.
func (h *Hub) Notify(ctx context.Context, ownerID, excludeDeviceID string, env Envelope) error {
	om := h.ownerLock(ownerID)
	om.Lock()
	h.mu.Lock()
	targets := h.targetsLocked(ownerID, excludeDeviceID)
	missing := h.missingLocked(ownerID, excludeDeviceID)
	h.mu.Unlock()
	buffered := false
	var bufErr error
	if missing || len(targets) == 0 {
		bufErr = h.push(ctx, ownerID, env)
		buffered = true
	}
	om.Unlock()

	failed := h.send(ctx, targets, env)
	if failed > 0 && !buffered {
		bufErr = h.push(ctx, ownerID, env)
	}
	if bufErr != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, bufErr)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d sends failed", ErrDelivery, failed, len(targets))
	}
	return nil
}

// Deliver sends env to the live devices only; it never buffers. RedisFanout
// uses it for envelopes published by other instances.
func (h *Hub) Deliver(ctx context.Context, ownerID, excludeDeviceID string, env Envelope) int {
	h.mu.RLock()
	targets := h.targetsLocked(ownerID, excludeDeviceID)
	h.mu.RUnlock()
	return h.send(ctx, targets, env)
}

func (h *Hub) OwnerOf(deviceID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if d, ok := h.devices[deviceID]; ok {
		return d.ownerID, true
	}
	return "", false
}

// Online returns the live device ids of this instance keyed to their owner.
func (h *Hub) Online() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]string, len(h.devices))
	for id, d := range h.devices {
		out[id] = d.ownerID
	}
	return out
}

// ForgetExpired drops every known device that has been offline longer than
// the known TTL.
func (h *Hub) ForgetExpired() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-h.knownTTL)
	forgotten := 0
	for ownerID, known := range h.known {
		for id, lastSeen := range known {
			if _, live := h.devices[id]; live {
				continue
			}
			if lastSeen.Before(cutoff) {
				delete(known, id)
				forgotten++
			}
		}
		if len(known) == 0 {
			delete(h.known, ownerID)
		}
	}
	return forgotten
}

// ForgetLoop runs ForgetExpired every interval until ctx is done.
func (h *Hub) ForgetLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := h.ForgetExpired(); n > 0 {
				h.log.Debug("forgot offline devices", zap.Int("count", n))
			}
		}
	}
}

func (h *Hub) targetsLocked(ownerID, excludeDeviceID string) []*device {
	live := h.owners[ownerID]
	targets := make([]*device, 0, len(live))
	for id, d := range live {
		if id != excludeDeviceID {
			targets = append(targets, d)
		}
	}
	return targets
}

// missingLocked reports whether a known device of ownerID is offline and
// forgets the ones that have been away longer than knownTTL. Callers hold
// the write lock.
func (h *Hub) missingLocked(ownerID, excludeDeviceID string) bool {
	known := h.known[ownerID]
	live := h.owners[ownerID]
	cutoff := h.now().Add(-h.knownTTL)
	missing := false
	for id, lastSeen := range known {
		if _, ok := live[id]; ok {
			continue
		}
		if lastSeen.Before(cutoff) {
			delete(known, id)
			continue
		}
		if id != excludeDeviceID {
			missing = true
		}
	}
	if len(known) == 0 {
		delete(h.known, ownerID)
	}
	return missing
}

func (h *Hub) send(ctx context.Context, targets []*device, env Envelope) int {
	failed := 0
	for _, d := range targets {
		d.sendMu.Lock()
		err := d.deliverLocked(ctx, env)
		d.sendMu.Unlock()
		if err != nil {
			failed++
			h.drop(d, err)
		}
	}
	return failed
}

func (h *Hub) push(ctx context.Context, ownerID string, env Envelope) error {
	if err := h.buffer.Push(ctx, ownerID, env); err != nil {
		h.log.Warn("failed to buffer envelope", zap.String("owner", ownerID), zap.Error(err))
		return err
	}
	metrics.FanoutBuffered.Inc()
	return nil
}

// drop unregisters a device whose send failed. No retry happens here; the
// device catches up from the buffer or history when it reconnects.
func (h *Hub) drop(d *device, cause error) {
	h.mu.Lock()
	current := h.devices[d.deviceID] == d
	if current {
		h.removeLocked(d)
	}
	h.mu.Unlock()
	if !current {
		return
	}
	d.ch.Close()
	metrics.FanoutFailed.Inc()
	h.log.Info("dropped device channel", zap.String("owner", d.ownerID), zap.String("device", d.deviceID), zap.Error(cause))
	if h.onDrop != nil {
		h.onDrop(d.ownerID, d.deviceID)
	}
}

func (h *Hub) removeLocked(d *device) {
	delete(h.devices, d.deviceID)
	if known := h.known[d.ownerID]; known != nil {
		known[d.deviceID] = h.now()
	}
	if owned := h.owners[d.ownerID]; owned != nil {
		delete(owned, d.deviceID)
		if len(owned) == 0 {
			delete(h.owners, d.ownerID)
		}
	}
	metrics.OnlineDevices.Set(float64(len(h.devices)))
}
