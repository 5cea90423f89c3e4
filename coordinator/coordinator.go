// Package coordinator runs a device mutation end to end: validation, the
// per owner/data type commit lock, conflict resolution, persistence and
// notification of the owner's other devices.
package coordinator

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/breez/device-sync/conflict"
	"github.com/breez/device-sync/metrics"
	"github.com/breez/device-sync/notify"
	"github.com/breez/device-sync/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultLockTimeout = 5 * time.Second

// Applier turns the current payload and an incoming mutation into the new
// state. It must not block on anything slower than the store.
type Applier interface {
	Apply(ctx context.Context, dataType store.DataType, op store.Operation, current, incoming []byte) ([]byte, error)
}

type ApplierFunc func(ctx context.Context, dataType store.DataType, op store.Operation, current, incoming []byte) ([]byte, error)

func (f ApplierFunc) Apply(ctx context.Context, dataType store.DataType, op store.Operation, current, incoming []byte) ([]byte, error) {
	return f(ctx, dataType, op, current, incoming)
}

// ReplaceApplier stores the incoming payload as is; delete leaves an empty
// tombstone.
var ReplaceApplier = ApplierFunc(func(ctx context.Context, dataType store.DataType, op store.Operation, current, incoming []byte) ([]byte, error) {
	if op == store.OperationDelete {
		return nil, nil
	}
	return incoming, nil
})

type Options struct {
	LockTimeout     time.Duration
	DefaultStrategy conflict.Strategy
	Applier         Applier
	Clock           func() time.Time
	// MaxPayloadBytes rejects larger payloads when positive.
	MaxPayloadBytes int
}

func (o Options) withDefaults() Options {
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	if o.DefaultStrategy == "" {
		o.DefaultStrategy = conflict.ServerWins
	}
	if o.Applier == nil {
		o.Applier = ReplaceApplier
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

type Mutation struct {
	OwnerId     string
	DeviceId    string
	DataType    store.DataType
	Operation   store.Operation
	Payload     []byte
	BaseVersion int64
	// Strategy falls back to the coordinator default when empty.
	Strategy conflict.Strategy
}

type Result struct {
	SyncId           string
	Version          int64
	Status           store.Status
	ConflictResolved bool
	ResolvedPayload  []byte
	CurrentPayload   []byte
	// Replayed is set when the mutation matched the current state and
	// nothing was written.
	Replayed bool
	Error    *SyncError
}

type Coordinator struct {
	storage  store.SyncStorage
	resolver *conflict.Resolver
	fanout   notify.Fanout
	locks    *keyedLock
	opts     Options
	log      *zap.Logger
}

func New(storage store.SyncStorage, resolver *conflict.Resolver, fanout notify.Fanout, log *zap.Logger, opts Options) *Coordinator {
	if resolver == nil {
		resolver = conflict.NewResolver()
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Coordinator{
		storage:  storage,
		resolver: resolver,
		fanout:   fanout,
		locks:    newKeyedLock(opts.LockTimeout),
		opts:     opts,
		log:      log,
	}
}

func (c *Coordinator) validate(m *Mutation) error {
	if m.OwnerId == "" {
		return newError(CodeValidation, nil, "owner id is required")
	}
	if m.DeviceId == "" {
		return newError(CodeValidation, nil, "device id is required")
	}
	if !m.DataType.Valid() {
		return newError(CodeValidation, nil, "unknown data type %q", m.DataType)
	}
	if !m.Operation.Valid() {
		return newError(CodeValidation, nil, "unknown operation %q", m.Operation)
	}
	if m.BaseVersion < 0 {
		return newError(CodeValidation, nil, "base version %d is negative", m.BaseVersion)
	}
	if m.Operation != store.OperationDelete && len(m.Payload) == 0 {
		return newError(CodeValidation, nil, "%v requires a payload", m.Operation)
	}
	if c.opts.MaxPayloadBytes > 0 && len(m.Payload) > c.opts.MaxPayloadBytes {
		return newError(CodeValidation, nil, "payload of %d bytes exceeds %d", len(m.Payload), c.opts.MaxPayloadBytes)
	}
	if m.Strategy == "" {
		m.Strategy = c.opts.DefaultStrategy
	}
	if !c.resolver.Has(m.Strategy) {
		return newError(CodeValidation, conflict.ErrUnknownStrategy, "unknown conflict strategy %q", m.Strategy)
	}
	return nil
}

// SubmitMutation commits m or reports why it could not. Conflicts are not
// errors: they come back as a failed or pending Result with Result.Error set.
// The returned error is non-nil when the caller should treat the request as
// failed (validation, lock timeout, storage or apply failures).
func (c *Coordinator) SubmitMutation(ctx context.Context, m Mutation) (Result, error) {
	if err := c.validate(&m); err != nil {
		metrics.Mutations.WithLabelValues("rejected").Inc()
		return Result{Status: store.StatusFailed, Error: err.(*SyncError)}, err
	}

	release, err := c.locks.acquire(ctx, lockKey{m.OwnerId, m.DataType})
	if err != nil {
		metrics.Mutations.WithLabelValues("rejected").Inc()
		return Result{Status: store.StatusFailed, Error: err.(*SyncError)}, err
	}
	defer release()
	// The commit below completes or fails as a whole even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	log := c.log.With(
		zap.String("owner", m.OwnerId),
		zap.String("device", m.DeviceId),
		zap.String("dataType", string(m.DataType)),
	)

	current, currentPayload, err := c.storage.GetCurrent(ctx, m.OwnerId, m.DataType)
	if err != nil {
		serr := storageError(err, "failed to read current state")
		metrics.Mutations.WithLabelValues(string(store.StatusFailed)).Inc()
		return Result{Status: store.StatusFailed, Error: serr}, serr
	}

	if m.BaseVersion < current && m.Operation != store.OperationDelete && bytes.Equal(m.Payload, currentPayload) {
		log.Debug("mutation replays current state", zap.Int64("version", current))
		metrics.Mutations.WithLabelValues(string(store.StatusCompleted)).Inc()
		return Result{
			Version:        current,
			Status:         store.StatusCompleted,
			CurrentPayload: currentPayload,
			Replayed:       true,
		}, nil
	}

	decision, err := c.resolver.Resolve(conflict.Input{
		IncomingVersion: m.BaseVersion + 1,
		IncomingPayload: m.Payload,
		CurrentVersion:  current,
		CurrentPayload:  currentPayload,
		Strategy:        m.Strategy,
	})
	if err != nil {
		serr := newError(CodeInternal, err, "conflict resolution failed")
		return Result{Status: store.StatusFailed, Error: serr}, serr
	}

	now := c.opts.Clock()
	rec := store.SyncRecord{
		Id:          uuid.NewString(),
		OwnerId:     m.OwnerId,
		DeviceId:    m.DeviceId,
		DataType:    m.DataType,
		Operation:   m.Operation,
		BaseVersion: m.BaseVersion,
		Payload:     m.Payload,
		CreatedAt:   store.Timestamp(now),
	}
	if decision.Conflict {
		metrics.Conflicts.WithLabelValues(string(decision.StrategyApplied)).Inc()
		log = log.With(zap.Int64("baseVersion", m.BaseVersion), zap.Int64("currentVersion", current))
	}

	switch {
	case decision.Deferred:
		return c.park(ctx, log, rec, current, currentPayload, decision)
	case !decision.Accepted:
		return c.reject(ctx, log, rec, current, currentPayload, decision, now)
	}
	return c.commit(ctx, log, rec, currentPayload, decision, now)
}

// park stores a conflicting mutation as a pending record for
// ResolveManualConflict.
func (c *Coordinator) park(ctx context.Context, log *zap.Logger, rec store.SyncRecord, current int64, currentPayload []byte, d conflict.Decision) (Result, error) {
	rec.Status = store.StatusPending
	rec.Resolution = &store.ConflictResolution{Strategy: d.StrategyApplied}
	if err := c.storage.AppendRecord(ctx, rec, nil); err != nil {
		serr := storageError(err, "failed to record pending conflict")
		metrics.Mutations.WithLabelValues(string(store.StatusFailed)).Inc()
		return Result{Status: store.StatusFailed, Error: serr}, serr
	}
	log.Info("conflict awaits manual resolution", zap.String("syncId", rec.Id))
	metrics.Mutations.WithLabelValues(string(store.StatusPending)).Inc()
	return Result{
		SyncId:         rec.Id,
		Version:        current,
		Status:         store.StatusPending,
		CurrentPayload: currentPayload,
		Error:          newError(CodeManualResolution, nil, "conflict on version %d needs manual resolution", current),
	}, nil
}

func (c *Coordinator) reject(ctx context.Context, log *zap.Logger, rec store.SyncRecord, current int64, currentPayload []byte, d conflict.Decision, now time.Time) (Result, error) {
	serr := newError(CodeVersionConflict, nil, "base version %d is behind current version %d", rec.BaseVersion, current)
	rec.Resolution = &store.ConflictResolution{
		Strategy:        d.StrategyApplied,
		ResolvedPayload: currentPayload,
		ResolvedAt:      store.Timestamp(now),
	}
	c.recordFailure(ctx, log, rec, serr, now)
	log.Info("mutation rejected by conflict strategy", zap.String("syncId", rec.Id), zap.String("strategy", string(d.StrategyApplied)))
	return Result{
		SyncId:           rec.Id,
		Version:          current,
		Status:           store.StatusFailed,
		ConflictResolved: true,
		ResolvedPayload:  currentPayload,
		CurrentPayload:   currentPayload,
		Error:            serr,
	}, nil
}

func (c *Coordinator) commit(ctx context.Context, log *zap.Logger, rec store.SyncRecord, currentPayload []byte, d conflict.Decision, now time.Time) (Result, error) {
	state, err := c.opts.Applier.Apply(ctx, rec.DataType, rec.Operation, currentPayload, d.Payload)
	if err != nil {
		serr := newError(CodeApplyFailed, err, "failed to apply %v", rec.Operation)
		c.recordFailure(ctx, log, rec, serr, now)
		return Result{SyncId: rec.Id, Status: store.StatusFailed, Error: serr}, serr
	}

	rec.Version = d.Version
	rec.Status = store.StatusCompleted
	rec.SyncedAt = store.Timestamp(now)
	if d.Conflict {
		rec.Resolution = &store.ConflictResolution{
			Strategy:        d.StrategyApplied,
			ResolvedPayload: state,
			ResolvedAt:      store.Timestamp(now),
			Overwrote:       d.Overwrote,
		}
	}

	if err := c.storage.AppendRecord(ctx, rec, state); err != nil {
		failed := rec
		failed.Version = 0
		failed.Status = store.StatusFailed
		if errors.Is(err, store.ErrDuplicateVersion) {
			// Another instance committed this version first.
			serr := newError(CodeVersionConflict, err, "version %d was committed concurrently", d.Version)
			c.recordFailure(ctx, log, failed, serr, now)
			return Result{SyncId: rec.Id, Version: d.Version - 1, Status: store.StatusFailed, Error: serr}, nil
		}
		serr := storageError(err, "failed to commit version")
		c.recordFailure(ctx, log, failed, serr, now)
		return Result{SyncId: rec.Id, Status: store.StatusFailed, Error: serr}, serr
	}

	log.Info("mutation committed", zap.String("syncId", rec.Id), zap.Int64("version", rec.Version), zap.Bool("conflict", d.Conflict))
	metrics.Mutations.WithLabelValues(string(store.StatusCompleted)).Inc()
	c.notify(ctx, log, rec)

	res := Result{
		SyncId:           rec.Id,
		Version:          rec.Version,
		Status:           store.StatusCompleted,
		ConflictResolved: d.Conflict,
		CurrentPayload:   state,
	}
	if d.Conflict {
		res.ResolvedPayload = state
	}
	return res, nil
}

// recordFailure persists a failed audit record. It is best effort: the
// caller already has the error to report.
func (c *Coordinator) recordFailure(ctx context.Context, log *zap.Logger, rec store.SyncRecord, serr *SyncError, now time.Time) {
	metrics.Mutations.WithLabelValues(string(store.StatusFailed)).Inc()
	rec.Version = 0
	rec.Status = store.StatusFailed
	rec.SyncedAt = store.Timestamp(now)
	rec.Error = &store.RecordError{Code: string(serr.Code), Message: serr.Error()}
	if err := c.storage.AppendRecord(ctx, rec, nil); err != nil {
		log.Warn("failed to record failed mutation", zap.String("syncId", rec.Id), zap.Error(err))
	}
}

// notify runs while the lock is still held so each key's envelopes leave in
// version order. Delivery problems never undo the commit.
func (c *Coordinator) notify(ctx context.Context, log *zap.Logger, rec store.SyncRecord) {
	if c.fanout == nil {
		return
	}
	env := notify.Envelope{
		OwnerId:    rec.OwnerId,
		DataType:   rec.DataType,
		Version:    rec.Version,
		ProducedAt: rec.SyncedAt,
	}
	if err := c.fanout.Notify(ctx, rec.OwnerId, rec.DeviceId, env); err != nil {
		log.Warn("fanout incomplete",
			zap.String("code", string(CodeFanout)),
			zap.Int64("version", rec.Version),
			zap.Error(err))
	}
}

// ResolveManualConflict commits payload for a pending manual conflict at the
// next version and completes the same record.
func (c *Coordinator) ResolveManualConflict(ctx context.Context, syncID string, payload []byte) (Result, error) {
	rec, err := c.GetRecord(ctx, syncID)
	if err != nil {
		return Result{}, err
	}
	if rec.Status != store.StatusPending || rec.Resolution == nil || rec.Resolution.Strategy != conflict.Manual {
		return Result{}, newError(CodeValidation, store.ErrRecordNotPending, "sync record %v is not awaiting manual resolution", syncID)
	}
	if rec.Operation != store.OperationDelete && len(payload) == 0 {
		return Result{}, newError(CodeValidation, nil, "resolved payload is required")
	}

	release, err := c.locks.acquire(ctx, lockKey{rec.OwnerId, rec.DataType})
	if err != nil {
		return Result{}, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	log := c.log.With(
		zap.String("owner", rec.OwnerId),
		zap.String("dataType", string(rec.DataType)),
		zap.String("syncId", rec.Id),
	)

	current, currentPayload, err := c.storage.GetCurrent(ctx, rec.OwnerId, rec.DataType)
	if err != nil {
		return Result{}, storageError(err, "failed to read current state")
	}
	state, err := c.opts.Applier.Apply(ctx, rec.DataType, rec.Operation, currentPayload, payload)
	if err != nil {
		return Result{}, newError(CodeApplyFailed, err, "failed to apply resolved payload")
	}

	now := store.Timestamp(c.opts.Clock())
	rec.Version = current + 1
	rec.Status = store.StatusCompleted
	rec.SyncedAt = now
	rec.Resolution = &store.ConflictResolution{
		Strategy:        conflict.Manual,
		ResolvedPayload: state,
		ResolvedAt:      now,
		Overwrote:       true,
	}
	if err := c.storage.FinalizeRecord(ctx, rec, state); err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotPending):
			return Result{}, newError(CodeValidation, err, "sync record %v was already resolved", syncID)
		case errors.Is(err, store.ErrDuplicateVersion):
			return Result{}, newError(CodeVersionConflict, err, "version %d was committed concurrently", rec.Version)
		}
		return Result{}, storageError(err, "failed to finalize sync record")
	}

	log.Info("manual conflict resolved", zap.Int64("version", rec.Version))
	metrics.Mutations.WithLabelValues(string(store.StatusCompleted)).Inc()
	c.notify(ctx, log, rec)
	return Result{
		SyncId:           rec.Id,
		Version:          rec.Version,
		Status:           store.StatusCompleted,
		ConflictResolved: true,
		ResolvedPayload:  state,
		CurrentPayload:   state,
	}, nil
}

// GetHistory returns the committed records after sinceVersion in version
// order.
func (c *Coordinator) GetHistory(ctx context.Context, ownerID string, dataType store.DataType, sinceVersion int64) ([]store.SyncRecord, error) {
	if ownerID == "" {
		return nil, newError(CodeValidation, nil, "owner id is required")
	}
	if !dataType.Valid() {
		return nil, newError(CodeValidation, nil, "unknown data type %q", dataType)
	}
	if sinceVersion < 0 {
		return nil, newError(CodeValidation, nil, "since version %d is negative", sinceVersion)
	}
	records, err := c.storage.ListHistory(ctx, ownerID, dataType, sinceVersion)
	if err != nil {
		return nil, storageError(err, "failed to list history")
	}
	return records, nil
}

// GetRecord returns one audit record by sync id.
func (c *Coordinator) GetRecord(ctx context.Context, syncID string) (store.SyncRecord, error) {
	rec, err := c.storage.GetRecord(ctx, syncID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return store.SyncRecord{}, newError(CodeNotFound, err, "sync record %v", syncID)
		}
		return store.SyncRecord{}, storageError(err, "failed to load sync record")
	}
	return rec, nil
}

// PendingConflicts lists the owner's mutations waiting for manual resolution.
func (c *Coordinator) PendingConflicts(ctx context.Context, ownerID string, dataType store.DataType) ([]store.SyncRecord, error) {
	if !dataType.Valid() {
		return nil, newError(CodeValidation, nil, "unknown data type %q", dataType)
	}
	records, err := c.storage.ListRecords(ctx, ownerID, dataType, store.StatusPending)
	if err != nil {
		return nil, storageError(err, "failed to list pending records")
	}
	return records, nil
}

func (c *Coordinator) RegisterDevice(ctx context.Context, ownerID, deviceID string, ch notify.Channel) error {
	if ownerID == "" || deviceID == "" {
		return newError(CodeValidation, nil, "owner and device id are required")
	}
	if err := c.fanout.Register(ctx, ownerID, deviceID, ch); err != nil {
		return newError(CodeFanout, err, "failed to register device %v", deviceID)
	}
	return nil
}

func (c *Coordinator) UnregisterDevice(ctx context.Context, deviceID string) error {
	return c.fanout.Unregister(ctx, deviceID)
}

// DetachDevice unregisters deviceID if ch is still its channel.
func (c *Coordinator) DetachDevice(ctx context.Context, deviceID string, ch notify.Channel) error {
	return c.fanout.Detach(ctx, deviceID, ch)
}

func storageError(err error, msg string) *SyncError {
	if errors.Is(err, store.ErrStorageUnavailable) {
		return newError(CodeStorage, err, "%s", msg)
	}
	return newError(CodeInternal, err, "%s", msg)
}
