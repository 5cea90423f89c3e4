package coordinator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/breez/device-sync/conflict"
	"github.com/breez/device-sync/notify"
	"github.com/breez/device-sync/store"
	"github.com/breez/device-sync/store/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *sqlite.SQLiteSyncStorage {
	storage, err := sqlite.NewSQLiteSyncStorage(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err, "failed to open storage")
	t.Cleanup(func() { storage.Close() })
	return storage
}

func newCoordinator(t *testing.T, opts Options) (*Coordinator, *notify.Hub) {
	hub := notify.NewHub(notify.NewRingBuffer(10))
	return New(newStorage(t), conflict.NewResolver(), hub, nil, opts), hub
}

func mutation(owner, device string, base int64, payload string) Mutation {
	return Mutation{
		OwnerId:     owner,
		DeviceId:    device,
		DataType:    store.HealthData,
		Operation:   store.OperationUpdate,
		Payload:     []byte(payload),
		BaseVersion: base,
	}
}

func TestStaleDeviceScenario(t *testing.T) {
	ctx := context.Background()
	c, _ := newCoordinator(t, Options{})
	deviceA := notify.NewQueueChannel(10)
	require.NoError(t, c.RegisterDevice(ctx, "u1", "A", deviceA))

	res, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, `{"hr":70}`))
	require.NoError(t, err)
	require.Equal(t, store.StatusCompleted, res.Status)
	require.Equal(t, int64(1), res.Version)

	stale := mutation("u1", "B", 0, `{"hr":72}`)
	stale.Strategy = conflict.ServerWins
	res, err = c.SubmitMutation(ctx, stale)
	require.NoError(t, err)
	require.Equal(t, store.StatusFailed, res.Status)
	require.ErrorIs(t, res.Error, ErrVersionConflict)
	require.Equal(t, int64(1), res.Version)
	require.Equal(t, []byte(`{"hr":70}`), res.CurrentPayload)

	res, err = c.SubmitMutation(ctx, mutation("u1", "B", 1, `{"hr":72}`))
	require.NoError(t, err)
	require.Equal(t, store.StatusCompleted, res.Status)
	require.Equal(t, int64(2), res.Version)

	select {
	case env := <-deviceA.Events():
		require.Equal(t, store.HealthData, env.DataType)
		require.Equal(t, int64(2), env.Version)
	default:
		t.Fatal("device A did not receive the envelope")
	}

	audit, err := c.storage.ListRecords(ctx, "u1", store.HealthData, "")
	require.NoError(t, err)
	require.Len(t, audit, 3)
	require.Equal(t, store.StatusFailed, audit[1].Status)
	require.Equal(t, string(CodeVersionConflict), audit[1].Error.Code)
}

func TestVersionsAreGapFree(t *testing.T) {
	ctx := context.Background()
	c, _ := newCoordinator(t, Options{DefaultStrategy: conflict.ClientWins})
	for i := 0; i < 20; i++ {
		// every device submits against version 0; client_wins keeps them all
		_, err := c.SubmitMutation(ctx, mutation("u1", fmt.Sprintf("d%d", i%3), 0, fmt.Sprintf("p%d", i)))
		require.NoError(t, err)
	}
	history, err := c.GetHistory(ctx, "u1", store.HealthData, 0)
	require.NoError(t, err)
	require.Len(t, history, 20)
	for i, rec := range history {
		require.Equal(t, int64(i+1), rec.Version)
	}

	tail, err := c.GetHistory(ctx, "u1", store.HealthData, 18)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, int64(19), tail[0].Version)
}

func TestClientWinsOverwrites(t *testing.T) {
	ctx := context.Background()
	c, _ := newCoordinator(t, Options{})
	_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "first"))
	require.NoError(t, err)

	// equal base is never a conflict
	res, err := c.SubmitMutation(ctx, mutation("u1", "A", 1, "second"))
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Version)
	require.False(t, res.ConflictResolved)

	m := mutation("u1", "B", 1, "third")
	m.Strategy = conflict.ClientWins
	res, err = c.SubmitMutation(ctx, m)
	require.NoError(t, err)
	require.Equal(t, store.StatusCompleted, res.Status)
	require.Equal(t, int64(3), res.Version)
	require.True(t, res.ConflictResolved)
	require.Equal(t, []byte("third"), res.ResolvedPayload)

	history, err := c.GetHistory(ctx, "u1", store.HealthData, 2)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Resolution)
	require.True(t, history[0].Resolution.Overwrote)
	require.Equal(t, conflict.ClientWins, history[0].Resolution.Strategy)
}

func TestServerWinsLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	c, _ := newCoordinator(t, Options{})
	_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "v1"))
	require.NoError(t, err)
	_, err = c.SubmitMutation(ctx, mutation("u1", "A", 1, "v2"))
	require.NoError(t, err)

	res, err := c.SubmitMutation(ctx, mutation("u1", "B", 0, "stale"))
	require.NoError(t, err)
	require.Equal(t, store.StatusFailed, res.Status)
	require.False(t, res.Error.Retryable())

	version, payload, err := c.storage.GetCurrent(ctx, "u1", store.HealthData)
	require.NoError(t, err)
	require.Equal(t, int64(2), version)
	require.Equal(t, []byte("v2"), payload)
}

func TestIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	c, hub := newCoordinator(t, Options{})
	_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "same"))
	require.NoError(t, err)

	watch := notify.NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "W", watch))
	for len(watch.Events()) > 0 {
		<-watch.Events()
	}

	res, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "same"))
	require.NoError(t, err)
	require.True(t, res.Replayed)
	require.Equal(t, store.StatusCompleted, res.Status)
	require.Equal(t, int64(1), res.Version)
	require.Empty(t, watch.Events())

	history, err := c.GetHistory(ctx, "u1", store.HealthData, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestDeleteCommitsTombstone(t *testing.T) {
	ctx := context.Background()
	c, _ := newCoordinator(t, Options{})
	_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "v1"))
	require.NoError(t, err)
	res, err := c.SubmitMutation(ctx, Mutation{
		OwnerId:     "u1",
		DeviceId:    "A",
		DataType:    store.HealthData,
		Operation:   store.OperationDelete,
		BaseVersion: 1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Version)

	version, payload, err := c.storage.GetCurrent(ctx, "u1", store.HealthData)
	require.NoError(t, err)
	require.Equal(t, int64(2), version)
	require.Empty(t, payload)
}

func TestManualResolution(t *testing.T) {
	ctx := context.Background()
	c, hub := newCoordinator(t, Options{})
	_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "v1"))
	require.NoError(t, err)

	m := mutation("u1", "B", 0, "theirs")
	m.Strategy = conflict.Manual
	res, err := c.SubmitMutation(ctx, m)
	require.NoError(t, err)
	require.Equal(t, store.StatusPending, res.Status)
	require.Equal(t, CodeManualResolution, res.Error.Code)
	require.NotEmpty(t, res.SyncId)

	pending, err := c.PendingConflicts(ctx, "u1", store.HealthData)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, res.SyncId, pending[0].Id)

	tablet := notify.NewQueueChannel(10)
	require.NoError(t, hub.Register(ctx, "u1", "C", tablet))
	for len(tablet.Events()) > 0 {
		<-tablet.Events()
	}

	resolved, err := c.ResolveManualConflict(ctx, res.SyncId, []byte("merged"))
	require.NoError(t, err)
	require.Equal(t, store.StatusCompleted, resolved.Status)
	require.Equal(t, int64(2), resolved.Version)
	require.Equal(t, []byte("merged"), resolved.ResolvedPayload)

	env := <-tablet.Events()
	require.Equal(t, int64(2), env.Version)

	rec, err := c.storage.GetRecord(ctx, res.SyncId)
	require.NoError(t, err)
	require.Equal(t, store.StatusCompleted, rec.Status)
	require.Equal(t, []byte("merged"), rec.CommittedPayload())

	_, err = c.ResolveManualConflict(ctx, res.SyncId, []byte("again"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = c.ResolveManualConflict(ctx, uuid.NewString(), []byte("x"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newCoordinator(t, Options{MaxPayloadBytes: 8})
	cases := []Mutation{
		mutation("", "A", 0, "x"),
		mutation("u1", "", 0, "x"),
		mutation("u1", "A", -1, "x"),
		mutation("u1", "A", 0, ""),
		mutation("u1", "A", 0, "way too large"),
		{OwnerId: "u1", DeviceId: "A", DataType: "weather", Operation: store.OperationUpdate, Payload: []byte("x")},
		{OwnerId: "u1", DeviceId: "A", DataType: store.HealthData, Operation: "upsert", Payload: []byte("x")},
		{OwnerId: "u1", DeviceId: "A", DataType: store.HealthData, Operation: store.OperationCreate, Payload: []byte("x"), Strategy: "last_write_wins"},
	}
	for i, m := range cases {
		res, err := c.SubmitMutation(ctx, m)
		require.ErrorIs(t, err, ErrValidation, "case %d", i)
		require.Equal(t, CodeValidation, res.Error.Code)
	}
	_, err := c.GetHistory(ctx, "u1", "weather", 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCustomStrategy(t *testing.T) {
	ctx := context.Background()
	resolver := conflict.NewResolver()
	resolver.Register("concat", func(in conflict.Input) conflict.Decision {
		return conflict.Decision{
			Accepted: true,
			Payload:  append(append([]byte{}, in.CurrentPayload...), in.IncomingPayload...),
			Version:  in.CurrentVersion + 1,
		}
	})
	c := New(newStorage(t), resolver, notify.NewHub(notify.NewRingBuffer(10)), nil, Options{})
	_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "ab"))
	require.NoError(t, err)
	m := mutation("u1", "B", 0, "cd")
	m.Strategy = "concat"
	res, err := c.SubmitMutation(ctx, m)
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), res.CurrentPayload)
}

func TestConcurrentSubmissionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)
	hub := notify.NewHub(notify.NewRingBuffer(10))
	// two coordinators over one store behave like two instances; only the
	// storage CAS stands between them
	coordinators := []*Coordinator{
		New(storage, nil, hub, nil, Options{}),
		New(storage, nil, hub, nil, Options{}),
	}

	var wg sync.WaitGroup
	results := make(chan Result, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := coordinators[i%2].SubmitMutation(ctx, mutation("u1", fmt.Sprintf("d%d", i), 0, fmt.Sprintf("p%d", i)))
			if err == nil {
				results <- res
			}
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for res := range results {
		if res.Status == store.StatusCompleted {
			winners++
			require.Equal(t, int64(1), res.Version)
			continue
		}
		require.ErrorIs(t, res.Error, ErrVersionConflict)
	}
	require.Equal(t, 1, winners)

	history, err := storage.ListHistory(ctx, "u1", store.HealthData, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

type blockingStorage struct {
	store.SyncStorage
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStorage) GetCurrent(ctx context.Context, ownerID string, dataType store.DataType) (int64, []byte, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.SyncStorage.GetCurrent(ctx, ownerID, dataType)
}

func TestLockTimeout(t *testing.T) {
	ctx := context.Background()
	storage := &blockingStorage{SyncStorage: newStorage(t), entered: make(chan struct{}, 1), release: make(chan struct{})}
	c := New(storage, nil, notify.NewHub(notify.NewRingBuffer(10)), nil, Options{LockTimeout: 50 * time.Millisecond})

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitMutation(ctx, mutation("u1", "A", 0, "slow"))
		done <- err
	}()
	<-storage.entered

	res, err := c.SubmitMutation(ctx, mutation("u1", "B", 0, "blocked"))
	require.ErrorIs(t, err, ErrLockTimeout)
	require.True(t, res.Error.Retryable())

	// other keys are not blocked
	other := mutation("u2", "A", 0, "free")
	go func() {
		<-storage.entered
		storage.release <- struct{}{}
	}()
	_, err = c.SubmitMutation(ctx, other)
	require.NoError(t, err)

	storage.release <- struct{}{}
	require.NoError(t, <-done)
	require.Equal(t, 0, c.locks.size())
}

// requireFailedAttempt checks that a failed commit left one failed audit
// row, no version and no held lock.
func requireFailedAttempt(t *testing.T, c *Coordinator, storage store.SyncStorage, code ErrorCode) {
	ctx := context.Background()
	audit, err := storage.ListRecords(ctx, "u1", store.HealthData, "")
	require.NoError(t, err)
	require.Len(t, audit, 1)
	require.Equal(t, store.StatusFailed, audit[0].Status)
	require.NotNil(t, audit[0].Error)
	require.Equal(t, string(code), audit[0].Error.Code)

	version, payload, err := storage.GetCurrent(ctx, "u1", store.HealthData)
	require.NoError(t, err)
	require.Equal(t, int64(0), version)
	require.Nil(t, payload)
	require.Equal(t, 0, c.locks.size())
}

func TestApplyFailureLeavesNoState(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)
	hub := notify.NewHub(notify.NewRingBuffer(10))
	applier := ApplierFunc(func(ctx context.Context, dataType store.DataType, op store.Operation, current, incoming []byte) ([]byte, error) {
		return nil, errors.New("payload is not valid json")
	})
	c := New(storage, conflict.NewResolver(), hub, nil, Options{Applier: applier})
	watch := notify.NewQueueChannel(10)
	require.NoError(t, c.RegisterDevice(ctx, "u1", "watch", watch))

	res, err := c.SubmitMutation(ctx, mutation("u1", "phone", 0, "{"))
	require.ErrorIs(t, err, &SyncError{Code: CodeApplyFailed})
	require.Equal(t, store.StatusFailed, res.Status)
	require.Equal(t, CodeApplyFailed, res.Error.Code)
	require.False(t, res.Error.Retryable())
	requireFailedAttempt(t, c, storage, CodeApplyFailed)

	select {
	case env := <-watch.Events():
		t.Fatalf("unexpected envelope for version %d", env.Version)
	default:
	}
}

// unavailableStorage fails every completed append, as a database that drops
// the commit transaction would.
type unavailableStorage struct {
	store.SyncStorage
}

func (s *unavailableStorage) AppendRecord(ctx context.Context, rec store.SyncRecord, state []byte) error {
	if rec.Status == store.StatusCompleted {
		return fmt.Errorf("%w: connection refused", store.ErrStorageUnavailable)
	}
	return s.SyncStorage.AppendRecord(ctx, rec, state)
}

func TestStorageFailureLeavesNoState(t *testing.T) {
	ctx := context.Background()
	storage := &unavailableStorage{SyncStorage: newStorage(t)}
	c := New(storage, conflict.NewResolver(), notify.NewHub(notify.NewRingBuffer(10)), nil, Options{})

	res, err := c.SubmitMutation(ctx, mutation("u1", "phone", 0, `{"hr":70}`))
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.ErrorIs(t, err, store.ErrStorageUnavailable)
	require.Equal(t, store.StatusFailed, res.Status)
	require.Equal(t, CodeStorage, res.Error.Code)
	require.True(t, res.Error.Retryable())
	requireFailedAttempt(t, c, storage, CodeStorage)

	// the key is usable again once storage recovers
	recovered := New(storage.SyncStorage, conflict.NewResolver(), notify.NewHub(notify.NewRingBuffer(10)), nil, Options{})
	res, err = recovered.SubmitMutation(ctx, mutation("u1", "phone", 0, `{"hr":70}`))
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Version)
}

func TestCallerCancellationReleasesLock(t *testing.T) {
	l := newKeyedLock(time.Second)
	key := lockKey{"u1", store.HealthData}
	release, err := l.acquire(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.acquire(ctx, key)
	require.ErrorIs(t, err, ErrLockTimeout)
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	release()
	release()
	require.Equal(t, 0, l.size())

	again, err := l.acquire(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestSyncErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(CodeStorage, store.ErrStorageUnavailable, "write failed"))
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.ErrorIs(t, err, store.ErrStorageUnavailable)
	require.NotErrorIs(t, err, ErrLockTimeout)
	require.Equal(t, CodeStorage, CodeOf(err))
	require.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
