package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/breez/device-sync/conflict"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// StoreTest is the conformance suite every SyncStorage backend runs.
type StoreTest struct{}

func newTestRecord(ownerID string, dataType DataType, version int64, payload []byte) SyncRecord {
	now := Timestamp(time.Now())
	return SyncRecord{
		Id:          uuid.New().String(),
		OwnerId:     ownerID,
		DeviceId:    "device-a",
		DataType:    dataType,
		Operation:   OperationUpdate,
		Version:     version,
		BaseVersion: version - 1,
		Status:      StatusCompleted,
		Payload:     payload,
		CreatedAt:   now,
		SyncedAt:    now,
	}
}

func (s *StoreTest) TestEmptyCurrent(t *testing.T, storage SyncStorage) {
	version, payload, err := storage.GetCurrent(context.Background(), uuid.New().String(), HealthData)
	require.NoError(t, err, "failed to call GetCurrent")
	require.Equal(t, int64(0), version)
	require.Nil(t, payload)
}

func (s *StoreTest) TestAppendRecords(t *testing.T, storage SyncStorage) {
	ctx := context.Background()
	ownerID := uuid.New().String()

	r1 := newTestRecord(ownerID, HealthData, 1, []byte(`{"hr":70}`))
	require.NoError(t, storage.AppendRecord(ctx, r1, r1.Payload), "failed to append v1")
	r2 := newTestRecord(ownerID, HealthData, 2, []byte(`{"hr":72}`))
	require.NoError(t, storage.AppendRecord(ctx, r2, r2.Payload), "failed to append v2")

	version, payload, err := storage.GetCurrent(ctx, ownerID, HealthData)
	require.NoError(t, err, "failed to call GetCurrent")
	require.Equal(t, int64(2), version)
	require.Equal(t, []byte(`{"hr":72}`), payload)

	history, err := storage.ListHistory(ctx, ownerID, HealthData, 0)
	require.NoError(t, err, "failed to list history")
	require.Equal(t, []SyncRecord{r1, r2}, history)

	history, err = storage.ListHistory(ctx, ownerID, HealthData, 1)
	require.NoError(t, err, "failed to list history since 1")
	require.Equal(t, []SyncRecord{r2}, history)

	// same owner, other data type starts from scratch
	other := newTestRecord(ownerID, DietRecords, 1, []byte("diet"))
	require.NoError(t, storage.AppendRecord(ctx, other, other.Payload))
	version, _, err = storage.GetCurrent(ctx, ownerID, DietRecords)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)

	// other owner, same data type
	anotherOwner := newTestRecord(uuid.New().String(), HealthData, 1, []byte("x"))
	require.NoError(t, storage.AppendRecord(ctx, anotherOwner, anotherOwner.Payload))
}

func (s *StoreTest) TestPayloadRoundTrip(t *testing.T, storage SyncStorage) {
	ctx := context.Background()
	ownerID := uuid.New().String()
	payload := []byte{0x00, 0xff, '{', '"', 0x7f, 0x80, '}', 0x00}

	rec := newTestRecord(ownerID, MedicationRecords, 1, payload)
	require.NoError(t, storage.AppendRecord(ctx, rec, payload))

	fetched, err := storage.GetRecord(ctx, rec.Id)
	require.NoError(t, err)
	require.Equal(t, payload, fetched.Payload)

	_, current, err := storage.GetCurrent(ctx, ownerID, MedicationRecords)
	require.NoError(t, err)
	require.Equal(t, payload, current)
}

func (s *StoreTest) TestDuplicateVersion(t *testing.T, storage SyncStorage) {
	ctx := context.Background()
	ownerID := uuid.New().String()

	r1 := newTestRecord(ownerID, HealthData, 1, []byte("first"))
	require.NoError(t, storage.AppendRecord(ctx, r1, r1.Payload))

	dup := newTestRecord(ownerID, HealthData, 1, []byte("second"))
	err := storage.AppendRecord(ctx, dup, dup.Payload)
	require.ErrorIs(t, err, ErrDuplicateVersion)

	// skipping ahead fails the compare-and-swap as well
	gap := newTestRecord(ownerID, HealthData, 3, []byte("third"))
	err = storage.AppendRecord(ctx, gap, gap.Payload)
	require.ErrorIs(t, err, ErrDuplicateVersion)

	version, payload, err := storage.GetCurrent(ctx, ownerID, HealthData)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
	require.Equal(t, []byte("first"), payload)

	_, err = storage.GetRecord(ctx, dup.Id)
	require.ErrorIs(t, err, ErrRecordNotFound, "rejected record must not be persisted")
}

func (s *StoreTest) TestConcurrentAppend(t *testing.T, storage SyncStorage) {
	ctx := context.Background()
	ownerID := uuid.New().String()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := newTestRecord(ownerID, ActivityRecords, 1, []byte("race"))
			errs <- storage.AppendRecord(ctx, rec, rec.Payload)
		}()
	}
	wg.Wait()
	close(errs)

	winners := 0
	for err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateVersion)
	}
	require.Equal(t, 1, winners)

	history, err := storage.ListHistory(ctx, ownerID, ActivityRecords, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func (s *StoreTest) TestAuditRecords(t *testing.T, storage SyncStorage) {
	ctx := context.Background()
	ownerID := uuid.New().String()
	now := Timestamp(time.Now())

	committed := newTestRecord(ownerID, HealthData, 1, []byte("v1"))
	require.NoError(t, storage.AppendRecord(ctx, committed, committed.Payload))

	failed := SyncRecord{
		Id:          uuid.New().String(),
		OwnerId:     ownerID,
		DeviceId:    "device-b",
		DataType:    HealthData,
		Operation:   OperationUpdate,
		BaseVersion: 0,
		Status:      StatusFailed,
		Payload:     []byte("stale"),
		Error:       &RecordError{Code: "VERSION_CONFLICT", Message: "stale base version"},
		CreatedAt:   now,
		SyncedAt:    now,
	}
	require.NoError(t, storage.AppendRecord(ctx, failed, nil))

	pending := SyncRecord{
		Id:          uuid.New().String(),
		OwnerId:     ownerID,
		DeviceId:    "device-c",
		DataType:    HealthData,
		Operation:   OperationUpdate,
		BaseVersion: 0,
		Status:      StatusPending,
		Payload:     []byte("needs review"),
		Resolution:  &ConflictResolution{Strategy: conflict.Manual},
		CreatedAt:   now,
	}
	require.NoError(t, storage.AppendRecord(ctx, pending, nil))

	history, err := storage.ListHistory(ctx, ownerID, HealthData, 0)
	require.NoError(t, err)
	require.Equal(t, []SyncRecord{committed}, history, "history only lists committed records")

	records, err := storage.ListRecords(ctx, ownerID, HealthData, StatusFailed)
	require.NoError(t, err)
	require.Equal(t, []SyncRecord{failed}, records)

	records, err = storage.ListRecords(ctx, ownerID, HealthData, "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	fetched, err := storage.GetRecord(ctx, pending.Id)
	require.NoError(t, err)
	require.Equal(t, pending, fetched)

	version, _, err := storage.GetCurrent(ctx, ownerID, HealthData)
	require.NoError(t, err)
	require.Equal(t, int64(1), version, "failed and pending records do not move the state")
}

func (s *StoreTest) TestFinalizeRecord(t *testing.T, storage SyncStorage) {
	ctx := context.Background()
	ownerID := uuid.New().String()
	now := Timestamp(time.Now())

	pending := SyncRecord{
		Id:          uuid.New().String(),
		OwnerId:     ownerID,
		DeviceId:    "device-a",
		DataType:    UserPreferences,
		Operation:   OperationCreate,
		Status:      StatusPending,
		Payload:     []byte("theme=dark"),
		Resolution:  &ConflictResolution{Strategy: conflict.Manual},
		CreatedAt:   now,
	}
	require.NoError(t, storage.AppendRecord(ctx, pending, nil))

	done := pending
	done.Status = StatusCompleted
	done.Version = 1
	done.SyncedAt = now
	done.Resolution = &ConflictResolution{
		Strategy:        conflict.Manual,
		ResolvedPayload: []byte("theme=light"),
		ResolvedAt:      now,
	}
	require.NoError(t, storage.FinalizeRecord(ctx, done, []byte("theme=light")))

	fetched, err := storage.GetRecord(ctx, pending.Id)
	require.NoError(t, err)
	require.Equal(t, done, fetched)

	version, payload, err := storage.GetCurrent(ctx, ownerID, UserPreferences)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
	require.Equal(t, []byte("theme=light"), payload)

	err = storage.FinalizeRecord(ctx, done, []byte("again"))
	require.ErrorIs(t, err, ErrRecordNotPending, "terminal records are immutable")

	missing := done
	missing.Id = uuid.New().String()
	err = storage.FinalizeRecord(ctx, missing, nil)
	require.ErrorIs(t, err, ErrRecordNotFound)
}
