package store

import (
	"testing"
	"time"

	"github.com/breez/device-sync/conflict"
	"github.com/stretchr/testify/require"
)

func TestEnumerations(t *testing.T) {
	require.True(t, HealthData.Valid())
	require.True(t, MedicationRecords.Valid())
	require.False(t, DataType("shopping_list").Valid())

	require.True(t, OperationDelete.Valid())
	require.False(t, Operation("upsert").Valid())

	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusFailed.Terminal())
	require.False(t, StatusPending.Terminal())
}

func TestRowConversion(t *testing.T) {
	now := Timestamp(time.Now())
	rec := SyncRecord{
		Id:          "sync-1",
		OwnerId:     "u1",
		DeviceId:    "a",
		DataType:    HealthData,
		Operation:   OperationUpdate,
		Version:     4,
		BaseVersion: 2,
		Status:      StatusCompleted,
		Payload:     []byte(`{"hr":70}`),
		Resolution: &ConflictResolution{
			Strategy:        conflict.ClientWins,
			ResolvedPayload: []byte(`{"hr":70}`),
			ResolvedAt:      now,
			Overwrote:       true,
		},
		CreatedAt: now,
		SyncedAt:  now,
	}
	require.Equal(t, rec, NewRow(rec).Record())
	require.Len(t, NewRow(rec).Values(), len(new(Row).ScanDest()))

	failed := SyncRecord{
		Id:        "sync-2",
		OwnerId:   "u1",
		DeviceId:  "b",
		DataType:  HealthData,
		Operation: OperationUpdate,
		Status:    StatusFailed,
		Payload:   []byte(`{"hr":72}`),
		Error:     &RecordError{Code: "VERSION_CONFLICT", Message: "stale"},
		CreatedAt: now,
	}
	row := NewRow(failed)
	require.Equal(t, int64(0), row.SyncedAt)
	require.Equal(t, failed, row.Record())
}

func TestCommittedPayload(t *testing.T) {
	rec := SyncRecord{Payload: []byte("submitted")}
	require.Equal(t, []byte("submitted"), rec.CommittedPayload())

	rec.Resolution = &ConflictResolution{Strategy: conflict.Manual, ResolvedPayload: []byte("resolved")}
	require.Equal(t, []byte("resolved"), rec.CommittedPayload())
}
