package store

import (
	"context"
	"errors"
)

var (
	ErrDuplicateVersion   = errors.New("version already committed")
	ErrRecordNotFound     = errors.New("record not found")
	ErrRecordNotPending   = errors.New("record is not pending")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SyncStorage is the durable record store behind the coordinator.
//
// AppendRecord inserts a new record. When the record is completed, the same
// transaction moves the owner's current state from rec.Version-1 to
// rec.Version with the given state payload; if another writer got there
// first ErrDuplicateVersion is returned and nothing is written.
//
// FinalizeRecord moves an existing pending record to its terminal status,
// applying the same rules when the record completes.
type SyncStorage interface {
	AppendRecord(ctx context.Context, rec SyncRecord, state []byte) error
	FinalizeRecord(ctx context.Context, rec SyncRecord, state []byte) error
	GetCurrent(ctx context.Context, ownerID string, dataType DataType) (int64, []byte, error)
	GetRecord(ctx context.Context, id string) (SyncRecord, error)
	ListHistory(ctx context.Context, ownerID string, dataType DataType, sinceVersion int64) ([]SyncRecord, error)
	ListRecords(ctx context.Context, ownerID string, dataType DataType, status Status) ([]SyncRecord, error)
	Close() error
}
