package store

import "github.com/breez/device-sync/conflict"

// RecordColumns is the column order used by Row.Values and Row.ScanDest.
const RecordColumns = "id, owner_id, device_id, data_type, operation, version, base_version, status, payload, " +
	"strategy, resolved_payload, resolved_at, overwrote, error_code, error_message, created_at, synced_at"

// Row is the flat column layout the SQL backends persist a SyncRecord as.
// Absent optional values are stored as empty strings and zero timestamps.
type Row struct {
	Id              string
	OwnerId         string
	DeviceId        string
	DataType        string
	Operation       string
	Version         int64
	BaseVersion     int64
	Status          string
	Payload         []byte
	Strategy        string
	ResolvedPayload []byte
	ResolvedAt      int64
	Overwrote       bool
	ErrorCode       string
	ErrorMessage    string
	CreatedAt       int64
	SyncedAt        int64
}

func NewRow(rec SyncRecord) Row {
	r := Row{
		Id:          rec.Id,
		OwnerId:     rec.OwnerId,
		DeviceId:    rec.DeviceId,
		DataType:    string(rec.DataType),
		Operation:   string(rec.Operation),
		Version:     rec.Version,
		BaseVersion: rec.BaseVersion,
		Status:      string(rec.Status),
		Payload:     rec.Payload,
		CreatedAt:   toMillis(rec.CreatedAt),
		SyncedAt:    toMillis(rec.SyncedAt),
	}
	if rec.Resolution != nil {
		r.Strategy = string(rec.Resolution.Strategy)
		r.ResolvedPayload = rec.Resolution.ResolvedPayload
		r.ResolvedAt = toMillis(rec.Resolution.ResolvedAt)
		r.Overwrote = rec.Resolution.Overwrote
	}
	if rec.Error != nil {
		r.ErrorCode = rec.Error.Code
		r.ErrorMessage = rec.Error.Message
	}
	return r
}

func (r Row) Values() []any {
	return []any{
		r.Id, r.OwnerId, r.DeviceId, r.DataType, r.Operation, r.Version, r.BaseVersion, r.Status, r.Payload,
		r.Strategy, r.ResolvedPayload, r.ResolvedAt, r.Overwrote, r.ErrorCode, r.ErrorMessage, r.CreatedAt, r.SyncedAt,
	}
}

func (r *Row) ScanDest() []any {
	return []any{
		&r.Id, &r.OwnerId, &r.DeviceId, &r.DataType, &r.Operation, &r.Version, &r.BaseVersion, &r.Status, &r.Payload,
		&r.Strategy, &r.ResolvedPayload, &r.ResolvedAt, &r.Overwrote, &r.ErrorCode, &r.ErrorMessage, &r.CreatedAt, &r.SyncedAt,
	}
}

func (r Row) Record() SyncRecord {
	rec := SyncRecord{
		Id:          r.Id,
		OwnerId:     r.OwnerId,
		DeviceId:    r.DeviceId,
		DataType:    DataType(r.DataType),
		Operation:   Operation(r.Operation),
		Version:     r.Version,
		BaseVersion: r.BaseVersion,
		Status:      Status(r.Status),
		Payload:     r.Payload,
		CreatedAt:   fromMillis(r.CreatedAt),
		SyncedAt:    fromMillis(r.SyncedAt),
	}
	if r.Strategy != "" {
		rec.Resolution = &ConflictResolution{
			Strategy:        conflict.Strategy(r.Strategy),
			ResolvedPayload: r.ResolvedPayload,
			ResolvedAt:      fromMillis(r.ResolvedAt),
			Overwrote:       r.Overwrote,
		}
	}
	if r.ErrorCode != "" {
		rec.Error = &RecordError{Code: r.ErrorCode, Message: r.ErrorMessage}
	}
	return rec
}

// FinalizeValues are the mutable columns FinalizeRecord rewrites, in the
// order the backends bind them.
func (r Row) FinalizeValues() []any {
	return []any{
		r.Version, r.Status, r.Strategy, r.ResolvedPayload, r.ResolvedAt, r.Overwrote, r.ErrorCode, r.ErrorMessage, r.SyncedAt,
	}
}
