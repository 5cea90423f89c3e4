package store

import (
	"time"

	"github.com/breez/device-sync/conflict"
)

type DataType string

const (
	HealthData        DataType = "health_data"
	UserPreferences   DataType = "user_preferences"
	ActivityRecords   DataType = "activity_records"
	DietRecords       DataType = "diet_records"
	MedicationRecords DataType = "medication_records"
	SleepRecords      DataType = "sleep_records"
	DeviceSettings    DataType = "device_settings"
)

var dataTypes = map[DataType]struct{}{
	HealthData:        {},
	UserPreferences:   {},
	ActivityRecords:   {},
	DietRecords:       {},
	MedicationRecords: {},
	SleepRecords:      {},
	DeviceSettings:    {},
}

func (d DataType) Valid() bool {
	_, ok := dataTypes[d]
	return ok
}

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type ConflictResolution struct {
	Strategy        conflict.Strategy
	ResolvedPayload []byte
	ResolvedAt      time.Time
	Overwrote       bool
}

type RecordError struct {
	Code    string
	Message string
}

// SyncRecord is one entry of the audit trail. Version is only meaningful for
// completed records; pending and failed ones carry 0 and keep the client's
// view in BaseVersion.
type SyncRecord struct {
	Id          string
	OwnerId     string
	DeviceId    string
	DataType    DataType
	Operation   Operation
	Version     int64
	BaseVersion int64
	Status      Status
	Payload     []byte
	Resolution  *ConflictResolution
	Error       *RecordError
	CreatedAt   time.Time
	SyncedAt    time.Time
}

// CommittedPayload is the payload that became the owner's state when the
// record completed: the resolved payload if a conflict was resolved,
// otherwise the submitted one.
func (r *SyncRecord) CommittedPayload() []byte {
	if r.Resolution != nil && r.Resolution.ResolvedPayload != nil {
		return r.Resolution.ResolvedPayload
	}
	return r.Payload
}

// Timestamp truncates t to the millisecond precision the stores keep.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
