package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/breez/device-sync/store"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var recordPlaceholders = placeholders(1, 17)

type PgSyncStorage struct {
	db *pgxpool.Pool
}

func NewPGSyncStorage(databaseURL string) (*PgSyncStorage, error) {
	if err := runMigrations(databaseURL); err != nil {
		return nil, err
	}
	pgxPool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New(%v): %w", databaseURL, err)
	}
	return &PgSyncStorage{db: pgxPool}, nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open postgres database %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver %w", err)
	}
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "device-sync", driver)
	if err != nil {
		return fmt.Errorf("failed to instantiate migrations %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations %w", err)
	}
	return nil
}

func (s *PgSyncStorage) Close() error {
	s.db.Close()
	return nil
}

func (s *PgSyncStorage) AppendRecord(ctx context.Context, rec store.SyncRecord, state []byte) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify("failed to begin transaction", err)
	}
	defer tx.Rollback(context.Background())

	row := store.NewRow(rec)
	_, err = tx.Exec(ctx,
		"INSERT INTO sync_records ("+store.RecordColumns+") VALUES ("+recordPlaceholders+")",
		row.Values()...)
	if err != nil {
		return classify("failed to insert record", err)
	}
	if rec.Status == store.StatusCompleted {
		if err := advanceVersion(ctx, tx, rec, state); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

func (s *PgSyncStorage) FinalizeRecord(ctx context.Context, rec store.SyncRecord, state []byte) error {
	if !rec.Status.Terminal() {
		return fmt.Errorf("cannot finalize record %v with status %q", rec.Id, rec.Status)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify("failed to begin transaction", err)
	}
	defer tx.Rollback(context.Background())

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM sync_records WHERE id = $1 FOR UPDATE", rec.Id).Scan(&status)
	if err == pgx.ErrNoRows {
		return store.ErrRecordNotFound
	}
	if err != nil {
		return classify("failed to get record status", err)
	}
	if store.Status(status) != store.StatusPending {
		return store.ErrRecordNotPending
	}

	row := store.NewRow(rec)
	tag, err := tx.Exec(ctx,
		`UPDATE sync_records SET version = $1, status = $2, strategy = $3, resolved_payload = $4, resolved_at = $5,
		 overwrote = $6, error_code = $7, error_message = $8, synced_at = $9
		 WHERE id = $10 AND status = 'pending'`,
		append(row.FinalizeValues(), rec.Id)...)
	if err != nil {
		return classify("failed to update record", err)
	}
	if tag.RowsAffected() != 1 {
		return store.ErrRecordNotPending
	}
	if rec.Status == store.StatusCompleted {
		if err := advanceVersion(ctx, tx, rec, state); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

// advanceVersion is the cross-instance compare-and-swap on the owner's
// version: it only succeeds if the state is still at rec.Version-1.
func advanceVersion(ctx context.Context, tx pgx.Tx, rec store.SyncRecord, state []byte) error {
	if rec.Version < 1 {
		return fmt.Errorf("invalid committed version %d", rec.Version)
	}
	now := time.Now().UnixMilli()
	var tag pgconn.CommandTag
	var err error
	if rec.Version == 1 {
		tag, err = tx.Exec(ctx,
			`INSERT INTO owner_versions (owner_id, data_type, version, payload, updated_at) VALUES ($1, $2, 1, $3, $4)
			 ON CONFLICT (owner_id, data_type) DO NOTHING`,
			rec.OwnerId, string(rec.DataType), state, now)
	} else {
		tag, err = tx.Exec(ctx,
			`UPDATE owner_versions SET version = $1, payload = $2, updated_at = $3
			 WHERE owner_id = $4 AND data_type = $5 AND version = $6`,
			rec.Version, state, now, rec.OwnerId, string(rec.DataType), rec.Version-1)
	}
	if err != nil {
		return classify("failed to advance owner version", err)
	}
	if tag.RowsAffected() != 1 {
		return store.ErrDuplicateVersion
	}
	return nil
}

func (s *PgSyncStorage) GetCurrent(ctx context.Context, ownerID string, dataType store.DataType) (int64, []byte, error) {
	var version int64
	var payload []byte
	err := s.db.QueryRow(ctx,
		"SELECT version, payload FROM owner_versions WHERE owner_id = $1 AND data_type = $2",
		ownerID, string(dataType)).Scan(&version, &payload)
	if err == pgx.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, classify("failed to get current version", err)
	}
	return version, payload, nil
}

func (s *PgSyncStorage) GetRecord(ctx context.Context, id string) (store.SyncRecord, error) {
	var row store.Row
	err := s.db.QueryRow(ctx,
		"SELECT "+store.RecordColumns+" FROM sync_records WHERE id = $1", id).Scan(row.ScanDest()...)
	if err == pgx.ErrNoRows {
		return store.SyncRecord{}, store.ErrRecordNotFound
	}
	if err != nil {
		return store.SyncRecord{}, classify("failed to get record", err)
	}
	return row.Record(), nil
}

func (s *PgSyncStorage) ListHistory(ctx context.Context, ownerID string, dataType store.DataType, sinceVersion int64) ([]store.SyncRecord, error) {
	return s.query(ctx,
		"SELECT "+store.RecordColumns+` FROM sync_records
		 WHERE owner_id = $1 AND data_type = $2 AND status = 'completed' AND version > $3
		 ORDER BY version`,
		ownerID, string(dataType), sinceVersion)
}

func (s *PgSyncStorage) ListRecords(ctx context.Context, ownerID string, dataType store.DataType, status store.Status) ([]store.SyncRecord, error) {
	if status == "" {
		return s.query(ctx,
			"SELECT "+store.RecordColumns+" FROM sync_records WHERE owner_id = $1 AND data_type = $2 ORDER BY seq",
			ownerID, string(dataType))
	}
	return s.query(ctx,
		"SELECT "+store.RecordColumns+" FROM sync_records WHERE owner_id = $1 AND data_type = $2 AND status = $3 ORDER BY seq",
		ownerID, string(dataType), string(status))
}

func (s *PgSyncStorage) query(ctx context.Context, query string, args ...any) ([]store.SyncRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("failed to query records", err)
	}
	defer rows.Close()

	records := make([]store.SyncRecord, 0)
	for rows.Next() {
		var row store.Row
		if err := rows.Scan(row.ScanDest()...); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, row.Record())
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to iterate records", err)
	}
	return records, nil
}

func classify(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w", msg, store.ErrDuplicateVersion)
		case pgErr.Code == pgerrcode.SerializationFailure,
			pgErr.Code == pgerrcode.DeadlockDetected,
			pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code):
			return fmt.Errorf("%s: %w: %w", msg, store.ErrStorageUnavailable, err)
		}
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", msg, store.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func placeholders(from, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}
