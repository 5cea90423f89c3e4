package sqlite

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
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	gosqlite "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

var recordPlaceholders = strings.TrimSuffix(strings.Repeat("?, ", 17), ", ")

type SQLiteSyncStorage struct {
	db *sql.DB
}

func NewSQLiteSyncStorage(file string) (*SQLiteSyncStorage, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database %w", err)
	}

	// sqlite has a single writer; funnel everything through one connection
	// so concurrent commits queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver %w", err)
	}
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration source %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to instantiate migrations %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations %w", err)
	}
	return &SQLiteSyncStorage{db: db}, nil
}

func (s *SQLiteSyncStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteSyncStorage) AppendRecord(ctx context.Context, rec store.SyncRecord, state []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("failed to begin transaction", err)
	}
	defer tx.Rollback()

	row := store.NewRow(rec)
	_, err = tx.ExecContext(ctx,
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
	if err := tx.Commit(); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

func (s *SQLiteSyncStorage) FinalizeRecord(ctx context.Context, rec store.SyncRecord, state []byte) error {
	if !rec.Status.Terminal() {
		return fmt.Errorf("cannot finalize record %v with status %q", rec.Id, rec.Status)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, "SELECT status FROM sync_records WHERE id = ?", rec.Id).Scan(&status)
	if err == sql.ErrNoRows {
		return store.ErrRecordNotFound
	}
	if err != nil {
		return classify("failed to get record status", err)
	}
	if store.Status(status) != store.StatusPending {
		return store.ErrRecordNotPending
	}

	row := store.NewRow(rec)
	res, err := tx.ExecContext(ctx,
		`UPDATE sync_records SET version = ?, status = ?, strategy = ?, resolved_payload = ?, resolved_at = ?,
		 overwrote = ?, error_code = ?, error_message = ?, synced_at = ?
		 WHERE id = ? AND status = 'pending'`,
		append(row.FinalizeValues(), rec.Id)...)
	if err != nil {
		return classify("failed to update record", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return store.ErrRecordNotPending
	}
	if rec.Status == store.StatusCompleted {
		if err := advanceVersion(ctx, tx, rec, state); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

// advanceVersion moves the owner's state from rec.Version-1 to rec.Version.
// Zero affected rows means someone else already committed that version.
func advanceVersion(ctx context.Context, tx *sql.Tx, rec store.SyncRecord, state []byte) error {
	if rec.Version < 1 {
		return fmt.Errorf("invalid committed version %d", rec.Version)
	}
	now := time.Now().UnixMilli()
	var res sql.Result
	var err error
	if rec.Version == 1 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO owner_versions (owner_id, data_type, version, payload, updated_at) VALUES (?, ?, 1, ?, ?)
			 ON CONFLICT (owner_id, data_type) DO NOTHING`,
			rec.OwnerId, string(rec.DataType), state, now)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE owner_versions SET version = ?, payload = ?, updated_at = ?
			 WHERE owner_id = ? AND data_type = ? AND version = ?`,
			rec.Version, state, now, rec.OwnerId, string(rec.DataType), rec.Version-1)
	}
	if err != nil {
		return classify("failed to advance owner version", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("failed to read affected rows", err)
	}
	if n != 1 {
		return store.ErrDuplicateVersion
	}
	return nil
}

func (s *SQLiteSyncStorage) GetCurrent(ctx context.Context, ownerID string, dataType store.DataType) (int64, []byte, error) {
	var version int64
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT version, payload FROM owner_versions WHERE owner_id = ? AND data_type = ?",
		ownerID, string(dataType)).Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, classify("failed to get current version", err)
	}
	return version, payload, nil
}

func (s *SQLiteSyncStorage) GetRecord(ctx context.Context, id string) (store.SyncRecord, error) {
	var row store.Row
	err := s.db.QueryRowContext(ctx,
		"SELECT "+store.RecordColumns+" FROM sync_records WHERE id = ?", id).Scan(row.ScanDest()...)
	if err == sql.ErrNoRows {
		return store.SyncRecord{}, store.ErrRecordNotFound
	}
	if err != nil {
		return store.SyncRecord{}, classify("failed to get record", err)
	}
	return row.Record(), nil
}

func (s *SQLiteSyncStorage) ListHistory(ctx context.Context, ownerID string, dataType store.DataType, sinceVersion int64) ([]store.SyncRecord, error) {
	return s.query(ctx,
		"SELECT "+store.RecordColumns+` FROM sync_records
		 WHERE owner_id = ? AND data_type = ? AND status = 'completed' AND version > ?
		 ORDER BY version`,
		ownerID, string(dataType), sinceVersion)
}

func (s *SQLiteSyncStorage) ListRecords(ctx context.Context, ownerID string, dataType store.DataType, status store.Status) ([]store.SyncRecord, error) {
	if status == "" {
		return s.query(ctx,
			"SELECT "+store.RecordColumns+" FROM sync_records WHERE owner_id = ? AND data_type = ? ORDER BY created_at, rowid",
			ownerID, string(dataType))
	}
	return s.query(ctx,
		"SELECT "+store.RecordColumns+" FROM sync_records WHERE owner_id = ? AND data_type = ? AND status = ? ORDER BY created_at, rowid",
		ownerID, string(dataType), string(status))
}

func (s *SQLiteSyncStorage) query(ctx context.Context, query string, args ...any) ([]store.SyncRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	var sqliteErr gosqlite.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == gosqlite.ErrConstraintUnique:
			return fmt.Errorf("%s: %w", msg, store.ErrDuplicateVersion)
		case sqliteErr.Code == gosqlite.ErrBusy, sqliteErr.Code == gosqlite.ErrLocked, sqliteErr.Code == gosqlite.ErrIoErr:
			return fmt.Errorf("%s: %w: %w", msg, store.ErrStorageUnavailable, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %w", msg, store.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
