package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mnacademy/academy/models"
)

// Local is the durable per-device fallback store: one SQLite row per
// learner holding that learner's certificate records as a JSON array.
// It keeps issuance and verification working while the remote store is
// unreachable, and caches everything this device has seen.
type Local struct {
	db *sql.DB
}

// OpenLocal creates or opens the fallback database at the given path.
// SQLite supports a single writer, so the pool is pinned to one
// connection; together with the transactional read-modify-write in
// Append this serializes concurrent issuance on the same device.
func OpenLocal(path string) (*Local, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to local store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS learner_certificates (
		learner_id TEXT PRIMARY KEY,
		records    TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Local{db: db}, nil
}

func (l *Local) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// ListByLearner returns the cached records for one learner. A learner with
// no row simply has no records.
func (l *Local) ListByLearner(ctx context.Context, learnerID string) ([]models.Certificate, error) {
	var raw string
	err := l.db.QueryRowContext(ctx,
		`SELECT records FROM learner_certificates WHERE learner_id = ?`, learnerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read local records for learner %s: %w", learnerID, err)
	}
	return decodeRecords(raw)
}

// Append atomically adds a record to a learner's array, replacing any
// existing entry with the same certificate number. The read-modify-write
// runs inside a transaction so racing issuance calls on one device cannot
// lose updates.
func (l *Local) Append(ctx context.Context, learnerID string, cert models.Certificate) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin local write: %w", err)
	}
	defer tx.Rollback()

	var raw string
	var records []models.Certificate
	err = tx.QueryRowContext(ctx,
		`SELECT records FROM learner_certificates WHERE learner_id = ?`, learnerID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		records = nil
	case err != nil:
		return fmt.Errorf("failed to read local records for learner %s: %w", learnerID, err)
	default:
		if records, err = decodeRecords(raw); err != nil {
			return err
		}
	}

	replaced := false
	for i := range records {
		if strings.EqualFold(records[i].CertificateNumber, cert.CertificateNumber) {
			records[i] = cert
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, cert)
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode local records: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO learner_certificates (learner_id, records) VALUES (?, ?)
		 ON CONFLICT(learner_id) DO UPDATE SET records = excluded.records`,
		learnerID, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to write local records for learner %s: %w", learnerID, err)
	}

	return tx.Commit()
}

// FindByCode scans every learner's cached records for a case-insensitive
// exact match. Verification is not scoped to one learner, so the whole
// device cache is searched.
func (l *Local) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT records FROM learner_certificates`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local store: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan local row: %w", err)
		}
		records, err := decodeRecords(raw)
		if err != nil {
			return nil, err
		}
		for i := range records {
			if strings.EqualFold(records[i].CertificateNumber, code) {
				return &records[i], nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan local store: %w", err)
	}

	return nil, ErrNotFound
}

// ListFallback returns every record this device created while the remote
// store was unreachable and has not yet reconciled.
func (l *Local) ListFallback(ctx context.Context) ([]models.Certificate, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT records FROM learner_certificates`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local store: %w", err)
	}
	defer rows.Close()

	var pending []models.Certificate
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan local row: %w", err)
		}
		records, err := decodeRecords(raw)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if record.Source == models.SourceLocalFallback {
				pending = append(pending, record)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan local store: %w", err)
	}

	return pending, nil
}

func decodeRecords(raw string) ([]models.Certificate, error) {
	var records []models.Certificate
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode local records: %w", err)
	}
	return records, nil
}
