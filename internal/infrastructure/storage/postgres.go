package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_records (
    id            TEXT PRIMARY KEY,
    created_at    TIMESTAMPTZ NOT NULL,
    status        TEXT NOT NULL,
    discovery     JSONB NOT NULL DEFAULT '{}'::jsonb,
    draft         JSONB NOT NULL DEFAULT '{}'::jsonb,
    results       JSONB NOT NULL DEFAULT '[]'::jsonb,
    approved_by   TEXT NOT NULL DEFAULT '',
    approved_at   TIMESTAMPTZ,
    rejected_by   TEXT NOT NULL DEFAULT '',
    reject_reason TEXT NOT NULL DEFAULT '',
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS content_records_status_idx ON content_records (status, created_at DESC);
`

// PostgresStore persists content records in Postgres. Status preconditions
// are enforced with row locks inside a transaction, so concurrent writers
// on the same id serialize and the loser observes a ConflictError.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the content_records table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Create inserts a new record.
func (s *PostgresStore) Create(ctx context.Context, record domain.ContentRecord) error {
	discovery, draft, results, err := marshalPayloads(record)
	if err != nil {
		return err
	}

	query, args, err := s.builder.
		Insert("content_records").
		Columns("id", "created_at", "status", "discovery", "draft", "results",
			"approved_by", "approved_at", "rejected_by", "reject_reason").
		Values(record.ID, record.CreatedAt, string(record.Status), discovery, draft, results,
			record.ApprovedBy, nullTime(record.ApprovedAt), record.RejectedBy, record.RejectReason).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetByID loads a single record.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.ContentRecord, error) {
	query, args, err := s.selectBuilder().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("build select: %w", err)
	}

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentRecord{}, domain.ErrRecordNotFound
	}
	return record, err
}

// List returns records with the given status, newest first.
func (s *PostgresStore) List(ctx context.Context, status domain.Status, limit int) ([]domain.ContentRecord, error) {
	builder := s.selectBuilder().OrderBy("created_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": string(status)})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.ContentRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// CompareAndUpdate locks the row, verifies the expected status, applies
// mutate, and writes the result back in one transaction.
func (s *PostgresStore) CompareAndUpdate(ctx context.Context, id string, expected domain.Status, mutate func(*domain.ContentRecord) error) (domain.ContentRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query, args, err := s.selectBuilder().Where(sq.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("build select: %w", err)
	}

	record, err := scanRecord(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.ContentRecord{}, err
	}

	if record.Status != expected {
		return domain.ContentRecord{}, &domain.ConflictError{ID: id, Expected: expected, Actual: record.Status}
	}

	if err := mutate(&record); err != nil {
		return domain.ContentRecord{}, err
	}

	discovery, draft, results, err := marshalPayloads(record)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	update, args, err := s.builder.
		Update("content_records").
		Set("status", string(record.Status)).
		Set("discovery", discovery).
		Set("draft", draft).
		Set("results", results).
		Set("approved_by", record.ApprovedBy).
		Set("approved_at", nullTime(record.ApprovedAt)).
		Set("rejected_by", record.RejectedBy).
		Set("reject_reason", record.RejectReason).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": string(expected)}).
		ToSql()
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("build update: %w", err)
	}

	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Unreachable under FOR UPDATE; kept as the CAS backstop.
		return domain.ContentRecord{}, &domain.ConflictError{ID: id, Expected: expected, Actual: record.Status}
	}

	if err := tx.Commit(); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("commit: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) selectBuilder() sq.SelectBuilder {
	return s.builder.
		Select("id", "created_at", "status", "discovery", "draft", "results",
			"approved_by", "approved_at", "rejected_by", "reject_reason").
		From("content_records")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.ContentRecord, error) {
	var (
		record     domain.ContentRecord
		status     string
		discovery  []byte
		draft      []byte
		results    []byte
		approvedAt sql.NullTime
	)

	err := row.Scan(&record.ID, &record.CreatedAt, &status, &discovery, &draft, &results,
		&record.ApprovedBy, &approvedAt, &record.RejectedBy, &record.RejectReason)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	record.Status = domain.Status(status)
	if approvedAt.Valid {
		record.ApprovedAt = approvedAt.Time
	}
	if err := json.Unmarshal(discovery, &record.Discovery); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("decode discovery: %w", err)
	}
	if err := json.Unmarshal(draft, &record.Draft); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("decode draft: %w", err)
	}
	if err := json.Unmarshal(results, &record.Results); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("decode results: %w", err)
	}
	return record, nil
}

func marshalPayloads(record domain.ContentRecord) (discovery, draft, results []byte, err error) {
	if discovery, err = json.Marshal(record.Discovery); err != nil {
		return nil, nil, nil, fmt.Errorf("encode discovery: %w", err)
	}
	if draft, err = json.Marshal(record.Draft); err != nil {
		return nil, nil, nil, fmt.Errorf("encode draft: %w", err)
	}
	if record.Results == nil {
		results = []byte("[]")
	} else if results, err = json.Marshal(record.Results); err != nil {
		return nil, nil, nil, fmt.Errorf("encode results: %w", err)
	}
	return discovery, draft, results, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
