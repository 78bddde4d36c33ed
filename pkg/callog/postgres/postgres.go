// Package postgres provides a PostgreSQL implementation of callog.Store.
// It uses pgx/v5 for connection pooling and JSONB for normalized result
// storage.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/callog"
)

// Store is a PostgreSQL-backed callog.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements callog.Store at compile time.
var _ callog.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Save persists a call record, stamping it with the subject from the
// context when one is present.
func (s *Store) Save(ctx context.Context, rec *callog.CallRecord) error {
	if subject := callog.GetSubject(ctx); subject != "" {
		rec.Subject = subject
	}

	var resultJSON []byte
	if rec.Result != nil {
		var err error
		resultJSON, err = json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO call_records (
			id, subject, provider, model, status,
			result, error_type, error_message,
			duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.ID, rec.Subject, rec.Provider, rec.Model, rec.Status,
		nullJSON(resultJSON), nullString(rec.ErrorType), nullString(rec.ErrorMsg),
		rec.DurationMS, rec.CreatedAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return callog.ErrConflict
		}
		return fmt.Errorf("inserting call record: %w", err)
	}

	return nil
}

// Get retrieves a call record by ID. Scoped by subject when one is present
// in the context.
func (s *Store) Get(ctx context.Context, id string) (*callog.CallRecord, error) {
	query := `
		SELECT id, subject, provider, model, status,
		       result, error_type, error_message,
		       duration_ms, created_at
		FROM call_records
		WHERE id = $1
	`
	args := []any{id}

	if subject := callog.GetSubject(ctx); subject != "" {
		query += " AND subject = $2"
		args = append(args, subject)
	}

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, callog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying call record: %w", err)
	}

	return rec, nil
}

// List returns a paginated list of call records filtered by subject and
// optionally by provider and model, with cursor-based pagination. Records
// are ordered by creation time, newest first unless asc is requested.
func (s *Store) List(ctx context.Context, opts callog.ListOptions) (*callog.RecordList, error) {
	subject := callog.GetSubject(ctx)
	asc := opts.Order == "asc"

	query := `
		SELECT id, subject, provider, model, status,
		       result, error_type, error_message,
		       duration_ms, created_at
		FROM call_records
		WHERE 1=1
	`
	var args []any
	argIdx := 1

	if subject != "" {
		query += fmt.Sprintf(" AND subject = $%d", argIdx)
		args = append(args, subject)
		argIdx++
	}
	if opts.Provider != "" {
		query += fmt.Sprintf(" AND provider = $%d", argIdx)
		args = append(args, opts.Provider)
		argIdx++
	}
	if opts.Model != "" {
		query += fmt.Sprintf(" AND model = $%d", argIdx)
		args = append(args, opts.Model)
		argIdx++
	}

	// Resolve the cursor to its sort position. An unknown or foreign
	// cursor yields an empty page, matching the in-memory store.
	cursorID := opts.After
	if cursorID == "" {
		cursorID = opts.Before
	}
	if cursorID != "" {
		curQuery := "SELECT created_at, id FROM call_records WHERE id = $1"
		curArgs := []any{cursorID}
		if subject != "" {
			curQuery += " AND subject = $2"
			curArgs = append(curArgs, subject)
		}

		var curCreated int64
		var curID string
		err := s.pool.QueryRow(ctx, curQuery, curArgs...).Scan(&curCreated, &curID)
		if errors.Is(err, pgx.ErrNoRows) {
			return &callog.RecordList{Object: "list", Data: []*callog.CallRecord{}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolving cursor: %w", err)
		}

		// After advances in scan direction, Before takes the rows from
		// the top of the listing down to the cursor.
		forward, backward := "<", ">"
		if asc {
			forward, backward = ">", "<"
		}
		op := forward
		if opts.Before != "" {
			op = backward
		}

		query += fmt.Sprintf(" AND (created_at, id) %s ($%d, $%d)", op, argIdx, argIdx+1)
		args = append(args, curCreated, curID)
		argIdx += 2
	}

	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s", dir, dir)

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	// Fetch one extra row to detect whether more pages exist.
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying call records: %w", err)
	}
	defer rows.Close()

	records := []*callog.CallRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning call record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating call records: %w", err)
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	result := &callog.RecordList{
		Object:  "list",
		Data:    records,
		HasMore: hasMore,
	}
	if len(records) > 0 {
		result.FirstID = records[0].ID
		result.LastID = records[len(records)-1].ID
	}

	return result, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanRecord reads one call_records row into a CallRecord.
func scanRecord(row pgx.Row) (*callog.CallRecord, error) {
	var rec callog.CallRecord
	var resultJSON *[]byte
	var errorType, errorMsg *string

	if err := row.Scan(
		&rec.ID, &rec.Subject, &rec.Provider, &rec.Model, &rec.Status,
		&resultJSON, &errorType, &errorMsg,
		&rec.DurationMS, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	if resultJSON != nil {
		var result api.ChatResult
		if err := json.Unmarshal(*resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshaling result: %w", err)
		}
		rec.Result = &result
	}
	if errorType != nil {
		rec.ErrorType = *errorType
	}
	if errorMsg != nil {
		rec.ErrorMsg = *errorMsg
	}

	return &rec, nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
