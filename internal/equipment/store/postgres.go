package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

var _ usecase.Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS datasets (
    seq          BIGSERIAL PRIMARY KEY,
    id           TEXT        NOT NULL UNIQUE,
    owner        TEXT        NOT NULL,
    filename     TEXT        NOT NULL,
    uploaded_at  TIMESTAMPTZ NOT NULL,
    rows         JSONB       NOT NULL,
    summary      JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS datasets_owner_recent_idx ON datasets (owner, uploaded_at DESC, seq DESC);
`

const postgresSelect = `SELECT seq, id, owner, filename, uploaded_at, rows, summary FROM datasets`

const defaultPingTimeout = 5 * time.Second

// NewPostgresPool opens a pgx pool and validates the connection.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: empty DSN")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return pool, nil
}

// PostgresStore keeps one row per dataset. The BIGSERIAL primary key is the
// insertion sequence; rows and summary are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
	id   pkguid.StringID
}

func NewPostgresStore(pool *pgxpool.Pool, id pkguid.StringID) *PostgresStore {
	return &PostgresStore{pool: pool, id: id}
}

// Migrate creates the datasets table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate datasets: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, owner string, nd entity.NewDataset) (entity.Dataset, error) {
	defer observe("put", DriverPostgres, time.Now())

	rows, err := json.Marshal(toRows(nd.Rows))
	if err != nil {
		return entity.Dataset{}, fmt.Errorf("encode rows: %w", err)
	}
	summary, err := json.Marshal(toSummary(nd.Summary))
	if err != nil {
		return entity.Dataset{}, fmt.Errorf("encode summary: %w", err)
	}

	id := s.id.Generate()
	uploadedAt := nd.UploadedAt.UTC()

	var seq int64
	err = s.pool.QueryRow(ctx, `
        INSERT INTO datasets (id, owner, filename, uploaded_at, rows, summary)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING seq
    `, id, owner, nd.Filename, uploadedAt, rows, summary).Scan(&seq)
	if err != nil {
		return entity.Dataset{}, classifyPostgresErr("put", err)
	}

	return newDataset(id, owner, seq, nd), nil
}

// classifyPostgresErr keeps SQLSTATE class 22 (data exception) apart from
// outages so a bad upload does not open the storage breaker.
func classifyPostgresErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "22") {
		return &entity.RejectedError{Op: op, Err: err}
	}
	return entity.NewStorageError(op, err)
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]entity.Dataset, error) {
	defer observe("list", DriverPostgres, time.Now())

	rows, err := s.pool.Query(ctx, postgresSelect+` WHERE owner = $1 ORDER BY uploaded_at DESC, seq DESC`, owner)
	if err != nil {
		return nil, entity.NewStorageError("list", err)
	}
	defer rows.Close()

	out := []entity.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, entity.NewStorageError("list", err)
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, entity.NewStorageError("list", err)
	}

	return out, nil
}

func (s *PostgresStore) Latest(ctx context.Context, owner string) (entity.Dataset, error) {
	defer observe("latest", DriverPostgres, time.Now())

	row := s.pool.QueryRow(ctx, postgresSelect+` WHERE owner = $1 ORDER BY uploaded_at DESC, seq DESC LIMIT 1`, owner)
	ds, err := scanDataset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.Dataset{}, entity.NewStorageError("latest", err)
	}

	return ds, nil
}

func scanDataset(row pgx.Row) (entity.Dataset, error) {
	var (
		ds         entity.Dataset
		rowsJSON   []byte
		summaryRaw []byte
	)

	if err := row.Scan(&ds.Seq, &ds.ID, &ds.Owner, &ds.Filename, &ds.UploadedAt, &rowsJSON, &summaryRaw); err != nil {
		return entity.Dataset{}, err
	}

	var rows []rowRecord
	if err := json.Unmarshal(rowsJSON, &rows); err != nil {
		return entity.Dataset{}, fmt.Errorf("decode rows: %w", err)
	}
	var summary summaryRecord
	if err := json.Unmarshal(summaryRaw, &summary); err != nil {
		return entity.Dataset{}, fmt.Errorf("decode summary: %w", err)
	}

	ds.UploadedAt = ds.UploadedAt.UTC()
	ds.Rows = fromRows(rows)
	ds.Summary = fromSummary(summary)

	return ds, nil
}
