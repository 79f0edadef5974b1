package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/postgres"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidTable rejects table names that cannot be used unquoted.
var ErrInvalidTable = errors.New("invalid snapshot table name")

// SQLSTATE classes a retry cannot change: data exceptions, bad credentials,
// unknown database and syntax or permission errors.
var permanentClasses = map[pq.ErrorClass]bool{
	"22": true,
	"28": true,
	"3D": true,
	"42": true,
}

func permanentPostgresError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return permanentClasses[pqErr.Code.Class()]
}

// PostgresBackend mirrors the snapshot into a PostgreSQL table, one row per
// snapshot name:
//
//	CREATE TABLE word_snapshots (
//	    name     TEXT PRIMARY KEY,
//	    data     BYTEA NOT NULL,
//	    saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
// EnsureSchema creates the table when it does not exist.
type PostgresBackend struct {
	db    *postgres.Client
	table string
	name  string
}

func NewPostgresBackend(db *postgres.Client, table, name string) (*PostgresBackend, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &PostgresBackend{db: db, table: table, name: name}, nil
}

func (p *PostgresBackend) Name() string {
	return "postgres"
}

// EnsureSchema creates the snapshot table if needed.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := p.db.DB.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name     TEXT PRIMARY KEY,
		data     BYTEA NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, p.table))
	if err != nil {
		return fmt.Errorf("creating table %s: %w", p.table, err)
	}
	return nil
}

func (p *PostgresBackend) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := p.db.DB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE name = $1`, p.table),
		p.name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s row %q", ErrNotFound, p.table, p.name)
		}
		return nil, fmt.Errorf("querying %s: %w", p.table, err)
	}
	return data, nil
}

func (p *PostgresBackend) Write(ctx context.Context, data []byte) error {
	return p.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (name, data, saved_at) VALUES ($1, $2, NOW())
			ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, saved_at = EXCLUDED.saved_at`, p.table),
			p.name, data,
		)
		if err != nil {
			return fmt.Errorf("upserting into %s: %w", p.table, err)
		}
		return nil
	})
}
