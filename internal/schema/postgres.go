package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgdatadiff/pgdatadiff/internal/logging"
)

// Postgres implements Introspector for PostgreSQL.
type Postgres struct {
	connStr string
	schema  string

	pool        *pgxpool.Pool
	log         *slog.Logger
	noticeLevel *slog.LevelVar
	noticeLog   *slog.Logger
}

// NewPostgres creates a new PostgreSQL introspector for the given
// connection string and schema (defaults to "public").
func NewPostgres(connStr, schema string, log *slog.Logger) *Postgres {
	if schema == "" {
		schema = "public"
	}
	if log == nil {
		log = logging.Discard()
	}
	lv := &slog.LevelVar{} // defaults to info
	return &Postgres{
		connStr:     connStr,
		schema:      schema,
		log:         log,
		noticeLevel: lv,
		noticeLog:   logging.WithLevel(log, lv),
	}
}

func (p *Postgres) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(p.connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = 1
	cfg.ConnConfig.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
		p.noticeLog.Warn("postgres notice", "severity", n.Severity, "message", n.Message)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	p.pool = pool
	return nil
}

func (p *Postgres) Columns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, ErrTableNotFound)
	}
	return columns, nil
}

func (p *Postgres) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("resolving primary key of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// ListTables enumerates user tables in lexicographic order.
func (p *Postgres) ListTables(ctx context.Context) ([]string, error) {
	defer p.quietNotices()()
	return p.listRelations(ctx, "r")
}

// ListSequences enumerates sequence objects in lexicographic order.
func (p *Postgres) ListSequences(ctx context.Context) ([]string, error) {
	defer p.quietNotices()()
	return p.listRelations(ctx, "S")
}

func (p *Postgres) listRelations(ctx context.Context, relkind string) ([]string, error) {
	query := `
		SELECT c.relname
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND c.relkind = $2
		ORDER BY c.relname`

	rows, err := p.pool.Query(ctx, query, p.schema, relkind)
	if err != nil {
		return nil, fmt.Errorf("enumerating catalog: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// quietNotices raises the notice log threshold for the duration of one
// enumeration call instead of toggling anything process-wide. The
// returned func restores the previous threshold.
func (p *Postgres) quietNotices() func() {
	prev := p.noticeLevel.Level()
	p.noticeLevel.Set(slog.LevelError)
	return func() { p.noticeLevel.Set(prev) }
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

// compile-time interface check
var _ Introspector = (*Postgres)(nil)
