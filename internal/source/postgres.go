package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Source for PostgreSQL using pgx.
type Postgres struct {
	connStr string
	schema  string
	pool    *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL source for the given connection
// string and schema (defaults to "public").
func NewPostgres(connStr, schema string) *Postgres {
	if schema == "" {
		schema = "public"
	}
	return &Postgres{connStr: connStr, schema: schema}
}

func (s *Postgres) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(s.connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = 1 // one exclusive session; comparison is fully sequential
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	s.pool = pool
	return nil
}

func (s *Postgres) RowCount(ctx context.Context, table string) (int64, error) {
	if err := ValidateIdent(table); err != nil {
		return 0, err
	}
	var count int64
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.qualify(table))
	if err := s.pool.QueryRow(ctx, sql).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return count, nil
}

func (s *Postgres) FirstKey(ctx context.Context, table string, keyColumns []string) ([]any, error) {
	if err := validateIdents(table, keyColumns); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT 1",
		columnList(keyColumns), s.qualify(table), orderBy(keyColumns, "ASC"))
	return s.queryKeyTuple(ctx, sql)
}

func (s *Postgres) ChunkDigest(ctx context.Context, table string, keyColumns, columns []string, cursor []any, limit int) (string, error) {
	if err := validateIdents(table, keyColumns); err != nil {
		return "", err
	}
	if err := validateIdents(table, columns); err != nil {
		return "", err
	}
	selected := append(append([]string{}, keyColumns...), columns...)
	sql := fmt.Sprintf(`SELECT md5(array_agg(md5((t.*)::varchar))::varchar)
FROM (
	SELECT %s
	FROM %s
	WHERE %s
	ORDER BY %s
	LIMIT $%d
) AS t`,
		columnList(selected), s.qualify(table),
		keyPredicate(keyColumns), orderBy(keyColumns, "ASC"), len(cursor)+1)

	args := append(append([]any{}, cursor...), limit)
	var digest *string
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&digest); err != nil {
		return "", fmt.Errorf("digesting chunk of %s: %w", table, err)
	}
	if digest == nil {
		return "", nil
	}
	return *digest, nil
}

func (s *Postgres) LastKeyInChunk(ctx context.Context, table string, keyColumns []string, cursor []any, limit int) ([]any, error) {
	if err := validateIdents(table, keyColumns); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(`SELECT %s FROM (
	SELECT %s
	FROM %s
	WHERE %s
	ORDER BY %s
	LIMIT $%d
) s
ORDER BY %s
LIMIT 1`,
		columnList(keyColumns), columnList(keyColumns), s.qualify(table),
		keyPredicate(keyColumns), orderBy(keyColumns, "ASC"), len(cursor)+1,
		orderBy(keyColumns, "DESC"))

	args := append(append([]any{}, cursor...), limit)
	return s.queryKeyTuple(ctx, sql, args...)
}

func (s *Postgres) SequenceValue(ctx context.Context, sequence string) (int64, error) {
	if err := ValidateIdent(sequence); err != nil {
		return 0, err
	}
	var value int64
	sql := fmt.Sprintf("SELECT last_value FROM %s", s.qualify(sequence))
	if err := s.pool.QueryRow(ctx, sql).Scan(&value); err != nil {
		return 0, fmt.Errorf("reading sequence %s: %w", sequence, err)
	}
	return value, nil
}

func (s *Postgres) Reset(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	// ROLLBACK outside a transaction is a notice, not an error.
	if _, err := s.pool.Exec(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("resetting session: %w", err)
	}
	return nil
}

func (s *Postgres) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func (s *Postgres) queryKeyTuple(ctx context.Context, sql string, args ...any) ([]any, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing key query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	vals, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("scanning key tuple: %w", err)
	}
	return vals, rows.Err()
}

func (s *Postgres) qualify(name string) string {
	return QuoteIdent(s.schema) + "." + QuoteIdent(name)
}

// QuoteIdent double-quotes an identifier for safe interpolation.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ValidateIdent rejects identifiers that could not have come from a sane
// catalog: empty, over the PostgreSQL name limit, or containing control
// characters. Quoting handles the rest.
func ValidateIdent(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier %q exceeds 63 bytes", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("identifier %q contains control characters", name)
		}
	}
	return nil
}

func validateIdents(table string, columns []string) error {
	if err := ValidateIdent(table); err != nil {
		return err
	}
	for _, c := range columns {
		if err := ValidateIdent(c); err != nil {
			return err
		}
	}
	return nil
}

func columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// keyPredicate builds the inclusive lower-bound clause for a cursor
// tuple: `"k" >= $1` for a scalar key, row-value comparison
// `("k1", "k2") >= ($1, $2)` for a composite key.
func keyPredicate(keyColumns []string) string {
	if len(keyColumns) == 1 {
		return QuoteIdent(keyColumns[0]) + " >= $1"
	}
	cols := make([]string, len(keyColumns))
	params := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		cols[i] = QuoteIdent(c)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return "(" + strings.Join(cols, ", ") + ") >= (" + strings.Join(params, ", ") + ")"
}

func orderBy(keyColumns []string, direction string) string {
	parts := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		parts[i] = QuoteIdent(c) + " " + direction
	}
	return strings.Join(parts, ", ")
}

// compile-time interface check
var _ Source = (*Postgres)(nil)
