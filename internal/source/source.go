package source

import "context"

// Source provides read-only access to one database for comparison queries.
// Engines borrow a Source per call; the caller owns its lifecycle.
type Source interface {
	Connect(ctx context.Context) error
	RowCount(ctx context.Context, table string) (int64, error)
	// FirstKey returns the minimum primary-key tuple of the table, or nil
	// when the table is empty.
	FirstKey(ctx context.Context, table string, keyColumns []string) ([]any, error)
	// ChunkDigest computes an order-preserving digest over the checked
	// columns of up to limit rows with primary key >= cursor. The digest is
	// computed inside the database so no row data crosses the wire.
	ChunkDigest(ctx context.Context, table string, keyColumns, columns []string, cursor []any, limit int) (string, error)
	// LastKeyInChunk returns the maximum primary-key tuple within the same
	// bounded window that ChunkDigest examines.
	LastKeyInChunk(ctx context.Context, table string, keyColumns []string, cursor []any, limit int) ([]any, error)
	SequenceValue(ctx context.Context, sequence string) (int64, error)
	// Reset rolls back any dirty transaction state left by a failed query.
	Reset(ctx context.Context) error
	Close() error
}
