package schema

import (
	"context"
	"errors"
	"fmt"
)

// ErrTableNotFound reports that a table is absent from a source's catalog.
var ErrTableNotFound = errors.New("table not found")

// TableDescriptor describes one table's comparison-relevant shape. It is
// derived fresh per comparison and never cached across runs.
type TableDescriptor struct {
	Name       string
	PrimaryKey []string // ordered constraint columns, possibly empty
	Columns    []string // ordinal order
}

// Introspector exposes one source's catalog.
type Introspector interface {
	Connect(ctx context.Context) error
	// Columns returns the table's column names in ordinal order, wrapping
	// ErrTableNotFound when the table is absent.
	Columns(ctx context.Context, table string) ([]string, error)
	// PrimaryKey returns the ordered primary-key columns, possibly empty.
	PrimaryKey(ctx context.Context, table string) ([]string, error)
	ListTables(ctx context.Context) ([]string, error)
	ListSequences(ctx context.Context) ([]string, error)
	Close() error
}

// Describe resolves a table's descriptor against one introspector.
func Describe(ctx context.Context, in Introspector, table string) (*TableDescriptor, error) {
	cols, err := in.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	pk, err := in.PrimaryKey(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("resolving primary key of %s: %w", table, err)
	}
	return &TableDescriptor{Name: table, PrimaryKey: pk, Columns: cols}, nil
}

// HasColumn reports whether the descriptor contains the named column.
func (t *TableDescriptor) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
