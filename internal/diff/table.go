package diff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pgdatadiff/pgdatadiff/internal/schema"
	"github.com/pgdatadiff/pgdatadiff/internal/source"
)

// TableDiffer compares one table's content between two sources via
// chunked, primary-key-ordered digesting. Per-step memory is bounded by
// ChunkSize rows regardless of table size.
type TableDiffer struct {
	First  source.Source
	Second source.Source

	// FirstSchema is authoritative for columns and keys; SecondSchema is
	// consulted only for table existence.
	FirstSchema  schema.Introspector
	SecondSchema schema.Introspector

	ChunkSize    int
	CountOnly    bool
	CheckColumns []string
}

// Compare walks both copies of the table in lockstep and reports the
// first decisive divergence. Every failure mode folds into a Result;
// no error escapes the engine boundary.
func (d *TableDiffer) Compare(ctx context.Context, table string) Result {
	desc, err := schema.Describe(ctx, d.FirstSchema, table)
	if err != nil {
		if errors.Is(err, schema.ErrTableNotFound) {
			return Mismatched("table is missing")
		}
		return Mismatched("query failed: %v", err)
	}
	if _, err := d.SecondSchema.Columns(ctx, table); err != nil {
		if errors.Is(err, schema.ErrTableNotFound) {
			return Mismatched("table is missing")
		}
		return Mismatched("query failed: %v", err)
	}

	firstCount, err := d.First.RowCount(ctx, table)
	if err != nil {
		return Mismatched("query failed: %v", err)
	}
	secondCount, err := d.Second.RowCount(ctx, table)
	if err != nil {
		return Mismatched("query failed: %v", err)
	}
	if firstCount != secondCount {
		return Mismatched("counts differ: %d != %d", firstCount, secondCount)
	}
	if firstCount == 0 {
		return Undecided("table is empty")
	}
	if d.CountOnly {
		return Matched("counts are equal")
	}

	if len(desc.PrimaryKey) == 0 {
		return Undecided("no primary key; comparison not possible")
	}
	checked, missing := d.checkedColumns(desc)
	if missing != "" {
		return Undecided("missing checked column")
	}

	firstKey, err := d.First.FirstKey(ctx, table, desc.PrimaryKey)
	if err != nil {
		return Mismatched("query failed: %v", err)
	}
	secondKey, err := d.Second.FirstKey(ctx, table, desc.PrimaryKey)
	if err != nil {
		return Mismatched("query failed: %v", err)
	}
	if !keysEqual(firstKey, secondKey) {
		return Mismatched("first primary keys differ")
	}

	cursor := firstKey
	for {
		if ctx.Err() != nil {
			return Undecided("comparison cancelled")
		}

		firstDigest, err := d.First.ChunkDigest(ctx, table, desc.PrimaryKey, checked, cursor, d.ChunkSize)
		if err != nil {
			return Mismatched("query failed: %v", err)
		}
		secondDigest, err := d.Second.ChunkDigest(ctx, table, desc.PrimaryKey, checked, cursor, d.ChunkSize)
		if err != nil {
			return Mismatched("query failed: %v", err)
		}
		if firstDigest != secondDigest {
			return Mismatched("data differs at cursor %s with chunk size %d", formatKey(cursor), d.ChunkSize)
		}

		next, err := d.First.LastKeyInChunk(ctx, table, desc.PrimaryKey, cursor, d.ChunkSize)
		if err != nil {
			return Mismatched("query failed: %v", err)
		}
		// Cursor stagnation: the chunk was smaller than ChunkSize, so the
		// end of the table has been reached.
		if next == nil || keysEqual(next, cursor) {
			return Matched("data is identical")
		}
		cursor = next
	}
}

// checkedColumns resolves the column set to digest. With no explicit
// list every non-key column is checked; an explicit list is validated
// against the first source's columns and the primary key is always
// implicitly included.
func (d *TableDiffer) checkedColumns(desc *schema.TableDescriptor) (checked []string, missing string) {
	key := make(map[string]bool, len(desc.PrimaryKey))
	for _, k := range desc.PrimaryKey {
		key[k] = true
	}

	if len(d.CheckColumns) == 0 {
		for _, c := range desc.Columns {
			if !key[c] {
				checked = append(checked, c)
			}
		}
		return checked, ""
	}

	for _, c := range d.CheckColumns {
		if !desc.HasColumn(c) {
			return nil, c
		}
		if !key[c] {
			checked = append(checked, c)
		}
	}
	return checked, ""
}

// keysEqual compares two key tuples element-wise, normalizing across
// the value types pgx scans for comparable columns.
func keysEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	if ai, aok := asInt64(a); aok {
		if bi, bok := asInt64(b); bok {
			return ai == bi
		}
		return false
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Equal(bt)
		}
		return false
	}
	if ab, aok := a.([]byte); aok {
		if bb, bok := b.([]byte); bok {
			return string(ab) == string(bb)
		}
		return false
	}
	return a == b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

// formatKey renders a cursor for reason strings: the bare value for a
// scalar key, a parenthesized tuple for a composite key.
func formatKey(key []any) string {
	if len(key) == 1 {
		return fmt.Sprintf("%v", key[0])
	}
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
