package source

import (
	"context"
	"fmt"
	"strings"
)

// MockRow is one primary-key-ordered row held by a MockTable. Value
// stands in for the checked-column content that a real digest would
// summarize.
type MockRow struct {
	Key   []any
	Value string
}

// MockTable holds rows pre-sorted by primary key.
type MockTable struct {
	Rows []MockRow
}

// MockSource is a test double for the Source interface. Tables are
// ordered row sets; chunk digests are deterministic joins over the
// window a real source would aggregate.
type MockSource struct {
	ConnectErr error

	Tables       map[string]*MockTable
	RowCountErr  error
	FirstKeyErr  error
	DigestErr    error
	LastKeyErr   error
	Sequences    map[string]int64
	SequenceErr  error

	Connected  bool
	Closed     bool
	ResetCalls int
}

func (m *MockSource) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockSource) RowCount(_ context.Context, table string) (int64, error) {
	if m.RowCountErr != nil {
		return 0, m.RowCountErr
	}
	t, ok := m.Tables[table]
	if !ok {
		return 0, fmt.Errorf("no mock table %s", table)
	}
	return int64(len(t.Rows)), nil
}

func (m *MockSource) FirstKey(_ context.Context, table string, _ []string) ([]any, error) {
	if m.FirstKeyErr != nil {
		return nil, m.FirstKeyErr
	}
	t, ok := m.Tables[table]
	if !ok {
		return nil, fmt.Errorf("no mock table %s", table)
	}
	if len(t.Rows) == 0 {
		return nil, nil
	}
	return t.Rows[0].Key, nil
}

func (m *MockSource) ChunkDigest(_ context.Context, table string, _, columns []string, cursor []any, limit int) (string, error) {
	if m.DigestErr != nil {
		return "", m.DigestErr
	}
	t, ok := m.Tables[table]
	if !ok {
		return "", fmt.Errorf("no mock table %s", table)
	}
	window := t.window(cursor, limit)
	parts := make([]string, 0, len(window))
	for _, r := range window {
		parts = append(parts, fmt.Sprintf("%v=%s|%s", r.Key, r.Value, strings.Join(columns, ",")))
	}
	return strings.Join(parts, ";"), nil
}

func (m *MockSource) LastKeyInChunk(_ context.Context, table string, _ []string, cursor []any, limit int) ([]any, error) {
	if m.LastKeyErr != nil {
		return nil, m.LastKeyErr
	}
	t, ok := m.Tables[table]
	if !ok {
		return nil, fmt.Errorf("no mock table %s", table)
	}
	window := t.window(cursor, limit)
	if len(window) == 0 {
		return nil, nil
	}
	return window[len(window)-1].Key, nil
}

func (m *MockSource) SequenceValue(_ context.Context, sequence string) (int64, error) {
	if m.SequenceErr != nil {
		return 0, m.SequenceErr
	}
	if m.Sequences != nil {
		if v, ok := m.Sequences[sequence]; ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("no mock sequence %s", sequence)
}

func (m *MockSource) Reset(_ context.Context) error {
	m.ResetCalls++
	return nil
}

func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}

// window returns up to limit rows with key >= cursor, preserving order.
func (t *MockTable) window(cursor []any, limit int) []MockRow {
	var out []MockRow
	for _, r := range t.Rows {
		if compareKeys(r.Key, cursor) < 0 {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

// compareKeys orders key tuples column by column.
func compareKeys(a, b []any) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := compareValue(a[i], b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

func compareValue(a, b any) int {
	av, aok := asInt64(a)
	bv, bok := asInt64(b)
	if aok && bok {
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	return strings.Compare(as, bs)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// compile-time interface check
var _ Source = (*MockSource)(nil)
