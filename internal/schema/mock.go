package schema

import (
	"context"
	"fmt"
)

// MockIntrospector is a test double for the Introspector interface.
type MockIntrospector struct {
	ConnectErr error

	TableColumns map[string][]string // table -> columns; absent table means not found
	PrimaryKeys  map[string][]string // table -> ordered key columns
	TableList    []string
	SequenceList []string
	ListErr      error

	Connected bool
	Closed    bool
}

func (m *MockIntrospector) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockIntrospector) Columns(_ context.Context, table string) ([]string, error) {
	if cols, ok := m.TableColumns[table]; ok {
		return cols, nil
	}
	return nil, fmt.Errorf("table %s: %w", table, ErrTableNotFound)
}

func (m *MockIntrospector) PrimaryKey(_ context.Context, table string) ([]string, error) {
	if m.PrimaryKeys != nil {
		return m.PrimaryKeys[table], nil
	}
	return nil, nil
}

func (m *MockIntrospector) ListTables(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.TableList, nil
}

func (m *MockIntrospector) ListSequences(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.SequenceList, nil
}

func (m *MockIntrospector) Close() error {
	m.Closed = true
	return nil
}

// compile-time interface check
var _ Introspector = (*MockIntrospector)(nil)
