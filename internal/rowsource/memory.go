package rowsource

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Source, used by tests and the query console.
// Tables spring into existence on first append.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]map[string]any)}
}

// Load replaces a table's contents wholesale, copying each row.
func (m *Memory) Load(table string, rows []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]map[string]any, len(rows))
	for i, row := range rows {
		stored[i] = maps.Clone(row)
	}
	m.tables[table] = stored
}

// Tables lists the known table names.
func (m *Memory) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	return names
}

func (m *Memory) Fetch(ctx context.Context, table string) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", table)
	}
	snapshot := make([]map[string]any, len(stored))
	for i, row := range stored {
		snapshot[i] = maps.Clone(row)
	}
	return snapshot, nil
}

func (m *Memory) Append(ctx context.Context, table string, row map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := maps.Clone(row)
	id, ok := stored["id"].(string)
	if !ok || id == "" {
		id = uuid.New().String()
		stored["id"] = id
	}
	m.tables[table] = append(m.tables[table], stored)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, table string, id string, row map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.tables[table] {
		if existing["id"] == id {
			stored := maps.Clone(row)
			stored["id"] = id
			m.tables[table][i] = stored
			return nil
		}
	}
	return fmt.Errorf("table %q, id %q: %w", table, id, ErrRowNotFound)
}
