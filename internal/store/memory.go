package store

import (
	"LandLedger/internal/entity"
	"context"
	"sync"
)

// MemoryStore keeps record documents in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	tables     map[entity.Kind]map[string][]byte
	checkpoint *Checkpoint
	commits    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[entity.Kind]map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, kind entity.Kind, id string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.tables[kind][id]
	return doc, ok, nil
}

func (m *MemoryStore) Commit(ctx context.Context, cs *Changeset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range cs.Changes {
		table := m.tables[c.Kind]
		if table == nil {
			table = make(map[string][]byte)
			m.tables[c.Kind] = table
		}
		switch c.Op {
		case OpSave:
			table[c.ID] = c.Doc
		case OpRemove:
			delete(table, c.ID)
		}
	}
	if cs.Checkpoint != nil {
		cp := *cs.Checkpoint
		m.checkpoint = &cp
	}
	m.commits++
	return nil
}

func (m *MemoryStore) LastCheckpoint(_ context.Context) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.checkpoint == nil {
		return nil, nil
	}
	cp := *m.checkpoint
	return &cp, nil
}

// Len returns the number of records of a kind.
func (m *MemoryStore) Len(kind entity.Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[kind])
}

// IDs returns the ids stored under a kind, in no particular order.
func (m *MemoryStore) IDs(kind entity.Kind) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.tables[kind]))
	for id := range m.tables[kind] {
		ids = append(ids, id)
	}
	return ids
}

// Commits returns the number of successful commits.
func (m *MemoryStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}
