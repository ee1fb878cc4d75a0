package kvstore

import "sync"

// Memory is an in-memory reference Store implementation, the default
// backing store mentioned in spec §4.3. It is grounded on the teacher's
// accdb/memorydb.MemDB (a map guarded by a sync.RWMutex) generalized to
// satisfy the full Store contract, including atomic Batch application
// and Copy.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	return nil
}

func (m *Memory) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// Batch applies ops atomically. Since Memory never fails mid-way (there
// is no I/O that can partially land), every call either applies the
// full op list or — on an invalid op — none of it.
func (m *Memory) Batch(ops []Op) error {
	for _, op := range ops {
		if op.Kind == OpPut && len(op.Value) == 0 {
			return ErrInvalidOp
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case OpPut:
			cp := make([]byte, len(op.Value))
			copy(cp, op.Value)
			m.data[string(op.Key)] = cp
		case OpDel:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

// Copy takes a point-in-time snapshot: the returned store shares no
// backing map with the original, so the two evolve independently.
func (m *Memory) Copy() Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clone := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		clone[k] = cp
	}
	return &Memory{data: clone}
}

// Len reports the number of entries currently stored. It exists for
// tests that want to assert on orphan cleanup (deleteOnWrite).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
