package theme

import "sync"

// MemStorage is an in-memory Storage.
type MemStorage struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemStorage makes MemStorage seeded with the given values.
func NewMemStorage(seed map[string]string) *MemStorage {
	data := make(map[string]string, len(seed))
	for k, v := range seed {
		data[k] = v
	}
	return &MemStorage{data: data}
}

// Get returns the stored value or ErrNotFound.
func (m *MemStorage) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores the value.
func (m *MemStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}
