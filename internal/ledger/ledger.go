package ledger

import "sync"

// Ledger is the persistent key-value state the machine reads and writes
type Ledger interface {
	// Get returns the value stored under key and whether it exists
	Get(key Key) ([]byte, bool, error)

	// Put stores value under key
	Put(key Key, value []byte) error
}

// Change is one buffered write
type Change struct {
	Key   Key
	Value []byte
}

// Overlay buffers writes on top of a base ledger
// Reads observe buffered writes first. Nothing reaches the base until the
// caller persists Changes(); dropping the overlay discards every write.
type Overlay struct {
	base    Ledger
	index   map[string]int
	changes []Change
}

// NewOverlay creates a new Overlay over base
func NewOverlay(base Ledger) *Overlay {
	return &Overlay{
		base:  base,
		index: make(map[string]int),
	}
}

// Get returns the buffered value for key, falling back to the base ledger
func (o *Overlay) Get(key Key) ([]byte, bool, error) {
	if i, ok := o.index[string(key.Bytes())]; ok {
		return clone(o.changes[i].Value), true, nil
	}
	return o.base.Get(key)
}

// Put buffers a write
func (o *Overlay) Put(key Key, value []byte) error {
	k := string(key.Bytes())
	if i, ok := o.index[k]; ok {
		o.changes[i].Value = clone(value)
		return nil
	}
	o.index[k] = len(o.changes)
	o.changes = append(o.changes, Change{Key: key, Value: clone(value)})
	return nil
}

// Changes returns the buffered writes in first-write order
func (o *Overlay) Changes() []Change {
	out := make([]Change, len(o.changes))
	copy(out, o.changes)
	return out
}

// Memory is an in-memory Ledger
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-memory ledger
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[string(key.Bytes())]
	return clone(v), ok, nil
}

func (m *Memory) Put(key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[string(key.Bytes())] = clone(value)
	return nil
}

// Apply writes a change set in one step
func (m *Memory) Apply(changes []Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range changes {
		m.values[string(c.Key.Bytes())] = clone(c.Value)
	}
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
