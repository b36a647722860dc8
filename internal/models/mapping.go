package models

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is a string-keyed collection that remembers insertion order.
// Keys are unique; setting an existing key replaces its value in place.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// Set stores value under key. A repeated key keeps its original position and
// takes the new value.
func (m *Mapping) Set(key string, value Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// SetIfAbsent stores value only when key is not present yet.
func (m *Mapping) SetIfAbsent(key string, value Value) {
	if _, ok := m.index[key]; ok {
		return
	}
	m.Set(key, value)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries in insertion order. The slice must not be
// modified.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Equal compares entries pairwise, including their order.
func (m *Mapping) Equal(o *Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	oe := o.Entries()
	for i, e := range m.Entries() {
		if e.Key != oe[i].Key || !e.Value.Equal(oe[i].Value) {
			return false
		}
	}
	return true
}
