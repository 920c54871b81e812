package pvar

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound     = errors.New("variable not found")
	ErrTypeMismatch = errors.New("variable type mismatch")
)

// Store is the process variable exchange the machine core talks to. The core
// never sees the transport behind it; any implementation must preserve write
// ordering and read-after-write consistency for a single caller.
type Store interface {
	GetBool(name string) (bool, error)
	SetBool(name string, value bool) error
	GetInt16(name string) (int16, error)
	SetInt16(name string, value int16) error
	GetString(name string) (string, error)
	SetString(name string, value string) error
}

// ChangeFunc is invoked after every successful write. Implementations must not
// block; the store holds its lock while calling it.
type ChangeFunc func(name string, value any)

// MemoryStore keeps all process variables in process memory, seeded from a
// catalog. A single mutex gives write ordering and read-after-write
// consistency across all callers.
type MemoryStore struct {
	mu       sync.RWMutex
	defs     map[string]VariableDefinition
	values   map[string]any
	onChange ChangeFunc
}

func NewMemoryStore(defs []VariableDefinition) *MemoryStore {
	s := &MemoryStore{
		defs:   make(map[string]VariableDefinition, len(defs)),
		values: make(map[string]any, len(defs)),
	}
	for _, def := range defs {
		s.defs[def.Name] = def
		s.values[def.Name] = def.Default
	}
	return s
}

// OnChange registers the change notifier. Must be called during wiring,
// before any loop starts writing.
func (s *MemoryStore) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *MemoryStore) GetBool(name string) (bool, error) {
	v, err := s.get(name, DataTypeBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *MemoryStore) SetBool(name string, value bool) error {
	return s.set(name, DataTypeBool, value)
}

func (s *MemoryStore) GetInt16(name string) (int16, error) {
	v, err := s.get(name, DataTypeInt16)
	if err != nil {
		return 0, err
	}
	return v.(int16), nil
}

func (s *MemoryStore) SetInt16(name string, value int16) error {
	return s.set(name, DataTypeInt16, value)
}

func (s *MemoryStore) GetString(name string) (string, error) {
	v, err := s.get(name, DataTypeString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *MemoryStore) SetString(name string, value string) error {
	return s.set(name, DataTypeString, value)
}

// Definition looks up the catalog entry for a variable.
func (s *MemoryStore) Definition(name string) (VariableDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[name]
	return def, ok
}

// Definitions returns the catalog the store was seeded with.
func (s *MemoryStore) Definitions() []VariableDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]VariableDefinition, 0, len(s.defs))
	for _, def := range s.defs {
		defs = append(defs, def)
	}
	return defs
}

// Snapshot returns a copy of all current values keyed by variable name.
func (s *MemoryStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]any, len(s.values))
	for name, value := range s.values {
		snapshot[name] = value
	}
	return snapshot
}

func (s *MemoryStore) get(name string, dataType DataType) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if def.Type != dataType {
		return nil, fmt.Errorf("%w: %s is %s, requested %s", ErrTypeMismatch, name, def.Type, dataType)
	}
	return s.values[name], nil
}

func (s *MemoryStore) set(name string, dataType DataType, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.defs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if def.Type != dataType {
		return fmt.Errorf("%w: %s is %s, got %s", ErrTypeMismatch, name, def.Type, dataType)
	}

	s.values[name] = value
	if s.onChange != nil {
		s.onChange(name, value)
	}
	return nil
}
