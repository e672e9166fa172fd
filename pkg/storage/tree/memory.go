package tree

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Tree. Documents are copied through JSON on the way
// in and out, so callers see the same number and time shapes a remote tree
// would hand back.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	closed      bool
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Document)}
}

func cloneDocument(doc Document) (Document, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Memory) Push(_ context.Context, collection string, doc Document) (string, error) {
	if err := checkPath(collection); err != nil {
		return "", err
	}
	stored, err := cloneDocument(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	key := uuid.NewString()
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	m.collections[collection][key] = stored
	return key, nil
}

func (m *Memory) Get(_ context.Context, collection, key string) (Document, error) {
	if err := checkPath(collection, key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return cloneDocument(m.collections[collection][key])
}

func (m *Memory) List(_ context.Context, collection string) (map[string]Document, error) {
	if err := checkPath(collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make(map[string]Document, len(m.collections[collection]))
	for key, doc := range m.collections[collection] {
		cloned, err := cloneDocument(doc)
		if err != nil {
			return nil, err
		}
		out[key] = cloned
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, collection, key string, fields Document) error {
	if err := checkPath(collection, key); err != nil {
		return err
	}
	patch, err := cloneDocument(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	doc := m.collections[collection][key]
	if doc == nil {
		doc = Document{}
		m.collections[collection][key] = doc
	}
	for k, v := range patch {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, key string) error {
	if err := checkPath(collection, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.collections[collection], key)
	return nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
