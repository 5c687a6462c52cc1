package core

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// TemplateStore holds saved templates keyed by their unique name.
//
// Implementations return clones: callers may modify what they get back
// without affecting the stored template.
type TemplateStore interface {
	Create(ctx context.Context, tpl *Template) error
	Get(ctx context.Context, name string) (*Template, error)
	List(ctx context.Context) ([]*Template, error)
	Delete(ctx context.Context, name string) error
}

// MemoryTemplateStore is the default per-session template store.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewMemoryTemplateStore returns an empty in-memory store.
func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{templates: make(map[string]*Template)}
}

// Create stores tpl under its name.
func (m *MemoryTemplateStore) Create(ctx context.Context, tpl *Template) error {
	if tpl == nil || strings.TrimSpace(tpl.Name) == "" {
		return ErrInvalidTemplateName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[tpl.Name]; ok {
		return ErrTemplateExists
	}
	m.templates[tpl.Name] = tpl.Clone()
	return nil
}

// Get returns a copy of the named template.
func (m *MemoryTemplateStore) Get(ctx context.Context, name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tpl, ok := m.templates[name]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return tpl.Clone(), nil
}

// List returns copies of all templates sorted by name.
func (m *MemoryTemplateStore) List(ctx context.Context) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Template, 0, len(m.templates))
	for _, tpl := range m.templates {
		out = append(out, tpl.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the named template.
func (m *MemoryTemplateStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[name]; !ok {
		return ErrTemplateNotFound
	}
	delete(m.templates, name)
	return nil
}
