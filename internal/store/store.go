// Package store selects a shared template store by kind.
//
// Backends register themselves from init functions; import them for their
// side effect:
//
//	import _ "github.com/JonMunkholm/csvorganizer/internal/store/sqlite"
//
// Sessions that are not given a shared store keep templates in their own
// memory instead.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

// KindSession means "no shared store": every session keeps its own templates.
const KindSession = "session"

// Config selects and configures a backend.
type Config struct {
	Kind     string
	DSN      string
	MaxConns int32
}

// Store is a template store that holds resources.
type Store interface {
	core.TemplateStore
	Close()
}

// Factory opens a backend.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It panics if kind is empty,
// f is nil or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("store: Register called with empty kind")
	}
	if f == nil {
		panic("store: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("store: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New opens the backend named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("store: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("store: unsupported kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists registered backends.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type memoryStore struct {
	*core.MemoryTemplateStore
}

func (memoryStore) Close() {}

func init() {
	// One in-memory store shared by all sessions of this process.
	Register("memory", func(ctx context.Context, cfg Config) (Store, error) {
		return memoryStore{core.NewMemoryTemplateStore()}, nil
	})
}
