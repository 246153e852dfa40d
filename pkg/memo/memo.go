// Package memo is a request-scoped read-through store for repository lookups.
//
// Finders on repositories always hit the database. Callers that want to reuse a row already
// read in the same request go through GetOrFetch, and writers call Forget for the keys they touch.
// Without a store on the context GetOrFetch simply calls fetch.
package memo

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type storeKey struct{}

type Store struct {
	mu      sync.Mutex
	entries map[string]any
}

func NewStore() *Store {
	return &Store{entries: make(map[string]any)}
}

// WithStore attaches a fresh store to ctx.
func WithStore(ctx context.Context) context.Context {
	return context.WithValue(ctx, storeKey{}, NewStore())
}

func FromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeKey{}).(*Store)
	return store
}

// Key builds a cache key from an entity name and its key parts.
func Key(entity string, parts ...any) string {
	var b strings.Builder
	b.WriteString(entity)
	for _, part := range parts {
		b.WriteByte(':')
		b.WriteString(fmt.Sprint(part))
	}
	return b.String()
}

// GetOrFetch returns the memoized value for key or calls fetch and remembers a non-nil result.
// Misses (nil results) are not remembered so a later create becomes visible.
func GetOrFetch[T any](ctx context.Context, key string, fetch func(ctx context.Context) (*T, error)) (*T, error) {
	store := FromContext(ctx)
	if store == nil {
		return fetch(ctx)
	}

	store.mu.Lock()
	cached, ok := store.entries[key]
	store.mu.Unlock()
	if ok {
		if value, ok := cached.(*T); ok {
			return value, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil || value == nil {
		return value, err
	}

	store.mu.Lock()
	store.entries[key] = value
	store.mu.Unlock()

	return value, nil
}

// Forget drops keys from the store bound to ctx.
func Forget(ctx context.Context, keys ...string) {
	store := FromContext(ctx)
	if store == nil {
		return
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, key := range keys {
		delete(store.entries, key)
	}
}

// ForgetPrefix drops every key starting with prefix.
func ForgetPrefix(ctx context.Context, prefix string) {
	store := FromContext(ctx)
	if store == nil {
		return
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for key := range store.entries {
		if strings.HasPrefix(key, prefix) {
			delete(store.entries, key)
		}
	}
}
