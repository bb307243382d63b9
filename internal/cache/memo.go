package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// Memo wraps a derived-value computation and keeps its result for a
// bounded duration, keyed by a hash of the call arguments. Intended for
// read-mostly counts and summaries, never for financial records.
type Memo[V any] struct {
	ttl   time.Duration
	cache Cache[uint64, V]
	fn    func(ctx context.Context, args ...any) (V, error)
}

func NewMemo[V any](ttl time.Duration, fn func(ctx context.Context, args ...any) (V, error)) *Memo[V] {
	return &Memo[V]{
		ttl:   ttl,
		cache: NewTTLCache[uint64, V](),
		fn:    fn,
	}
}

// Get returns the memoized value for the given arguments, computing and
// storing it if absent or expired.
func (m *Memo[V]) Get(ctx context.Context, args ...any) (V, error) {
	key := argsKey(args)
	if value, ok := m.cache.Get(key); ok {
		return value, nil
	}
	value, err := m.fn(ctx, args...)
	if err != nil {
		var zero V
		return zero, err
	}
	m.cache.Set(key, value, m.ttl)
	return value, nil
}

// Invalidate drops any memoized value for the given arguments.
func (m *Memo[V]) Invalidate(args ...any) {
	m.cache.Delete(argsKey(args))
}

// InvalidateAll drops every memoized value.
func (m *Memo[V]) InvalidateAll() {
	m.cache.Purge()
}

func argsKey(args []any) uint64 {
	h := fnv.New64a()
	for _, arg := range args {
		fmt.Fprintf(h, "%v|", arg)
	}
	return h.Sum64()
}
