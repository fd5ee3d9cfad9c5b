package tlv

import (
	"fmt"
	"sync/atomic"
)

// TypeRegistry maps a wire-format type code to the value responsible for it,
// typically a decode function. It backs the non-TLV kind spaces: ICMP and
// IGMP message types and DNS resource-record types, each of which gets its
// own registry with its own key alphabet.
//
// Like [Scheme], a TypeRegistry is populated by explicit Register calls at
// package init and frozen on first lookup; registering afterwards panics.
// After the freeze it is read-only and safe for concurrent lookups.
type TypeRegistry[K comparable, V any] struct {
	name   string
	m      map[K]V
	frozen atomic.Bool
}

// NewTypeRegistry returns an empty registry named for trace/panic messages.
func NewTypeRegistry[K comparable, V any](name string) *TypeRegistry[K, V] {
	return &TypeRegistry[K, V]{name: name, m: make(map[K]V)}
}

// Register binds key to v. Panics on duplicate keys or after the freeze.
func (r *TypeRegistry[K, V]) Register(key K, v V) {
	if r.frozen.Load() {
		panic("tlv: register on frozen registry " + r.name)
	}
	if _, exists := r.m[key]; exists {
		panic(fmt.Sprintf("tlv: %s key %v registered twice", r.name, key))
	}
	r.m[key] = v
}

// Freeze makes the registry read-only.
func (r *TypeRegistry[K, V]) Freeze() { r.frozen.Store(true) }

// Lookup returns the value bound to key. The first lookup freezes the
// registry.
func (r *TypeRegistry[K, V]) Lookup(key K) (V, bool) {
	if !r.frozen.Load() {
		r.frozen.Store(true)
	}
	v, ok := r.m[key]
	return v, ok
}

// Len returns the number of registered keys.
func (r *TypeRegistry[K, V]) Len() int { return len(r.m) }
