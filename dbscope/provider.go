package dbscope

import (
	"reflect"
	"sync"
)

// defaultFactories holds the process-wide default factory per handle type.
//
// The map is read lazily at Enter time, not at decoration time, so a test may
// substitute a provider after templates have been built but before the call
// under test runs. The mutex keeps registration memory-safe; it does not make
// reassignment while scoped calls are in flight a supported pattern — a call
// racing a SetDefault may observe either factory.
var (
	defaultsMu       sync.RWMutex
	defaultFactories = map[reflect.Type]any{}
)

// SetDefault registers f as the process-wide default factory for handle type
// H. Expected to be called once during startup, before any scoped call runs.
func SetDefault[H any](f Factory[H]) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultFactories[handleType[H]()] = f
}

// DefaultFor returns the registered default factory for handle type H.
func DefaultFor[H any]() (Factory[H], bool) {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	f, ok := defaultFactories[handleType[H]()].(Factory[H])
	return f, ok
}

// ClearDefault removes the default factory for handle type H. Mainly useful
// in tests that exercise the unconfigured path.
func ClearDefault[H any]() {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	delete(defaultFactories, handleType[H]())
}

func handleType[H any]() reflect.Type {
	return reflect.TypeOf((*H)(nil)).Elem()
}
