package dbscope

import "context"

// Finish completes the unit of work opened by a Factory.
//
// A nil failure commits; a non-nil failure rolls back. Either way Finish must
// release the underlying resource before returning, even when commit or
// rollback itself fails. The returned error reports teardown problems only;
// Finish never echoes the failure it was given.
type Finish func(ctx context.Context, failure error) error

// Factory opens one resource handle per call.
//
// Open is the acquisition phase: it returns the live handle plus the Finish
// function that later drives commit-or-rollback and release. A factory is
// invoked once per scope; handles are never shared between scopes.
type Factory[H any] interface {
	// Name identifies the provider in diagnostic events.
	Name() string

	// Open acquires a handle. On error nothing is considered acquired and
	// the returned Finish must be ignored.
	Open(ctx context.Context) (H, Finish, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
//
// The adapter reports "func" as its provider name; wrap it with Named to give
// diagnostics something better to say.
type FactoryFunc[H any] func(ctx context.Context) (H, Finish, error)

// Name implements Factory.
func (f FactoryFunc[H]) Name() string { return "func" }

// Open implements Factory.
func (f FactoryFunc[H]) Open(ctx context.Context) (H, Finish, error) { return f(ctx) }

// Named overrides the diagnostic name of a factory.
func Named[H any](name string, f Factory[H]) Factory[H] {
	return namedFactory[H]{name: name, inner: f}
}

type namedFactory[H any] struct {
	name  string
	inner Factory[H]
}

func (f namedFactory[H]) Name() string { return f.name }

func (f namedFactory[H]) Open(ctx context.Context) (H, Finish, error) { return f.inner.Open(ctx) }
