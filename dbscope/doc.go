// Package dbscope implements a single-use transactional scope with handle
// injection.
//
// The central types are Factory[H], Template[H] and Scope[H]:
//
//   - Factory[H] opens one unit of work and returns the live handle H plus a
//     Finish function that commits (nil failure) or rolls back (non-nil
//     failure) and always releases the underlying resource.
//   - Template[H] is the immutable configuration captured once: which factory
//     to use (or "resolve the process default lazily"), the logger for
//     diagnostic events, and the injection-target policy.
//   - Scope[H] is a single-use state machine (idle -> entered -> exited)
//     produced from a template, one per call. Scopes are never reused, so
//     concurrent calls never share a handle.
//
// Usage as an explicit block:
//
//	tmpl := dbscope.New(dbscope.WithFactory(factory))
//	sc := tmpl.Scope()
//	tx, err := sc.Enter(ctx)
//	if err != nil { ... }
//	err = doWork(ctx, tx)
//	err = errors.Join(err, sc.Exit(ctx, err))
//
// Usage as a callback boundary (the common form):
//
//	err := tmpl.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
//		return doWork(ctx, tx)
//	})
//
// Usage as a decorator, injecting into a handle-typed argument:
//
//	transfer := dbscope.MustWrapAs(tmpl, func(ctx context.Context, amount int64, tx pgx.Tx) error {
//		...
//	})
//	err := transfer(ctx, 100, nil) // tx is injected; pass the zero value
//
// or into the single handle-typed field of the receiver:
//
//	type Billing struct {
//		Tx pgx.Tx
//	}
//
//	charge := dbscope.MustWrapAs(tmpl, (*Billing).Charge)
//	err := charge(b, ctx, 100) // b.Tx live only for the duration of the call
//
// The process-wide default factory is registered per handle type via
// SetDefault and read lazily at Enter, so tests may substitute providers
// before the first scoped call.
package dbscope
