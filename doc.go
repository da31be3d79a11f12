// Package dbscope provides transactional resource scopes for Go.
//
// A scope bounds the lifetime of one unit of work (a database transaction,
// a redis MULTI/EXEC pipeline, an AMQP channel transaction, ...): open on
// entry, commit on success, rollback on failure, always release. The same
// scope template can be used three ways:
//
//   - as an explicit block: Enter / body / Exit
//   - as a callback boundary: Run(ctx, func(ctx, handle) error)
//   - as a decorator: wrap a function or method and have the live handle
//     injected into its handle-typed argument or receiver field
//
// See subpackages:
//   - dbscope: the core scope, injection and provider-binding machinery
//   - pgxscope, mongoscope, redisscope, amqpscope: concrete provider factories
//   - scopehttp: per-request scope middleware for net/http and chi
//   - examples/*: runnable wiring examples
package dbscope
