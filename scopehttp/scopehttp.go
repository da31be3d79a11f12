// Package scopehttp opens one dbscope scope per HTTP request.
//
// The middleware enters a fresh scope before the handler runs and stores the
// live handle in the request context; handlers retrieve it with FromContext.
// The scope commits after the handler returns, unless the handler panicked or
// reported a server error (5xx status), in which case it rolls back. The
// panic is re-raised after teardown so outer recovery middleware still sees
// it.
//
//	r := chi.NewRouter()
//	r.Use(scopehttp.Middleware(tmpl))
//	r.Get("/wallets/{id}", func(w http.ResponseWriter, r *http.Request) {
//		tx, _ := scopehttp.FromContext[pgx.Tx](r.Context())
//		...
//	})
package scopehttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/MishaVyb/dbscope/dbscope"
)

// ErrHandlerFailure is the rollback signal forwarded to the factory when the
// handler wrote a 5xx status.
var ErrHandlerFailure = errors.New("scopehttp: handler reported a server error")

type ctxKey[H any] struct{}

// FromContext returns the request's live handle, if the middleware for H is
// installed.
func FromContext[H any](ctx context.Context) (H, bool) {
	h, ok := ctx.Value(ctxKey[H]{}).(H)
	return h, ok
}

// Middleware returns per-request scope middleware for the template. It is
// chi-compatible but depends only on net/http.
func Middleware[H any](tmpl *dbscope.Template[H]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := tmpl.Scope()
			handle, err := sc.Enter(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("failed to enter request scope")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey[H]{}, handle)
			// WrapResponseWriter records the status while forwarding
			// Flusher/Hijacker and friends to the underlying writer.
			rec := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			func() {
				defer func() {
					if p := recover(); p != nil {
						if err := sc.Exit(ctx, dbscope.PanicError{Value: p}); err != nil {
							log.Error().Err(err).Msg("failed to roll back request scope")
						}
						panic(p)
					}
				}()
				next.ServeHTTP(rec, r.WithContext(ctx))
			}()

			var failure error
			if rec.Status() >= http.StatusInternalServerError {
				failure = ErrHandlerFailure
			}
			if err := sc.Exit(ctx, failure); err != nil {
				log.Error().Err(err).Int("status", rec.Status()).Msg("failed to finish request scope")
			}
		})
	}
}
