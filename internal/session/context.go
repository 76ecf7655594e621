package session

import (
	"context"
	"net/http"

	"shorts-web/internal/common/logging"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying store.
func NewContext(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext returns the Store attached by Middleware.
func FromContext(ctx context.Context) (Store, bool) {
	store, ok := ctx.Value(contextKey{}).(Store)
	return store, ok
}

// Middleware binds a Store to every request and records the credential
// subject for request logs.
func Middleware(factory Factory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := factory.ForRequest(w, r)
			ctx := NewContext(r.Context(), store)

			if cred, ok, err := store.Get(ctx); err == nil && ok {
				if subject := Subject(cred.AccessToken); subject != "" {
					ctx = logging.ContextWithSubject(ctx, subject)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
