package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// correlationHeader is carried end to end: external cron providers that
// trigger the dispatch route can supply their own run identifier and
// find it again in our logs.
const correlationHeader = "X-Correlation-ID"

type correlationKey struct{}

// CorrelationID attaches a correlation ID to each request. An incoming
// X-Correlation-ID header is honored; otherwise a fresh UUID is minted.
// The ID is stored on the context and echoed in the response header.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), correlationKey{}, id)))
	})
}

// GetCorrelationID returns the request's correlation ID, or "" when the
// middleware did not run.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
