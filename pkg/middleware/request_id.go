package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/psyeval/recruitment/pkg/requestid"
)

const requestIDHeader = "X-Request-Id"

// RequestID carries the caller's X-Request-Id, or chi's id, or a fresh one
// into the request context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		if id == "" {
			id = requestid.Generate()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestid.ToContext(r.Context(), id)))
	})
}
