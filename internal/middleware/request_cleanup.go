package middleware

import (
	"io"
	"net/http"
)

// none of the tracker routes read a body, so anything sent beyond this is not drained
const maxDrainedBodyBytes = 64 << 10

// DrainAndCloseRequest drains (up to a limit) and closes the request body once the
// handler is done, so the connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.CopyN(io.Discard, r.Body, maxDrainedBodyBytes)
				_ = r.Body.Close()
			}
		})
	}
}
