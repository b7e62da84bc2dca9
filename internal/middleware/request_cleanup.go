package middleware

import (
	"io"
	"net/http"
)

const maxDrainBytes = 1 << 20

// DrainAndCloseRequest drains what the handler left unread from the request body
// (up to 1MB) so the connection can be reused, then closes the body.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.CopyN(io.Discard, r.Body, maxDrainBytes)
				_ = r.Body.Close()
			}
		})
	}
}
