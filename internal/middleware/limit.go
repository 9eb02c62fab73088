package middleware

import "net/http"

// maxBodySize caps request bodies at 1MB. The API only carries small
// JSON payloads.
const maxBodySize = 1 << 20

// LimitBody caps how much of a request body handlers can read.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		next.ServeHTTP(w, r)
	})
}
