package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth protects a handler with a single username and password. With
// both empty the handler is left open.
func BasicAuth(realm, username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if username == "" && password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok &&
				subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1 &&
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}
