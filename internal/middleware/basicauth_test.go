package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBasicAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		reqUser    string
		reqPass    string
		want       int
	}{
		{name: "disabled", want: http.StatusOK},
		{name: "missing credentials", user: "prom", pass: "s3cret", want: http.StatusUnauthorized},
		{name: "wrong password", user: "prom", pass: "s3cret", setAuth: true, reqUser: "prom", reqPass: "nope", want: http.StatusUnauthorized},
		{name: "wrong user", user: "prom", pass: "s3cret", setAuth: true, reqUser: "admin", reqPass: "s3cret", want: http.StatusUnauthorized},
		{name: "valid", user: "prom", pass: "s3cret", setAuth: true, reqUser: "prom", reqPass: "s3cret", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BasicAuth("metrics", tt.user, tt.pass)(ok)
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.reqUser, tt.reqPass)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != `Basic realm="metrics"` {
				t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
