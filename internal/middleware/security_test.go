package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	called := false
	handler := CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/ai-feedback", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if called {
			t.Error("preflight should not reach the handler")
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
			t.Errorf("Allow-Methods = %q", got)
		}
	})

	t.Run("post", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ai-feedback", nil))

		if !called {
			t.Error("handler should run")
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("Allow-Headers = %q", got)
		}
	})
}

func TestCORS_CustomOriginAndMethods(t *testing.T) {
	handler := CORS("https://readyhire.app", http.MethodGet, http.MethodPost)(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://readyhire.app" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestAPIHeaders(t *testing.T) {
	tests := []struct {
		secure   bool
		wantHSTS bool
	}{
		{secure: false, wantHSTS: false},
		{secure: true, wantHSTS: true},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		APIHeaders(tt.secure)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		for header, want := range map[string]string{
			"X-Content-Type-Options": "nosniff",
			"X-Frame-Options":        "DENY",
			"Cache-Control":          "no-store",
		} {
			if got := rec.Header().Get(header); got != want {
				t.Errorf("%s = %q, want %q", header, got, want)
			}
		}
		if hsts := rec.Header().Get("Strict-Transport-Security") != ""; hsts != tt.wantHSTS {
			t.Errorf("secure=%v: HSTS present = %v", tt.secure, hsts)
		}
	}
}
