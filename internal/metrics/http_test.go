package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ai-feedback", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	handler := Middleware(mux)

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/ai-feedback", "202"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/ai-feedback", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/ai-feedback", "202"))
	assert.Equal(t, before+1, after)

	unmatchedBefore := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))
	assert.Equal(t, unmatchedBefore+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestStatusRecorder_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	sr.WriteHeader(http.StatusBadGateway)
	sr.WriteHeader(http.StatusOK)
	_, _ = sr.Write([]byte("xyz"))

	assert.Equal(t, http.StatusBadGateway, sr.status)
	assert.Equal(t, 3, sr.size)
	assert.Same(t, rec, sr.Unwrap())
}

func TestMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, before, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200")))
}
