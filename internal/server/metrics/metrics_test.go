package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/clients/{id}/documents/{id}", NormalizePath("/api/clients/12/documents/7"))
	assert.Equal(t, "/api/clients/{id}", NormalizePath("/api/clients/12"))
	assert.Equal(t, "/metrics", NormalizePath("/metrics"))
}

func TestMiddlewareCountsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/x/{id}", "418"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/5", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/x/{id}", "418"))
	assert.Equal(t, before+1, after)
}
