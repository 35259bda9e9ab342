package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAnyPathIsAlive(t *testing.T) {
	s := NewServer(3000, false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/health"},
		{http.MethodHead, "/anything/else"},
		{http.MethodPost, "/"},
		{http.MethodGet, "/metrics"},
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s %s: status %d", tc.method, tc.path, rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
			t.Errorf("%s %s: content type %q", tc.method, tc.path, rec.Header().Get("Content-Type"))
		}
		if tc.method == http.MethodGet && rec.Body.String() != Body {
			t.Errorf("%s %s: body %q", tc.method, tc.path, rec.Body.String())
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(3000, true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != Body {
		t.Errorf("body %q", rec.Body.String())
	}
}
