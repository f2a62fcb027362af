package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"object id", "/api/products/65f1c2a9e4b0a1b2c3d4e5f6/upvote", "/api/products/:id/upvote"},
		{"uuid", "/api/products/user/0b6e3c1e-8a8b-4a5e-9c4e-2f1f9d1e7a10/upvoted", "/api/products/user/:id/upvoted"},
		{"numeric", "/reconcile/runs/42", "/reconcile/runs/:id"},
		{"static", "/api/products/categories", "/api/products/categories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.path))
		})
	}
}

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test"))
	router.GET("/api/products/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/65f1c2a9e4b0a1b2c3d4e5f6", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		HttpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/api/products/:id", "200"),
	))
}
