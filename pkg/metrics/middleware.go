package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// =============================================================================
// Gin Middleware (для всех сервисов)
// =============================================================================

// GinPrometheusMiddleware возвращает Gin middleware,
// который собирает метрики http_requests_total и http_request_duration_seconds
func GinPrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пропускаем метрики для /metrics и /health endpoints
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()

		HttpRequestsInFlight.WithLabelValues(serviceName).Inc()
		defer HttpRequestsInFlight.WithLabelValues(serviceName).Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		// Шаблон маршрута gin уже без идентификаторов; для 404 его нет
		path := c.FullPath()
		if path == "" {
			path = normalizePath(c.Request.URL.Path)
		}

		HttpRequestsTotal.WithLabelValues(serviceName, c.Request.Method, path, status).Inc()
		HttpRequestDuration.WithLabelValues(serviceName, c.Request.Method, path).Observe(duration)
	}
}

// =============================================================================
// Helpers
// =============================================================================

var (
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	numericPattern  = regexp.MustCompile(`^[0-9]+$`)
)

// normalizePath нормализует путь для уменьшения кардинальности метрик.
// Заменяет ObjectID, UUID и числовые сегменты на :id
func normalizePath(path string) string {
	if len(path) > 100 {
		path = path[:100]
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if objectIDPattern.MatchString(segment) || uuidPattern.MatchString(segment) || numericPattern.MatchString(segment) {
			segments[i] = ":id"
		}
	}

	return strings.Join(segments, "/")
}
