package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"launchpad/background-worker-service/internal/app/background-worker/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReconcileService struct {
	mock.Mock
}

func (m *mockReconcileService) ReconcileAll(ctx context.Context, trigger string) (*entity.ReconcileRun, error) {
	args := m.Called(ctx, trigger)
	return nil, args.Error(1)
}

func (m *mockReconcileService) ReconcileProduct(ctx context.Context, productID string) (*entity.ReconcileRun, error) {
	args := m.Called(ctx, productID)
	return nil, args.Error(1)
}

func (m *mockReconcileService) ListRuns(ctx context.Context, limit int) ([]entity.ReconcileRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReconcileRun), args.Error(1)
}

func okCheck(context.Context) error { return nil }

func failingCheck(context.Context) error { return errors.New("connection refused") }

func newTestMux(checks map[string]CheckFunc, svc *mockReconcileService) *http.ServeMux {
	mux := http.NewServeMux()
	NewHealthCheckHandler(checks, svc).RegisterRoutes(mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

// ===================== Health Tests =====================

func TestHealthCheck_AllHealthy(t *testing.T) {
	mux := newTestMux(map[string]CheckFunc{"postgres": okCheck, "mongodb": okCheck}, new(mockReconcileService))

	w := serve(mux, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["postgres"])
	assert.Equal(t, "healthy", resp.Checks["mongodb"])
}

func TestHealthCheck_DependencyDown(t *testing.T) {
	mux := newTestMux(map[string]CheckFunc{"postgres": okCheck, "mongodb": failingCheck}, new(mockReconcileService))

	w := serve(mux, http.MethodGet, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["mongodb"], "connection refused")
}

func TestReadiness(t *testing.T) {
	ready := serve(newTestMux(map[string]CheckFunc{"postgres": okCheck}, new(mockReconcileService)), http.MethodGet, "/health/readiness")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Equal(t, "ready", ready.Body.String())

	notReady := serve(newTestMux(map[string]CheckFunc{"postgres": failingCheck}, new(mockReconcileService)), http.MethodGet, "/health/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, notReady.Code)
	assert.Contains(t, notReady.Body.String(), "postgres not ready")
}

func TestLiveness(t *testing.T) {
	w := serve(newTestMux(map[string]CheckFunc{"postgres": failingCheck}, new(mockReconcileService)), http.MethodGet, "/health/liveness")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}

// ===================== ReconcileRuns Tests =====================

func TestReconcileRuns_DefaultLimit(t *testing.T) {
	svc := new(mockReconcileService)
	runs := []entity.ReconcileRun{{Trigger: entity.TriggerCron, Status: entity.RunStatusSuccess}}
	svc.On("ListRuns", mock.Anything, defaultRunsLimit).Return(runs, nil)

	w := serve(newTestMux(nil, svc), http.MethodGet, "/reconcile/runs")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp RunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, entity.TriggerCron, resp.Runs[0].Trigger)
	svc.AssertExpectations(t)
}

func TestReconcileRuns_LimitCapped(t *testing.T) {
	svc := new(mockReconcileService)
	svc.On("ListRuns", mock.Anything, maxRunsLimit).Return([]entity.ReconcileRun{}, nil)

	w := serve(newTestMux(nil, svc), http.MethodGet, "/reconcile/runs?limit=500")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestReconcileRuns_InvalidLimit(t *testing.T) {
	svc := new(mockReconcileService)

	for _, limit := range []string{"abc", "0", "-3"} {
		w := serve(newTestMux(nil, svc), http.MethodGet, "/reconcile/runs?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
	svc.AssertNotCalled(t, "ListRuns", mock.Anything, mock.Anything)
}

func TestReconcileRuns_MethodNotAllowed(t *testing.T) {
	w := serve(newTestMux(nil, new(mockReconcileService)), http.MethodPost, "/reconcile/runs")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReconcileRuns_ServiceError(t *testing.T) {
	svc := new(mockReconcileService)
	svc.On("ListRuns", mock.Anything, 5).Return(nil, errors.New("db down"))

	w := serve(newTestMux(nil, svc), http.MethodGet, "/reconcile/runs?limit=5")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
