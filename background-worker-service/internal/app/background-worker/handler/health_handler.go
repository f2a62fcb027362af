package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
	"launchpad/background-worker-service/internal/app/background-worker/service"
	"launchpad/pkg/logger"
	"launchpad/pkg/metrics"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
	metricsService   = "background-worker"
)

// CheckFunc проверяет одну зависимость
type CheckFunc func(ctx context.Context) error

// GormCheck пингует PostgreSQL и обновляет метрику пула соединений
func GormCheck(db *gorm.DB) CheckFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}

		stats := sqlDB.Stats()
		metrics.DbConnectionsOpen.WithLabelValues(metricsService, "in_use").Set(float64(stats.InUse))
		metrics.DbConnectionsOpen.WithLabelValues(metricsService, "idle").Set(float64(stats.Idle))
		return nil
	}
}

func MongoCheck(client *mongo.Client) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}

type HealthCheckHandler struct {
	checks       map[string]CheckFunc
	reconcileSvc service.ReconcileServiceInterface
}

// NewHealthCheckHandler принимает проверки по имени зависимости: "postgres", "mongodb"
func NewHealthCheckHandler(checks map[string]CheckFunc, reconcileSvc service.ReconcileServiceInterface) *HealthCheckHandler {
	return &HealthCheckHandler{
		checks:       checks,
		reconcileSvc: reconcileSvc,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

type RunsResponse struct {
	Runs  []entity.ReconcileRun `json:"runs"`
	Total int                   `json:"total"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	overallStatus := "healthy"

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
			continue
		}
		checks[name] = "healthy"
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: time.Now(),
	})
}

func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

// ReconcileRuns отдает журнал последних сверок: GET /reconcile/runs?limit=N
func (h *HealthCheckHandler) ReconcileRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.reconcileSvc.ListRuns(r.Context(), limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list reconcile runs")
		http.Error(w, "failed to list reconcile runs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/readiness", h.Readiness)
	mux.HandleFunc("/health/liveness", h.Liveness)
	mux.HandleFunc("/reconcile/runs", h.ReconcileRuns)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}
