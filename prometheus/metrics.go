package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Total number of user registrations",
		},
	)

	RefreshCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Total number of token refreshes",
		},
	)

	// Outcome of the request authorization pipeline
	AuthDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"outcome", "reason"}, // outcome is "allow" or "deny"
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	SessionBuildCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_builds_total",
			Help: "Total number of session builds by result",
		},
		[]string{"result"},
	)

	QuotaCheckCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_checks_total",
			Help: "Total number of subscription quota checks",
		},
		[]string{"entity", "allowed"},
	)

	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"entity", "operation"},
	)

	MaintenanceRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_runs_total",
			Help: "Total number of maintenance task runs",
		},
		[]string{"task", "result"},
	)
)

// Histogram metrics
var (
	RemoteValidationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_remote_request_duration_seconds",
			Help:    "Duration of calls to the remote authorization server",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "result"},
	)

	SessionBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_build_duration_seconds",
			Help:    "Duration of session builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete", "count"
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "maintenance_info",
			Help: "Information about the running service",
		},
		[]string{"version", "auth_strategy", "store_driver"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(RefreshCounter)
	prometheus.MustRegister(AuthDecisionCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(SessionBuildCounter)
	prometheus.MustRegister(QuotaCheckCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(MaintenanceRunCounter)

	prometheus.MustRegister(RemoteValidationDuration)
	prometheus.MustRegister(SessionBuildDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)
}

// SetInfo publishes the build information gauge
func SetInfo(version, authStrategy, storeDriver string) {
	InfoGauge.With(prometheus.Labels{
		"version":       version,
		"auth_strategy": authStrategy,
		"store_driver":  storeDriver,
	}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures store operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(endTime.Sub(startTime).Seconds())
	}
}

// TrackRemoteCall measures a call to the authorization server
func TrackRemoteCall(endpoint string) func(err error) {
	startTime := time.Now()
	return func(err error) {
		result := "success"
		if err != nil {
			result = "error"
		}
		RemoteValidationDuration.With(prometheus.Labels{
			"endpoint": endpoint,
			"result":   result,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthDecision records the outcome of the authorization pipeline
func RecordAuthDecision(allowed bool, reason string) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	AuthDecisionCounter.With(prometheus.Labels{"outcome": outcome, "reason": reason}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordSessionBuild records a session build and its duration
func RecordSessionBuild(start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SessionBuildCounter.With(prometheus.Labels{"result": result}).Inc()
	SessionBuildDuration.Observe(time.Since(start).Seconds())
}

// RecordQuotaCheck records a quota evaluation
func RecordQuotaCheck(entity string, allowed bool) {
	QuotaCheckCounter.With(prometheus.Labels{
		"entity":  entity,
		"allowed": strconv.FormatBool(allowed),
	}).Inc()
}

// RecordEntityOperation records a create/update/delete/restore on an entity
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.With(prometheus.Labels{"entity": entity, "operation": operation}).Inc()
}

// RecordMaintenanceRun records a scheduled maintenance task run
func RecordMaintenanceRun(task string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	MaintenanceRunCounter.With(prometheus.Labels{"task": task, "result": result}).Inc()
}
