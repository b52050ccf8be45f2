package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status_code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "HTTP request duration in seconds",
	}, []string{"method", "endpoint"})

	httpRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_progress",
		Help: "Number of HTTP requests currently being processed",
	})
)

// Business metrics.
var (
	userOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "user_operations_total",
		Help: "Total number of user operations",
	}, []string{"operation", "status"})

	authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Total number of authentication attempts",
	}, []string{"status"})

	jwtTokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jwt_tokens_issued_total",
		Help: "Total number of JWT tokens issued",
	})

	activeUsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_users_total",
		Help: "Total number of active users",
	})
)

// Database metrics.
var (
	dbOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_operations_total",
		Help: "Total number of database operations",
	}, []string{"operation", "table", "status"})

	dbOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "db_operation_duration_seconds",
		Help: "Database operation duration in seconds",
	}, []string{"operation", "table"})

	dbConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connections_active",
		Help: "Number of active database connections",
	})
)

// Broker metrics.
var (
	messagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_published_total",
		Help: "Total number of messages published to RabbitMQ",
	}, []string{"queue", "status"})

	messagesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_consumed_total",
		Help: "Total number of messages consumed from RabbitMQ",
	}, []string{"queue", "status"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Current depth of RabbitMQ queues",
	}, []string{"queue"})
)

// Application metrics.
var (
	applicationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "application_errors_total",
		Help: "Total number of application errors",
	}, []string{"error_type", "component"})

	commandProcessingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "command_processing_total",
		Help: "Total number of commands processed",
	}, []string{"command_type", "status"})

	queryProcessingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "query_processing_total",
		Help: "Total number of queries processed",
	}, []string{"query_type", "status"})
)

func RecordHTTPRequest(method, endpoint, statusCode string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

func HTTPRequestStarted()  { httpRequestsInProgress.Inc() }
func HTTPRequestFinished() { httpRequestsInProgress.Dec() }

func RecordUserOperation(operation, status string) {
	userOperationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordAuthAttempt(status string) {
	authAttemptsTotal.WithLabelValues(status).Inc()
}

func RecordJWTTokenIssued() { jwtTokensIssuedTotal.Inc() }

func SetActiveUsers(count float64) { activeUsersTotal.Set(count) }

func RecordDBOperation(operation, table, status string, seconds float64) {
	dbOperationsTotal.WithLabelValues(operation, table, status).Inc()
	dbOperationDuration.WithLabelValues(operation, table).Observe(seconds)
}

func SetDBConnectionsActive(count float64) { dbConnectionsActive.Set(count) }

func RecordMessagePublished(queue, status string) {
	messagesPublishedTotal.WithLabelValues(queue, status).Inc()
}

func RecordMessageConsumed(queue, status string) {
	messagesConsumedTotal.WithLabelValues(queue, status).Inc()
}

func SetQueueDepth(queue string, depth float64) {
	queueDepth.WithLabelValues(queue).Set(depth)
}

func RecordApplicationError(errorType, component string) {
	applicationErrorsTotal.WithLabelValues(errorType, component).Inc()
}

func RecordCommand(commandType, status string) {
	commandProcessingTotal.WithLabelValues(commandType, status).Inc()
}

func RecordQuery(queryType, status string) {
	queryProcessingTotal.WithLabelValues(queryType, status).Inc()
}

// Handler serves the pull-based text exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
