package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	reactionsTotal        *prometheus.CounterVec
	counterDesyncTotal    *prometheus.CounterVec
	notesDeactivatedTotal prometheus.Counter
	notificationsTotal    *prometheus.CounterVec
	badgesAwardedTotal    *prometheus.CounterVec
	realtimeEventsTotal   *prometheus.CounterVec
	realtimeClientsActive prometheus.Gauge
	schedulerRunsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors exposed by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unishare_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		reactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_reactions_total",
			Help: "Reaction transitions applied, by target type, kind and transition.",
		}, []string{"target", "kind", "transition"})

		counterDesyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_counter_desync_total",
			Help: "Counter decrements that were clamped at zero.",
		}, []string{"target", "column"})

		notesDeactivatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unishare_notes_deactivated_total",
			Help: "Notes deactivated after crossing the report threshold.",
		})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_notifications_total",
			Help: "Notifications written, by type and whether they were aggregated.",
		}, []string{"type", "mode"})

		badgesAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_badges_awarded_total",
			Help: "Badges awarded, by badge id.",
		}, []string{"badge"})

		realtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_realtime_events_total",
			Help: "Realtime events emitted, by event name.",
		}, []string{"event"})

		realtimeClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unishare_realtime_clients_active",
			Help: "Live websocket and SSE connections on this node.",
		})

		schedulerRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unishare_scheduler_runs_total",
			Help: "Scheduled job executions, by job and result.",
		}, []string{"job", "result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			reactionsTotal,
			counterDesyncTotal,
			notesDeactivatedTotal,
			notificationsTotal,
			badgesAwardedTotal,
			realtimeEventsTotal,
			realtimeClientsActive,
			schedulerRunsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

func ReactionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return reactionsTotal
}

func CounterDesyncTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return counterDesyncTotal
}

func NotesDeactivatedTotal() prometheus.Counter {
	RegisterMetrics()
	return notesDeactivatedTotal
}

func NotificationsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

func BadgesAwardedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return badgesAwardedTotal
}

func RealtimeEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsTotal
}

// RealtimeClientsActive tracks live subscriber connections on this node.
func RealtimeClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeClientsActive
}

func SchedulerRunsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return schedulerRunsTotal
}
