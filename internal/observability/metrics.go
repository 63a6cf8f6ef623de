package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	sessionsStartedTotal   prometheus.Counter
	sessionsCompletedTotal prometheus.Counter
	sessionTotalScore      prometheus.Histogram
	answersSubmittedTotal  *prometheus.CounterVec
	resumeUploadsTotal     *prometheus.CounterVec
	completionEventsTotal  *prometheus.CounterVec
	sessionStreamClients   prometheus.Gauge
	snapshotFailuresTotal  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the interview API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_api_requests_total",
			Help: "Total number of interview API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interview_api_latency_seconds",
			Help:    "Latency distribution for interview API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_api_errors_total",
			Help: "Total number of error responses returned by interview endpoints.",
		}, []string{"method", "route", "status"})

		sessionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Interviews started.",
		})

		sessionsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_completed_total",
			Help: "Interviews completed and handed to the archive.",
		})

		sessionTotalScore = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_session_total_score",
			Help:    "Distribution of final interview scores.",
			Buckets: []float64{10, 20, 30, 40, 50, 60},
		})

		answersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_answers_submitted_total",
			Help: "Answers submitted, by question difficulty.",
		}, []string{"difficulty"})

		resumeUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_resume_uploads_total",
			Help: "Resume uploads by outcome.",
		}, []string{"outcome"})

		completionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_completion_events_total",
			Help: "Completion events published, by transport and outcome.",
		}, []string{"transport", "outcome"})

		sessionStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "interview_session_stream_clients",
			Help: "Connected live session stream clients.",
		})

		snapshotFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interview_snapshot_failures_total",
			Help: "Failed attempts to persist the live session snapshot.",
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			sessionsStartedTotal, sessionsCompletedTotal, sessionTotalScore,
			answersSubmittedTotal, resumeUploadsTotal, completionEventsTotal,
			sessionStreamClients, snapshotFailuresTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

func SessionsStarted() prometheus.Counter {
	RegisterMetrics()
	return sessionsStartedTotal
}

func SessionsCompleted() prometheus.Counter {
	RegisterMetrics()
	return sessionsCompletedTotal
}

func SessionTotalScore() prometheus.Histogram {
	RegisterMetrics()
	return sessionTotalScore
}

func AnswersSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return answersSubmittedTotal
}

func ResumeUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return resumeUploadsTotal
}

func CompletionEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return completionEventsTotal
}

// SessionStreamClients tracks open websocket subscribers.
func SessionStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return sessionStreamClients
}

func SnapshotFailures() prometheus.Counter {
	RegisterMetrics()
	return snapshotFailuresTotal
}
