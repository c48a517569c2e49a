package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SubmissionCounter result: committed / rolled_back / rejected / not_found
	SubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionnaire_submissions_total",
			Help: "Shared questionnaire submissions by outcome",
		},
		[]string{"result"},
	)

	SubmissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "questionnaire_submission_tx_seconds",
			Help:    "Duration of the response persistence transaction",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// RespondentIdentifyCounter outcome: created / updated / race_resolved / error
	RespondentIdentifyCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respondent_identify_total",
			Help: "Respondent registry upserts by outcome",
		},
		[]string{"outcome"},
	)

	OptionsDecodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "question_options_decode_failures_total",
			Help: "Stored question options that could not be decoded and were served as null",
		},
	)

	SnapshotCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionnaire_snapshot_cache_total",
			Help: "Shared questionnaire snapshot cache lookups",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SubmissionCounter,
			SubmissionDuration,
			RespondentIdentifyCounter,
			OptionsDecodeFailures,
			SnapshotCacheCounter,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
