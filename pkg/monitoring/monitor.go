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

	// ReviewsSubmitted 按结果（accepted 或错误码）统计评审提交
	ReviewsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peer_reviews_submitted_total",
			Help: "Peer review submissions by outcome",
		},
		[]string{"outcome"},
	)

	// SubmissionsFinalized 达到共识的提交数
	SubmissionsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_finalized_total",
			Help: "Submissions finalized by peer review quorum",
		},
		[]string{"passed"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ReviewsSubmitted)
		prometheus.MustRegister(SubmissionsFinalized)
	})
}

// ObserveFinalized 记录一次最终评分
func ObserveFinalized(passed bool) {
	SubmissionsFinalized.WithLabelValues(strconv.FormatBool(passed)).Inc()
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
