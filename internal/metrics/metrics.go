package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Movements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "movements_total", Help: "Committed ledger movements",
	}, []string{"kind"})
	PointsMoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "points_moved_total", Help: "Points moved by committed movements",
	}, []string{"kind"})
	Rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "rejections_total", Help: "Operations rejected by business rules",
	}, []string{"op", "code"})
	ClaimTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "claim_transitions_total", Help: "Reward claim state changes",
	}, []string{"status"})
	EmotionsLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "emotions_logged_total", Help: "Emotion entries recorded",
	})
	NotifyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "notify_errors_total", Help: "Notifications that failed to persist or publish",
	})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amistapp", Name: "http_requests_total", Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "amistapp", Name: "http_request_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "amistapp", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Movements, PointsMoved, Rejections, ClaimTransitions,
		EmotionsLogged, NotifyErrors, HTTPRequests, HTTPDuration, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveMovement(kind string, amount int64) {
	Movements.WithLabelValues(kind).Inc()
	PointsMoved.WithLabelValues(kind).Add(float64(amount))
}

func ObserveRejection(op, code string) { Rejections.WithLabelValues(op, code).Inc() }

func ObserveHTTP(route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
