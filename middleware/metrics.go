package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var promResponseDurationMilliseconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "socialcard_api_response_duration_milliseconds",
	Help:    "The duration of time it takes to receive and write a response to an API request",
	Buckets: prometheus.ExponentialBuckets(9.375, 2, 10),
}, []string{"route", "code"})

func init() {
	prometheus.MustRegister(promResponseDurationMilliseconds)
}

// Metrics observes request latency labelled by chi route pattern and status.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		promResponseDurationMilliseconds.
			WithLabelValues(route, strconv.Itoa(status)).
			Observe(float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond))
	})
}
