// Package metrics provides Prometheus metrics for the control panel.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command sources.
const (
	SourceOperator = "operator"
	SourceRefresh  = "refresh"
)

var (
	rconCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftpanel_rcon_commands_total",
			Help: "RCON commands sent, by origin and result",
		},
		[]string{"source", "result"},
	)

	rconConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftpanel_rcon_connects_total",
			Help: "RCON connection attempts by result",
		},
		[]string{"result"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "craftpanel_refresh_duration_seconds",
			Help:    "Time spent in one status refresh cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	refreshStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftpanel_refresh_step_failures_total",
			Help: "Failed status refresh steps",
		},
		[]string{"step"},
	)

	playersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_players_online",
		Help: "Players online at the last refresh",
	})

	playersMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_players_max",
		Help: "Player slots at the last refresh",
	})

	tickRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_tps",
		Help: "Server ticks per second at the last refresh",
	})

	addonsInstalled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_addons_installed",
		Help: "Addon files found at the last refresh",
	})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_ws_clients",
		Help: "Connected websocket clients",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftpanel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func RecordCommand(source string, err error) {
	rconCommandsTotal.WithLabelValues(source, result(err)).Inc()
}

func RecordConnect(err error) {
	rconConnectsTotal.WithLabelValues(result(err)).Inc()
}

func ObserveRefresh(d time.Duration) {
	refreshDuration.Observe(d.Seconds())
}

func RecordStepFailure(step string) {
	refreshStepFailures.WithLabelValues(step).Inc()
}

// SetStatus mirrors a published snapshot.
func SetStatus(players, maxPlayers int, tps float64, addons int) {
	playersOnline.Set(float64(players))
	playersMax.Set(float64(maxPlayers))
	tickRate.Set(tps)
	addonsInstalled.Set(float64(addons))
}

func SetWSClients(n int) {
	wsClients.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware counts requests per route. path is the route label, not the raw
// URL, to keep label cardinality fixed.
func Middleware(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
	})
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
