// Package metrics expõe métricas Prometheus do lote de verificação.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder é o que o monitor precisa para registrar o lote.
type Recorder interface {
	RecordFetchSuccess()
	RecordFetchFailure(kind string)
	RecordNotification(result string)
	RecordBatch(duration time.Duration, alerts int)
}

// Collector implementa Recorder com Prometheus.
type Collector struct {
	fetchSuccess  prometheus.Counter
	fetchFail     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	batchDuration prometheus.Histogram
	batchAlerts   prometheus.Gauge
}

// NewCollector cria o Collector e registra as métricas em reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricing_fetch_success_total",
			Help: "Item price fetches that produced a price.",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_fetch_fail_total",
			Help: "Item price fetches that failed, by error kind.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_notifications_total",
			Help: "Triggered alerts by delivery result (sent, partial, skipped, error).",
		}, []string{"result"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricing_batch_duration_seconds",
			Help:    "Duration of a full alert batch.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		batchAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricing_batch_alerts",
			Help: "Alerts processed by the last batch.",
		}),
	}

	reg.MustRegister(c.fetchSuccess, c.fetchFail, c.notifications, c.batchDuration, c.batchAlerts)
	return c
}

func (c *Collector) RecordFetchSuccess() {
	c.fetchSuccess.Inc()
}

func (c *Collector) RecordFetchFailure(kind string) {
	c.fetchFail.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordNotification(result string) {
	c.notifications.WithLabelValues(result).Inc()
}

func (c *Collector) RecordBatch(duration time.Duration, alerts int) {
	c.batchDuration.Observe(duration.Seconds())
	c.batchAlerts.Set(float64(alerts))
}

// Handler retorna o handler de scrape do Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop descarta tudo.
type Nop struct{}

func (Nop) RecordFetchSuccess() {}
func (Nop) RecordFetchFailure(string) {}
func (Nop) RecordNotification(string) {}
func (Nop) RecordBatch(time.Duration, int) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
