package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector of the process on its own registry, so tests
// can build as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	FeedMessages      *prometheus.CounterVec
	FeedParseErrors   *prometheus.CounterVec
	FeedReconnects    *prometheus.CounterVec
	FeedPolls         *prometheus.CounterVec
	CacheInstruments  prometheus.Gauge
	HubSubscribers    prometheus.Gauge
	HubDropped        prometheus.Counter
	SweepDuration     *prometheus.HistogramVec
	SweepOverruns     *prometheus.CounterVec
	SweepFailures     *prometheus.CounterVec
	PositionsClosed   *prometheus.CounterVec
	SwapAdjustments   *prometheus.CounterVec
	CommissionRecords prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_feed_messages_total",
			Help: "Upstream feed messages received by channel and kind.",
		}, []string{"channel", "kind"}),
		FeedParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_feed_parse_errors_total",
			Help: "Upstream feed messages that could not be parsed.",
		}, []string{"channel"}),
		FeedReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_feed_reconnects_total",
			Help: "Streaming connection reconnect attempts.",
		}, []string{"channel"}),
		FeedPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_feed_polls_total",
			Help: "Fallback HTTP batch polls by channel and result.",
		}, []string{"channel", "result"}),
		CacheInstruments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_price_cache_instruments",
			Help: "Instruments with a cached quote.",
		}),
		HubSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_hub_subscribers",
			Help: "Live price stream subscribers.",
		}),
		HubDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecore_hub_dropped_events_total",
			Help: "Events evicted from full subscriber queues.",
		}),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradecore_sweep_duration_seconds",
			Help:    "Duration of risk sweep passes.",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"sweep"}),
		SweepOverruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_sweep_overruns_total",
			Help: "Ticks skipped because the previous pass was still running.",
		}, []string{"sweep"}),
		SweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_sweep_failures_total",
			Help: "Sweep passes that returned an error or panicked.",
		}, []string{"sweep"}),
		PositionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_positions_closed_total",
			Help: "Positions closed by the risk engine.",
		}, []string{"pool", "reason"}),
		SwapAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_swap_adjustments_total",
			Help: "Overnight swap adjustments applied.",
		}, []string{"pool"}),
		CommissionRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecore_commission_records_total",
			Help: "Copy-trading commission records persisted.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FeedMessages, m.FeedParseErrors, m.FeedReconnects, m.FeedPolls,
		m.CacheInstruments, m.HubSubscribers, m.HubDropped,
		m.SweepDuration, m.SweepOverruns, m.SweepFailures,
		m.PositionsClosed, m.SwapAdjustments, m.CommissionRecords,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
