// Package metrics exposes engine counters and gauges to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

const namespace = "bot"

// Recorder owns a private registry so several engines (and tests) never
// collide on metric registration.
type Recorder struct {
	registry *prometheus.Registry

	candles        *prometheus.CounterVec
	candlesDropped *prometheus.CounterVec
	signals        *prometheus.CounterVec
	strategyErrors *prometheus.CounterVec
	orders         *prometheus.CounterVec
	fills          *prometheus.CounterVec
	fillVolume     *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	gatewayErrors  *prometheus.CounterVec
	submitRetries  prometheus.Counter
	equity         prometheus.Gauge
	engineStatus   *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with all collectors registered, including
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		candles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candles_processed_total",
			Help:      "Closed candles processed by the symbol loops",
		}, []string{"symbol"}),
		candlesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candles_dropped_total",
			Help:      "Candles dropped before evaluation",
		}, []string{"symbol", "reason"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals emitted by the strategy",
		}, []string{"symbol", "side"}),
		strategyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_errors_total",
			Help:      "Strategy evaluations that failed or panicked",
		}, []string{"symbol"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Orders that reached a terminal status",
		}, []string{"symbol", "status", "reason"}),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fills_total",
			Help:      "Fills applied to orders",
		}, []string{"symbol", "side"}),
		fillVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fill_volume_total",
			Help:      "Filled quantity in base currency",
		}, []string{"symbol", "side"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_seconds",
			Help:      "Exchange gateway call latency",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Failed exchange gateway calls by error code",
		}, []string{"operation", "code"}),
		submitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_retries_total",
			Help:      "Order submissions retried after a transient failure",
		}),
		equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "equity",
			Help:      "Portfolio equity in quote currency",
		}),
		engineStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_status",
			Help:      "1 for the current engine status, 0 otherwise",
		}, []string{"status"}),
	}

	r.registry.MustRegister(
		r.candles,
		r.candlesDropped,
		r.signals,
		r.strategyErrors,
		r.orders,
		r.fills,
		r.fillVolume,
		r.gatewayLatency,
		r.gatewayErrors,
		r.submitRetries,
		r.equity,
		r.engineStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct
	)

	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}) //nolint:exhaustruct
}

func (r *Recorder) CandleProcessed(symbol string) {
	r.candles.WithLabelValues(symbol).Inc()
}

// CandleDropped counts a candle skipped for reason ("out_of_order", "invalid").
func (r *Recorder) CandleDropped(symbol, reason string) {
	r.candlesDropped.WithLabelValues(symbol, reason).Inc()
}

func (r *Recorder) SignalGenerated(signal types.Signal) {
	r.signals.WithLabelValues(signal.Symbol, string(signal.Side)).Inc()
}

func (r *Recorder) StrategyError(symbol string) {
	r.strategyErrors.WithLabelValues(symbol).Inc()
}

// OrderUpdated counts orders once they reach a terminal status.
func (r *Recorder) OrderUpdated(order types.Order) {
	if !order.Status.IsTerminal() {
		return
	}

	r.orders.WithLabelValues(order.Symbol, string(order.Status), order.Reason.Reason).Inc()
}

func (r *Recorder) FillApplied(trade types.Trade) {
	r.fills.WithLabelValues(trade.Symbol, string(trade.Side)).Inc()
	r.fillVolume.WithLabelValues(trade.Symbol, string(trade.Side)).Add(trade.Quantity)
}

// GatewayCall observes one gateway round trip.
func (r *Recorder) GatewayCall(operation string, duration time.Duration, err error) {
	r.gatewayLatency.WithLabelValues(operation).Observe(duration.Seconds())

	if err != nil {
		r.gatewayErrors.WithLabelValues(operation, strconv.Itoa(int(errors.GetCode(err)))).Inc()
	}
}

func (r *Recorder) SubmitRetry() {
	r.submitRetries.Inc()
}

func (r *Recorder) SetEquity(equity float64) {
	r.equity.Set(equity)
}

// SetEngineStatus marks status as the only active engine status.
func (r *Recorder) SetEngineStatus(status types.EngineStatus) {
	for _, s := range []types.EngineStatus{
		types.EngineStatusStopped,
		types.EngineStatusStarting,
		types.EngineStatusRunning,
		types.EngineStatusStopping,
		types.EngineStatusError,
	} {
		value := 0.0
		if s == status {
			value = 1
		}

		r.engineStatus.WithLabelValues(string(s)).Set(value)
	}
}
