// Package metrics records dispatch outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/logzship/internal/ports"
	"github.com/bft-labs/logzship/pkg/log"
)

var _ ports.DispatchObserver = (*Recorder)(nil)

// Recorder implements ports.DispatchObserver with Prometheus counters.
type Recorder struct {
	dispatches *prometheus.CounterVec
	messages   prometheus.Counter
	bytes      prometheus.Counter

	success prometheus.Counter
	failure prometheus.Counter
}

// NewRecorder creates the shipper counters and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	opts := prometheus.CounterOpts{}
	opts.Name = "logzship_dispatches_total"
	opts.Help = "Numbers of batch dispatches to the listener"
	dispatches := prometheus.NewCounterVec(opts, []string{"status"})

	messages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logzship_messages_sent_total",
		Help: "Numbers of log records delivered to the listener",
	})
	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logzship_bytes_sent_total",
		Help: "Uncompressed bytes delivered to the listener",
	})

	for _, c := range []prometheus.Collector{dispatches, messages, bytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Recorder{
		dispatches: dispatches,
		messages:   messages,
		bytes:      bytes,
		success:    dispatches.WithLabelValues("success"),
		failure:    dispatches.WithLabelValues("failure"),
	}, nil
}

// ObserveDispatch counts one dispatch; delivered volume is only counted on success.
func (r *Recorder) ObserveDispatch(messages, bytes int, err error) {
	if err != nil {
		r.failure.Inc()
		return
	}
	r.success.Inc()
	r.messages.Add(float64(messages))
	r.bytes.Add(float64(bytes))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// LaunchListener starts an HTTP server exposing g on /metrics.
func LaunchListener(address string, g prometheus.Gatherer, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	server := &http.Server{Addr: address, Handler: mux}
	go func() {
		logger.Info("listening for metrics", log.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener error", log.Err(err))
		}
	}()
	return server
}
