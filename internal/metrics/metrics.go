package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several explorers (one per SSH
// session) can coexist in a process. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	operations     *prometheus.CounterVec
	errors         *prometheus.CounterVec
	historyDepth   prometheus.Gauge
	renderDuration prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraczoom",
			Subsystem: "nav",
			Name:      "operations_total",
			Help:      "Committed navigation operations",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraczoom",
			Subsystem: "nav",
			Name:      "errors_total",
			Help:      "Navigation operations rejected with an error",
		}, []string{"op"}),
		historyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fraczoom",
			Subsystem: "nav",
			Name:      "history_depth",
			Help:      "Entries currently on the zoom history stack",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fraczoom",
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time spent computing one frame",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
	r.registry.MustRegister(r.operations, r.errors, r.historyDepth, r.renderDuration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Operation(op string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op).Inc()
}

func (r *Recorder) Error(op string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(op).Inc()
}

func (r *Recorder) HistoryDepth(n int) {
	if r == nil {
		return
	}
	r.historyDepth.Set(float64(n))
}

func (r *Recorder) ObserveRender(d time.Duration) {
	if r == nil {
		return
	}
	r.renderDuration.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, r *Recorder) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
