package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CraigKelly/bvsel/sampler"
)

const metricsNamespace = "bvsel"

// monitor keeps run metrics in its own registry. The metrics are always
// recorded; Start additionally serves them over HTTP.
type monitor struct {
	registry *prometheus.Registry
	stopped  chan struct{}
	server   *http.Server

	Iteration  *prometheus.GaugeVec     // Last reported sweep, by method
	Fraction   *prometheus.GaugeVec     // Iteration / Total, by method
	Runs       *prometheus.CounterVec   // Finished runs, by method and status
	RunSeconds *prometheus.HistogramVec // Wall time of finished runs, by method
	Retained   *prometheus.GaugeVec     // Retained draws of the last run, by method
}

func newMonitor() *monitor {
	m := &monitor{
		registry: prometheus.NewRegistry(),
		Iteration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "iteration",
			Help:      "Last Gibbs sweep reported by each sampler",
		}, []string{"method"}),
		Fraction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "progress_ratio",
			Help:      "Fraction of configured iterations completed",
		}, []string{"method"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "runs_total",
			Help:      "Finished sampler runs by method and status (complete, incomplete)",
		}, []string{"method", "status"}),
		RunSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "run_seconds",
			Help:      "Wall time of sampler runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"method"}),
		Retained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "retained_draws",
			Help:      "Post burn-in draws kept by the last run",
		}, []string{"method"}),
	}

	m.registry.MustRegister(m.Iteration, m.Fraction, m.Runs, m.RunSeconds, m.Retained)
	return m
}

// Progress is a sampler.ProgressFunc
func (m *monitor) Progress(p sampler.Progress) {
	m.Iteration.WithLabelValues(p.Method).Set(float64(p.Iteration))
	if p.Total > 0 {
		m.Fraction.WithLabelValues(p.Method).Set(float64(p.Iteration) / float64(p.Total))
	}
}

// Finished records a run that returned, complete or not
func (m *monitor) Finished(res *sampler.Result) {
	if res == nil {
		return
	}
	status := "complete"
	if !res.Complete {
		status = "incomplete"
	}
	m.Runs.WithLabelValues(res.Method, status).Inc()
	m.RunSeconds.WithLabelValues(res.Method).Observe(res.Elapsed.Seconds())
	m.Retained.WithLabelValues(res.Method).Set(float64(res.Len()))
	m.Iteration.WithLabelValues(res.Method).Set(float64(res.Iterations))
}

// Start serves /metrics on addr
func (m *monitor) Start(addr string) error {
	if m.server != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/metrics", http.StatusTemporaryRedirect)
	})

	m.stopped = make(chan struct{})
	m.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Actual server that will close the stopped channel on exit
	started := make(chan struct{})
	go func() {
		defer close(m.stopped)
		fmt.Fprintf(os.Stderr, "HTTP now available at %v (see /metrics)\n", m.server.Addr)
		close(started)
		m.server.ListenAndServe()
	}()

	<-started
	return nil
}

// Stop shuts the server down if it was started
func (m *monitor) Stop() {
	if m.server == nil {
		return
	}

	m.server.Close()

	select {
	case <-m.stopped:
		fmt.Fprintf(os.Stderr, "HTTP Info Stopped\n")
	case <-time.After(2 * time.Second):
		fmt.Fprintf(os.Stderr, "HTTP would NOT stop: just continuing on\n")
	}
}
