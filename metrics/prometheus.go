package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartsummarizer"

// Prometheus exports runs on its own registry, served by Handler.
type Prometheus struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	cacheHits prometheus.Counter
	words     prometheus.Counter
	duration  *prometheus.HistogramVec
	chunks    prometheus.Histogram
}

// NewPrometheus registers the run collectors plus the Go and process
// collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Summarization runs by source, strategy and status.",
		}, []string{"source", "strategy", "status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Summaries served from the cache.",
		}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_total",
			Help:      "Words in successfully summarized inputs.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time to produce a summary, excluding cache hits.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"strategy"}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_chunks",
			Help:      "Chunks per summarized input.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	p.registry.MustRegister(
		p.runs, p.cacheHits, p.words, p.duration, p.chunks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Record implements Recorder.
func (p *Prometheus) Record(run Run) {
	strategy := run.Strategy
	if strategy == "" {
		strategy = "none"
	}
	p.runs.WithLabelValues(run.Source, strategy, run.Status).Inc()
	if run.Status != RunStatusSuccess {
		return
	}
	p.words.Add(float64(run.Words))
	if run.Cached {
		p.cacheHits.Inc()
		return
	}
	p.duration.WithLabelValues(strategy).Observe(run.Duration.Seconds())
	p.chunks.Observe(float64(run.Chunks))
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
