// Package metrics exports the outcome of a run in Prometheus text format,
// for pickup by a node_exporter textfile collector.
package metrics

import (
	"math/big"
	"time"

	"github.com/TDiblik/asnranges/ranges"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asnranges"

type Recorder struct {
	registry     *prometheus.Registry
	rows         *prometheus.GaugeVec
	records      *prometheus.GaugeVec
	skipped      *prometheus.GaugeVec
	addresses    *prometheus.GaugeVec
	uncounted    *prometheus.GaugeVec
	duration     prometheus.Gauge
	success      prometheus.Gauge
	lastFinished prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_read",
			Help:      "Rows read from each source table during the last run.",
		}, []string{"table"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_emitted",
			Help:      "Normalized records written for each source table during the last run.",
		}, []string{"table"}),
		skipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_skipped",
			Help:      "Malformed rows skipped for each source table during the last run.",
		}, []string{"table"}),
		addresses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "addresses_covered",
			Help:      "Addresses covered by the emitted ranges of each source table.",
		}, []string{"table"}),
		uncounted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_uncounted",
			Help:      "Emitted records whose bounds could not be parsed as addresses and are missing from addresses_covered.",
		}, []string{"table"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the last run completed, 0 if it failed.",
		}),
		lastFinished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_finished_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.rows, r.records, r.skipped, r.addresses, r.uncounted, r.duration, r.success, r.lastFinished)
	return r
}

// Observe records a finished run. runErr is the error the run ended with.
func (r *Recorder) Observe(report ranges.Report, elapsed time.Duration, runErr error) {
	for _, stats := range []ranges.Stats{report.V4, report.V6} {
		if stats.Table == "" {
			continue
		}
		r.rows.WithLabelValues(stats.Table).Set(float64(stats.Rows))
		r.records.WithLabelValues(stats.Table).Set(float64(stats.Emitted))
		r.skipped.WithLabelValues(stats.Table).Set(float64(stats.Skipped))
		addresses, _ := new(big.Float).SetInt(stats.Addresses.Big()).Float64()
		r.addresses.WithLabelValues(stats.Table).Set(addresses)
		r.uncounted.WithLabelValues(stats.Table).Set(float64(stats.Uncounted))
	}
	r.duration.Set(elapsed.Seconds())
	if runErr == nil {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
	r.lastFinished.SetToCurrentTime()
}

// WriteFile atomically replaces path with the current metrics.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
