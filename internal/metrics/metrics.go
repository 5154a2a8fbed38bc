// Package metrics records per-run decode telemetry. The selector runs once
// per graph evaluation, so metrics are flushed to a node-exporter textfile
// instead of being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	FramesDecodedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lnl_frames_decoded_total",
		Help: "Frames materialized into batches",
	}, []string{"kind"})

	BatchBuildDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lnl_batch_build_seconds",
		Help:    "Time spent decoding a frame batch",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"kind"})

	BatchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lnl_batch_failures_total",
		Help: "Frame batch builds that failed",
	}, []string{"kind", "reason"})

	AudioExtractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lnl_audio_extractions_total",
		Help: "Audio thunk evaluations",
	}, []string{"status"})
)

func init() {
	Registry.MustRegister(FramesDecodedTotal, BatchBuildDuration, BatchFailuresTotal, AudioExtractionsTotal)
}

// WriteTextfile atomically writes the registry in text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
