package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Pipeline holds the upload/transcode collectors. Each instance registers on
// its own registry so tests can build as many as they need.
type Pipeline struct {
	Registry *prometheus.Registry

	ChunksWritten      prometheus.Counter
	UploadsCompleted   prometheus.Counter
	TranscodeDuration  prometheus.Histogram
	ActiveTranscodes   prometheus.Gauge
	QueueDepth         prometheus.Gauge
	TranscodeFailures  *prometheus.CounterVec
	JanitorVideos      prometheus.Counter
	JanitorSweepErrors *prometheus.CounterVec
}

func NewPipeline() *Pipeline {
	reg := prometheus.NewRegistry()
	m := &Pipeline{
		Registry: reg,
		ChunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_chunks_written_total",
			Help: "Chunks durably written to source files",
		}),
		UploadsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_completed_total",
			Help: "Uploads whose last chunk moved the video to PROCESSING",
		}),
		TranscodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcode_duration_seconds",
			Help:    "Time taken to transcode and thumbnail a video",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ActiveTranscodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transcode_active",
			Help: "Transcodes currently holding a concurrency slot",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transcode_queue_depth",
			Help: "Video IDs waiting on the transcode queue",
		}),
		TranscodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transcode_failures_total",
			Help: "Failed transcode attempts by stage",
		}, []string{"stage"}),
		JanitorVideos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "janitor_videos_deleted_total",
			Help: "Stale or deleted videos reclaimed by the janitor",
		}),
		JanitorSweepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "janitor_sweep_errors_total",
			Help: "Janitor sweeps that ended with an error",
		}, []string{"sweep"}),
	}
	reg.MustRegister(
		m.ChunksWritten,
		m.UploadsCompleted,
		m.TranscodeDuration,
		m.ActiveTranscodes,
		m.QueueDepth,
		m.TranscodeFailures,
		m.JanitorVideos,
		m.JanitorSweepErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
