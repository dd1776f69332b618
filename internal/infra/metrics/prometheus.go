package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hific_runs_total",
		Help: "Total number of pipeline runs, by final status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hific_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{0.1, 1, 5, 10, 30, 60, 300, 900, 3600},
	}, []string{"stage"})

	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hific_frames_total",
		Help: "Frames seen by the compression driver, by terminal state",
	}, []string{"state"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hific_frames_extracted_total",
		Help: "Total number of frames extracted from input videos",
	})

	CodecDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hific_codec_duration_seconds",
		Help:    "Duration of a single compress or decompress call",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"operation"})

	CompressedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hific_compressed_bytes_total",
		Help: "Total size of compressed artifacts produced",
	})

	BitsPerPixel = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hific_bits_per_pixel",
		Help:    "Bits per pixel of compressed frames",
		Buckets: []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hific_active_workers",
		Help: "Number of frames currently being compressed",
	})
)
