package station

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tracksPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Subsystem: "station",
		Name:      "tracks_played_total",
		Help:      "Tracks streamed to a clean end.",
	})
	resolutionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Subsystem: "station",
		Name:      "resolution_failures_total",
		Help:      "Queue entries skipped because no strategy resolved them.",
	})
	streamInterruptions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Subsystem: "station",
		Name:      "stream_interruptions_total",
		Help:      "Tracks that ended in a network or decode failure.",
	})
	cyclesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Subsystem: "station",
		Name:      "queue_cycles_total",
		Help:      "Full passes over the queue.",
	})
	gapFillerActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relayd",
		Subsystem: "station",
		Name:      "gap_filler_active",
		Help:      "1 while the silence writer holds the conduit.",
	})
)
