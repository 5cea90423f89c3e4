package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "device_sync_mutations_total",
		Help: "Submitted mutations by final status.",
	}, []string{"status"})

	Conflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "device_sync_conflicts_total",
		Help: "Detected version conflicts by strategy applied.",
	}, []string{"strategy"})

	LockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "device_sync_lock_wait_seconds",
		Help:    "Time spent waiting for the per owner/data type commit lock.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	})
	LockTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "device_sync_lock_timeouts_total",
		Help: "Total commit lock acquisitions that timed out.",
	})

	FanoutDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "device_sync_fanout_delivered_total",
		Help: "Envelopes handed to a live device channel.",
	})
	FanoutFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "device_sync_fanout_failed_total",
		Help: "Live sends that failed and dropped the channel.",
	})
	FanoutBuffered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "device_sync_fanout_buffered_total",
		Help: "Envelopes pushed to the offline buffer.",
	})
	BufferEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "device_sync_buffer_evictions_total",
		Help: "Envelopes evicted from a full offline buffer.",
	})

	OnlineDevices = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "device_sync_online_devices",
		Help: "Device channels currently registered on this instance.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		Mutations, Conflicts,
		LockWait, LockTimeouts,
		FanoutDelivered, FanoutFailed, FanoutBuffered, BufferEvictions,
		OnlineDevices,
	)
}
