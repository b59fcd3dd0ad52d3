package timing

import "github.com/prometheus/client_golang/prometheus"

var (
	nodesFinished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rendertrace",
		Name:      "nodes_finished_total",
		Help:      "Operations finished by recorders.",
	})
	nodesOrphaned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rendertrace",
		Name:      "nodes_orphaned_total",
		Help:      "Operations begun but never ended when a recorder was drained.",
	})
	rootDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rendertrace",
		Name:      "root_duration",
		Help:      "Duration of completed root operations, in event time units.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(nodesFinished, nodesOrphaned, rootDuration)
}
