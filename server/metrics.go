package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the server's Prometheus metrics on a private registry
// so parallel servers in tests never fight over registration.
type Collector struct {
	registry *prometheus.Registry

	ClientsConnected prometheus.Gauge
	FramesBroadcast  prometheus.Counter
	FrameInterval    prometheus.Histogram
	BroadcastDrops   prometheus.Counter
	TrailNodes       prometheus.Gauge
	TrailLinks       prometheus.Gauge
	EngineFaults     prometheus.Counter
	WSMessages       *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewCollector creates and registers all server metrics under the given
// namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		ClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients_connected",
			Help:      "Number of WebSocket clients currently connected",
		}),
		FramesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_broadcast_total",
			Help:      "Total frame snapshots broadcast to clients",
		}),
		FrameInterval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_interval_seconds",
			Help:      "Time between consecutive broadcast frames",
			Buckets:   []float64{0.005, 0.01, 0.0167, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_drops_total",
			Help:      "Frames dropped because a client send buffer was full",
		}),
		TrailNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trail_nodes",
			Help:      "Nodes in the current trail",
		}),
		TrailLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trail_links",
			Help:      "Links in the current trail",
		}),
		EngineFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_faults_total",
			Help:      "Times the engine entered a fault state",
		}),
		WSMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Inbound WebSocket messages by type",
		}, []string{"type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route, method, and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	c.registry.MustRegister(
		c.ClientsConnected,
		c.FramesBroadcast,
		c.FrameInterval,
		c.BroadcastDrops,
		c.TrailNodes,
		c.TrailLinks,
		c.EngineFaults,
		c.WSMessages,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// GetRegistry exposes the registry for the /metrics handler.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
