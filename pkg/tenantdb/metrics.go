package tenantdb

import "github.com/prometheus/client_golang/prometheus"

const (
	labelSuccess = "success"
	labelError   = "error"
)

// Metrics instruments a Manager. Register PrometheusCollectors with the
// application registry to export them.
type Metrics struct {
	OpenHandles    prometheus.Gauge
	HandleOpens    *prometheus.CounterVec
	Sessions       *prometheus.CounterVec
	Provisioning   *prometheus.CounterVec
	ProvisionTimes *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	const (
		namespace = "kbm"
		subsystem = "tenantdb"
	)

	return &Metrics{
		OpenHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "open_handles",
			Help:      "Number of tenant database handles currently cached",
		}),
		HandleOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_opens_total",
			Help:      "Count of tenant database handle opens",
		}, []string{"result"}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_total",
			Help:      "Count of sessions bound to requests",
		}, []string{"scope"}),
		Provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provisioning_total",
			Help:      "Count of tenant database create and delete operations",
		}, []string{"operation", "result"}),
		ProvisionTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provisioning_duration_seconds",
			Help:      "Histogram of time spent creating and deleting tenant databases",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 4, 7),
		}, []string{"operation"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OpenHandles,
		m.HandleOpens,
		m.Sessions,
		m.Provisioning,
		m.ProvisionTimes,
	}
}

func resultLabel(err error) string {
	if err != nil {
		return labelError
	}
	return labelSuccess
}
