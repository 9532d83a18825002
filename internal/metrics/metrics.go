// Package metrics exposes the dashboard state in Prometheus format.
//
// Gauges are read from a store snapshot on every scrape. Counters are fed
// by Observe, which is subscribed to the store, and by the publisher sinks.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
	"github.com/ecohome/ecohome/internal/version"
)

const namespace = "ecohome"

// Snapshotter provides the state read on every scrape
type Snapshotter interface {
	Snapshot() state.State
}

// MetricsCollector collects EcoHome state and activity metrics.
type MetricsCollector struct {
	store Snapshotter

	// serializes scrapes so the vectors are reset and refilled as a unit
	mu sync.Mutex

	totalPowerW   prometheus.Gauge
	monthlyCost   prometheus.Gauge
	savings       prometheus.Gauge
	activeDevices prometheus.Gauge
	windowLength  prometheus.Gauge
	latestKWh     prometheus.Gauge
	latestCost    prometheus.Gauge

	devicePowerW *prometheus.GaugeVec
	deviceOn     *prometheus.GaugeVec
	roomPowerW   *prometheus.GaugeVec
	alerts       *prometheus.GaugeVec

	togglesApplied  prometheus.Counter
	togglesIgnored  prometheus.Counter
	samplesAppended prometheus.Counter
	eventsPublished *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec
}

func NewMetricsCollector(store Snapshotter) *MetricsCollector {
	return &MetricsCollector{
		store: store,
		totalPowerW: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_power_w",
			Help:      "Summed power draw of all devices in watts",
		}),
		monthlyCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monthly_cost",
			Help:      "Projected monthly cost at the current draw",
		}),
		savings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "estimated_savings",
			Help:      "Estimated monthly savings at the current draw",
		}),
		activeDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_devices",
			Help:      "Number of devices switched on",
		}),
		windowLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "energy_window_samples",
			Help:      "Number of samples in the rolling energy window",
		}),
		latestKWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_consumption_kwh",
			Help:      "Consumption of the newest energy sample (kWh)",
		}),
		latestCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_cost",
			Help:      "Cost of the newest energy sample",
		}),
		devicePowerW: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_power_w",
			Help:      "Device power draw in watts",
		}, []string{"id", "name", "room", "category"}),
		deviceOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_on",
			Help:      "Device status (1=on, 0=off)",
		}, []string{"id", "name", "room", "category"}),
		roomPowerW: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_power_w",
			Help:      "Summed device power per room in watts",
		}, []string{"room"}),
		alerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts",
			Help:      "Alerts on the board by severity",
		}, []string{"severity"}),
		togglesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_applied_total",
			Help:      "Device toggles that changed state",
		}),
		togglesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_ignored_total",
			Help:      "Device toggles for unknown ids",
		}),
		samplesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_appended_total",
			Help:      "Energy samples appended by the simulator",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events delivered per sink",
		}, []string{"sink"}),
		eventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Events that could not be delivered per sink",
		}, []string{"sink"}),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.totalPowerW.Describe(ch)
	c.monthlyCost.Describe(ch)
	c.savings.Describe(ch)
	c.activeDevices.Describe(ch)
	c.windowLength.Describe(ch)
	c.latestKWh.Describe(ch)
	c.latestCost.Describe(ch)
	c.devicePowerW.Describe(ch)
	c.deviceOn.Describe(ch)
	c.roomPowerW.Describe(ch)
	c.alerts.Describe(ch)
	c.togglesApplied.Describe(ch)
	c.togglesIgnored.Describe(ch)
	c.samplesAppended.Describe(ch)
	c.eventsPublished.Describe(ch)
	c.eventsFailed.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.store.Snapshot()

	c.totalPowerW.Set(s.Totals.PowerW)
	c.monthlyCost.Set(s.Totals.MonthlyCost)
	c.savings.Set(s.Totals.Savings)
	c.activeDevices.Set(float64(s.Totals.ActiveDevices))
	c.windowLength.Set(float64(len(s.Samples)))

	if latest, ok := s.LatestSample(); ok {
		c.latestKWh.Set(latest.ConsumptionKWh)
		c.latestCost.Set(latest.Cost)
	} else {
		c.latestKWh.Set(0)
		c.latestCost.Set(0)
	}

	c.devicePowerW.Reset()
	c.deviceOn.Reset()
	for _, d := range s.Devices {
		labels := prometheus.Labels{
			"id":       strconv.Itoa(d.ID),
			"name":     d.Name,
			"room":     d.Room,
			"category": string(d.Category),
		}
		c.devicePowerW.With(labels).Set(d.PowerW)
		c.deviceOn.With(labels).Set(boolValue(d.IsOn()))
	}

	c.roomPowerW.Reset()
	for _, r := range s.Rooms {
		c.roomPowerW.WithLabelValues(r.Room).Set(r.PowerW)
	}

	counts := make(map[types.Severity]int, len(types.Severities))
	for _, a := range s.Alerts {
		counts[a.Severity]++
	}
	for _, sev := range types.Severities {
		c.alerts.WithLabelValues(string(sev)).Set(float64(counts[sev]))
	}

	c.totalPowerW.Collect(ch)
	c.monthlyCost.Collect(ch)
	c.savings.Collect(ch)
	c.activeDevices.Collect(ch)
	c.windowLength.Collect(ch)
	c.latestKWh.Collect(ch)
	c.latestCost.Collect(ch)
	c.devicePowerW.Collect(ch)
	c.deviceOn.Collect(ch)
	c.roomPowerW.Collect(ch)
	c.alerts.Collect(ch)
	c.togglesApplied.Collect(ch)
	c.togglesIgnored.Collect(ch)
	c.samplesAppended.Collect(ch)
	c.eventsPublished.Collect(ch)
	c.eventsFailed.Collect(ch)
}

// Observe counts a store dispatch. It has the state.Subscriber signature.
func (c *MetricsCollector) Observe(change state.Change) {
	switch change.Action.(type) {
	case state.ToggleDevice:
		if change.Changed {
			c.togglesApplied.Inc()
		} else {
			c.togglesIgnored.Inc()
		}
	case state.AppendSample:
		c.samplesAppended.Inc()
	}
}

// Published counts an event delivered by sink
func (c *MetricsCollector) Published(sink string) {
	c.eventsPublished.WithLabelValues(sink).Inc()
}

// Failed counts an event sink could not deliver
func (c *MetricsCollector) Failed(sink string) {
	c.eventsFailed.WithLabelValues(sink).Inc()
}

// NewRegistry returns a registry holding c, the Go runtime and process
// collectors and a build info gauge.
func NewRegistry(c *MetricsCollector, info version.Info) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"version": info.Version, "commit": info.Commit},
		}, func() float64 { return 1 }),
	)
	return reg
}

// Handler serves reg in the Prometheus text format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
