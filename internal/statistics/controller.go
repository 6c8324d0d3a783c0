package statistics

import (
	"github.com/fanctrl/fanctrl/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	controller    *controller.Controller
	cycleCount    *prometheus.Desc
	cycleDuration *prometheus.Desc
}

func NewControllerCollector(controller *controller.Controller) *ControllerCollector {
	return &ControllerCollector{
		controller: controller,
		cycleCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "cycle_count"),
			"Number of completed control cycles",
			nil, nil,
		),
		cycleDuration: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "cycle_duration_seconds"),
			"Duration of the last completed control cycle",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.cycleCount
	ch <- collector.cycleDuration
}

func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(collector.cycleCount, prometheus.CounterValue, float64(collector.controller.CycleCount()))
	ch <- prometheus.MustNewConstMetric(collector.cycleDuration, prometheus.GaugeValue, collector.controller.LastCycleDuration().Seconds())
}
