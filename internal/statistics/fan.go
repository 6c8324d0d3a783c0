package statistics

import (
	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

type FanCollector struct {
	fans   []*fans.Fan
	rpm    *prometheus.Desc
	target *prometheus.Desc
	temp   *prometheus.Desc
}

func NewFanCollector(fans []*fans.Fan) *FanCollector {
	return &FanCollector{
		fans: fans,
		rpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "rpm"),
			"Current RPM value of the fan",
			[]string{"id"}, nil,
		),
		target: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "target"),
			"PWM value last computed for the fan from its temperature",
			[]string{"id"}, nil,
		),
		temp: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "temp"),
			"Temperature the fan's duty cycle is computed from",
			[]string{"id"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.rpm
	ch <- collector.target
	ch <- collector.temp
}

func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	for _, fan := range collector.fans {
		fanId := fan.GetId()
		temp := fan.Sensor.GetValue()
		ch <- prometheus.MustNewConstMetric(collector.rpm, prometheus.GaugeValue, float64(fan.Tach.GetValue()), fanId)
		ch <- prometheus.MustNewConstMetric(collector.target, prometheus.GaugeValue, float64(fan.TargetFor(temp)), fanId)
		ch <- prometheus.MustNewConstMetric(collector.temp, prometheus.GaugeValue, float64(temp), fanId)
	}
}
