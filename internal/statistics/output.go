package statistics

import (
	"github.com/fanctrl/fanctrl/internal/outputs"
	"github.com/prometheus/client_golang/prometheus"
)

const outputSubsystem = "output"

type OutputCollector struct {
	outputs []*outputs.PWMOutput
	pwm     *prometheus.Desc
	state   *prometheus.Desc
}

func NewOutputCollector(outputs []*outputs.PWMOutput) *OutputCollector {
	return &OutputCollector{
		outputs: outputs,
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "pwm"),
			"Last PWM value written to the output channel",
			[]string{"id"}, nil,
		),
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "state"),
			"Current state of the output channel state machine",
			[]string{"id"}, nil,
		),
	}
}

func (collector *OutputCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.pwm
	ch <- collector.state
}

func (collector *OutputCollector) Collect(ch chan<- prometheus.Metric) {
	for _, output := range collector.outputs {
		outputId := output.GetId()
		ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(output.GetValue()), outputId)
		ch <- prometheus.MustNewConstMetric(collector.state, prometheus.GaugeValue, float64(output.GetState()), outputId)
	}
}
