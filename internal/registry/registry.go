package registry

import (
	"fmt"
	"time"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/outputs"
	"github.com/fanctrl/fanctrl/internal/sensors"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// DeviceFactory resolves a channel name (e.g. "pwm2") into a hardware
// device handle. The daemon uses sysfs-backed channels, tests plug in
// fakes.
type DeviceFactory func(name string) hwmon.Device

// Registry owns every sensor and output instance created from
// configuration. Fans referencing the same physical channel share one
// instance, deduplicated by channel name. It is constructed once at
// startup and passed by reference, never held as ambient global state.
type Registry struct {
	factory     DeviceFactory
	cycleLength time.Duration

	temps   cmap.ConcurrentMap[string, *sensors.TempSensor]
	tachs   cmap.ConcurrentMap[string, *sensors.TachSensor]
	outputs cmap.ConcurrentMap[string, *outputs.PWMOutput]
}

func NewRegistry(factory DeviceFactory, cycleLength time.Duration) *Registry {
	return &Registry{
		factory:     factory,
		cycleLength: cycleLength,
		temps:       cmap.New[*sensors.TempSensor](),
		tachs:       cmap.New[*sensors.TachSensor](),
		outputs:     cmap.New[*outputs.PWMOutput](),
	}
}

// TempSensorFor returns the shared temperature sensor for the given
// channel name, creating it on first use.
func (r *Registry) TempSensorFor(name string) (*sensors.TempSensor, error) {
	if sensor, ok := r.temps.Get(name); ok {
		return sensor, nil
	}
	device := r.factory(name)
	if !device.IsValid() {
		return nil, fmt.Errorf("sensor %s: not a readable channel", name)
	}
	sensor := sensors.NewTempSensor(name, device)
	r.temps.Set(name, sensor)
	return sensor, nil
}

// TachSensorFor returns the shared tachometer sensor for the given
// channel name, creating it on first use.
func (r *Registry) TachSensorFor(name string) (*sensors.TachSensor, error) {
	if sensor, ok := r.tachs.Get(name); ok {
		return sensor, nil
	}
	device := r.factory(name)
	if !device.IsValid() {
		return nil, fmt.Errorf("tach %s: not a readable channel", name)
	}
	sensor := sensors.NewTachSensor(name, device)
	r.tachs.Set(name, sensor)
	return sensor, nil
}

// OutputFor returns the shared pwm output for the given channel name,
// creating it on first use. A fan must never be bound to a read-only
// resource for its pwm output, and the channel must support a control
// mode toggle so the original mode can be restored on shutdown.
func (r *Registry) OutputFor(name string) (*outputs.PWMOutput, error) {
	if output, ok := r.outputs.Get(name); ok {
		return output, nil
	}
	device := r.factory(name)
	if !device.IsValid() {
		return nil, fmt.Errorf("output %s: not a readable channel", name)
	}
	if !device.IsWritable() {
		return nil, fmt.Errorf("output %s: channel is not writable", name)
	}
	if !device.HasEnable() {
		return nil, fmt.Errorf("output %s: channel has no control mode", name)
	}
	output := outputs.NewPWMOutput(name, device, r.cycleLength)
	r.outputs.Set(name, output)
	return output, nil
}

// CreateFan builds a fan from its validated configuration section,
// resolving (and sharing) its three channels through the registry.
func (r *Registry) CreateFan(config configuration.FanConfig) (*fans.Fan, error) {
	output, err := r.OutputFor(config.Device)
	if err != nil {
		return nil, fmt.Errorf("fan %s: %w", config.ID, err)
	}
	sensor, err := r.TempSensorFor(config.Sensor)
	if err != nil {
		return nil, fmt.Errorf("fan %s: %w", config.ID, err)
	}
	tach, err := r.TachSensorFor(config.Tach)
	if err != nil {
		return nil, fmt.Errorf("fan %s: %w", config.ID, err)
	}

	return fans.NewFan(
		config.ID,
		output,
		sensor,
		tach,
		config.PwmMin,
		config.PwmMax,
		config.PwmStart,
		config.PwmStop,
		config.SensorMin,
		config.SensorMax,
	), nil
}

// Sensors returns every read-only sensor created so far
func (r *Registry) Sensors() []sensors.Sensor {
	var result []sensors.Sensor
	for _, sensor := range r.temps.Items() {
		result = append(result, sensor)
	}
	for _, sensor := range r.tachs.Items() {
		result = append(result, sensor)
	}
	return result
}

// Outputs returns every pwm output created so far
func (r *Registry) Outputs() []*outputs.PWMOutput {
	var result []*outputs.PWMOutput
	for _, output := range r.outputs.Items() {
		result = append(result, output)
	}
	return result
}
