package fans

import (
	"fmt"
	"math"

	"github.com/fanctrl/fanctrl/internal/outputs"
	"github.com/fanctrl/fanctrl/internal/sensors"
	"github.com/fanctrl/fanctrl/internal/ui"
)

// Fan maps one temperature reading onto a duty cycle request for a pwm
// output. Several fans may share an output, the output arbitrates.
type Fan struct {
	Name string

	// Device is the writable pwm channel this fan is driven by
	Device *outputs.PWMOutput
	// Sensor is the temperature the duty cycle is computed from
	Sensor *sensors.TempSensor
	// Tach is the tachometer used for stall detection and spin-up checks
	Tach *sensors.TachSensor

	PwmMin   int
	PwmMax   int
	PwmStart int
	PwmStop  int

	SensorMin int
	SensorMax int
}

func NewFan(
	name string,
	device *outputs.PWMOutput,
	sensor *sensors.TempSensor,
	tach *sensors.TachSensor,
	pwmMin, pwmMax, pwmStart, pwmStop, sensorMin, sensorMax int,
) *Fan {
	f := &Fan{
		Name:      name,
		Device:    device,
		Sensor:    sensor,
		Tach:      tach,
		PwmMin:    pwmMin,
		PwmMax:    pwmMax,
		PwmStart:  pwmStart,
		PwmStop:   pwmStop,
		SensorMin: sensorMin,
		SensorMax: sensorMax,
	}
	device.RegisterFan(f)
	return f
}

func (f *Fan) GetId() string {
	return f.Name
}

func (f *Fan) GetMaxPwm() int {
	return f.PwmMax
}

func (f *Fan) TachReading() int {
	return f.Tach.GetValue()
}

func (f *Fan) TachRunning() bool {
	return f.Tach.PeekRunning()
}

// Setup submits a sensible initial request so the output has something to
// plan with before the first regular cycle
func (f *Fan) Setup() {
	f.Device.RequestValue(f.calculate())
}

// Update evaluates the current temperature and requests the next duty
// cycle. Nothing is written here, the output decides during planning.
func (f *Fan) Update() {
	f.Device.RequestValue(f.calculate())
}

// Shutdown requests maximum cooling on the way out. The output knows how
// to make better decisions, this is just the fallback wish.
func (f *Fan) Shutdown() {
	start := f.PwmMax
	f.Device.RequestValue(outputs.Request{
		Requester: f.Name,
		Target:    f.PwmMax,
		Start:     &start,
	})
}

func (f *Fan) calculate() outputs.Request {
	temp := f.Sensor.GetValue()
	target := f.TargetFor(temp)

	// The interpolation should keep the value above the level at which
	// the fan physically seizes. If it did not, kick-start it.
	if target > f.PwmStop && f.Tach.GetValue() == 0 {
		ui.Debug("Fan %s appears to have stopped!", f.Name)
		start := f.PwmStart
		return outputs.Request{Requester: f.Name, Target: target, Start: &start}
	}
	return outputs.Request{Requester: f.Name, Target: target}
}

// TargetFor computes the duty cycle for the given temperature: clamped to
// PwmMin/PwmMax outside the sensor bounds, linearly interpolated between
// them.
func (f *Fan) TargetFor(temp int) int {
	if temp <= f.SensorMin {
		return f.PwmMin
	}
	if temp >= f.SensorMax {
		return f.PwmMax
	}
	value := float64(temp-f.SensorMin) *
		float64(f.PwmMax-f.PwmMin) /
		float64(f.SensorMax-f.SensorMin)
	// rounds, with halves going down so the midpoint of a full range
	// lands on 127 rather than 128
	return int(math.Ceil(value-0.5)) + f.PwmMin
}

func (f *Fan) String() string {
	return fmt.Sprintf("Fan(%s)", f.Name)
}
