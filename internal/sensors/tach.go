package sensors

import (
	"fmt"

	"github.com/asecurityteam/rolling"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/fanctrl/fanctrl/internal/util"
)

const rpmRollingWindowSize = 10

// TachSensor reads a hwmon fan tachometer channel. Values are raw RPM.
type TachSensor struct {
	Name   string
	Device hwmon.Device

	value     int
	hasValue  bool
	rpmWindow *rolling.PointPolicy
}

func NewTachSensor(name string, device hwmon.Device) *TachSensor {
	return &TachSensor{
		Name:      name,
		Device:    device,
		rpmWindow: util.CreateRollingWindow(rpmRollingWindowSize),
	}
}

func (s *TachSensor) GetId() string {
	return s.Name
}

func (s *TachSensor) Update() {
	value, err := s.Device.ReadValue()
	if err != nil {
		ui.Error("Sensor %s could not be updated (%v)", s.Name, err)
		return
	}
	s.value = value
	s.hasValue = true
	s.rpmWindow.Append(float64(value))
}

func (s *TachSensor) GetValue() int {
	return s.value
}

func (s *TachSensor) HasValue() bool {
	return s.hasValue
}

func (s *TachSensor) FormatValue() string {
	return fmt.Sprintf("%d RPM", s.value)
}

// GetRpmAvg returns the rolling average over the last few readings
func (s *TachSensor) GetRpmAvg() float64 {
	return util.GetWindowAvg(s.rpmWindow)
}

// PeekRunning reads the tachometer directly, bypassing the per-cycle
// cache, so spin-up progress can be polled between cycles without
// disturbing planning values. Read failures are reported as "not
// running" and logged, the caller deals with persistent failures.
func (s *TachSensor) PeekRunning() bool {
	value, err := s.Device.ReadValue()
	if err != nil {
		ui.Warning("Sensor %s peek encountered a read failure (%v)", s.Name, err)
		return false
	}
	return value > 0
}
