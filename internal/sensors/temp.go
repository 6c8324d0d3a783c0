package sensors

import (
	"fmt"
	"math"

	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/ui"
)

// TempSensor reads a hwmon temperature channel. Raw values are in
// milli-degrees celsius and converted to whole degrees for consumers.
type TempSensor struct {
	Name   string
	Device hwmon.Device

	value    int
	hasValue bool
}

func NewTempSensor(name string, device hwmon.Device) *TempSensor {
	return &TempSensor{
		Name:   name,
		Device: device,
	}
}

func (s *TempSensor) GetId() string {
	return s.Name
}

func (s *TempSensor) Update() {
	value, err := s.Device.ReadValue()
	if err != nil {
		ui.Error("Sensor %s could not be updated (%v)", s.Name, err)
		return
	}
	s.value = value
	s.hasValue = true
}

func (s *TempSensor) GetValue() int {
	return int(math.Round(float64(s.value) / 1000.0))
}

func (s *TempSensor) HasValue() bool {
	return s.hasValue
}

func (s *TempSensor) FormatValue() string {
	return fmt.Sprintf("%d°C", s.GetValue())
}
