package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDevice struct {
	name     string
	value    int
	failRead bool
}

func (d *fakeDevice) GetName() string { return d.name }

func (d *fakeDevice) ReadValue() (int, error) {
	if d.failRead {
		return 0, errors.New("read failed")
	}
	return d.value, nil
}

func (d *fakeDevice) WriteValue(value int) error  { d.value = value; return nil }
func (d *fakeDevice) ReadEnable() (int, error)    { return 0, nil }
func (d *fakeDevice) WriteEnable(value int) error { return nil }
func (d *fakeDevice) IsValid() bool               { return true }
func (d *fakeDevice) IsWritable() bool            { return false }
func (d *fakeDevice) HasEnable() bool             { return false }

func TestTempSensorConvertsMilliDegrees(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "temp1_input", value: 42499}
	sensor := NewTempSensor("temp1_input", device)

	// WHEN
	sensor.Update()

	// THEN
	assert.Equal(t, 42, sensor.GetValue())
	assert.Equal(t, "42°C", sensor.FormatValue())
}

func TestTempSensorRoundsHalfUp(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "temp1_input", value: 42500}
	sensor := NewTempSensor("temp1_input", device)

	// WHEN
	sensor.Update()

	// THEN
	assert.Equal(t, 43, sensor.GetValue())
}

func TestTempSensorKeepsStaleValueOnFailure(t *testing.T) {
	// GIVEN a sensor with one good reading
	device := &fakeDevice{name: "temp1_input", value: 40000}
	sensor := NewTempSensor("temp1_input", device)
	sensor.Update()
	assert.Equal(t, 40, sensor.GetValue())

	// WHEN the next read fails
	device.failRead = true
	sensor.Update()

	// THEN the previous value is kept
	assert.Equal(t, 40, sensor.GetValue())
	assert.True(t, sensor.HasValue())
}

func TestTempSensorHasNoValueBeforeUpdate(t *testing.T) {
	// GIVEN
	sensor := NewTempSensor("temp1_input", &fakeDevice{name: "temp1_input"})

	// WHEN / THEN
	assert.False(t, sensor.HasValue())
}

func TestTachSensorReportsRawRpm(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "fan1_input", value: 1350}
	sensor := NewTachSensor("fan1_input", device)

	// WHEN
	sensor.Update()

	// THEN
	assert.Equal(t, 1350, sensor.GetValue())
	assert.Equal(t, "1350 RPM", sensor.FormatValue())
}

func TestTachSensorRollingAverage(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "fan1_input"}
	sensor := NewTachSensor("fan1_input", device)

	// WHEN filling the window with two alternating readings
	for i := 0; i < 5; i++ {
		device.value = 1000
		sensor.Update()
		device.value = 2000
		sensor.Update()
	}

	// THEN
	assert.InDelta(t, 1500.0, sensor.GetRpmAvg(), 0.0001)
}

func TestPeekRunning(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "fan1_input", value: 900}
	sensor := NewTachSensor("fan1_input", device)

	// WHEN / THEN the peek bypasses the cached value
	assert.True(t, sensor.PeekRunning())

	device.value = 0
	assert.False(t, sensor.PeekRunning())
}

func TestPeekRunningReadFailureMeansNotRunning(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "fan1_input", value: 900, failRead: true}
	sensor := NewTachSensor("fan1_input", device)

	// WHEN / THEN
	assert.False(t, sensor.PeekRunning())
}
