package hwmon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeChannelFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestChannelReadWrite(t *testing.T) {
	// GIVEN a pwm channel with an enable file next to it
	dir := t.TempDir()
	path := writeChannelFile(t, dir, "pwm1", "128\n")
	writeChannelFile(t, dir, "pwm1_enable", "2\n")

	channel := NewChannel("pwm1", path)

	// WHEN / THEN
	assert.True(t, channel.IsValid())
	assert.True(t, channel.IsWritable())
	assert.True(t, channel.HasEnable())

	value, err := channel.ReadValue()
	assert.NoError(t, err)
	assert.Equal(t, 128, value)

	assert.NoError(t, channel.WriteValue(200))
	value, err = channel.ReadValue()
	assert.NoError(t, err)
	assert.Equal(t, 200, value)

	enable, err := channel.ReadEnable()
	assert.NoError(t, err)
	assert.Equal(t, 2, enable)

	assert.NoError(t, channel.WriteEnable(ControlModeManual))
	enable, err = channel.ReadEnable()
	assert.NoError(t, err)
	assert.Equal(t, ControlModeManual, enable)
}

func TestChannelWithoutEnableFile(t *testing.T) {
	// GIVEN a temperature input, which never has an enable file
	dir := t.TempDir()
	path := writeChannelFile(t, dir, "temp1_input", "42000\n")

	channel := NewChannel("temp1_input", path)

	// WHEN / THEN
	assert.False(t, channel.HasEnable())

	_, err := channel.ReadEnable()
	assert.Error(t, err)

	err = channel.WriteEnable(ControlModeManual)
	assert.Error(t, err)
}

func TestChannelReadFailureIsWrapped(t *testing.T) {
	// GIVEN a channel pointing at a missing file
	channel := NewChannel("pwm7", filepath.Join(t.TempDir(), "pwm7"))

	// WHEN
	_, err := channel.ReadValue()

	// THEN the raw file error is wrapped into a SensorError
	assert.Error(t, err)
	var sensorErr *SensorError
	assert.True(t, errors.As(err, &sensorErr))
	assert.Equal(t, "pwm7", sensorErr.Channel)
	assert.Contains(t, err.Error(), "pwm7")
	assert.False(t, channel.IsValid())
}
