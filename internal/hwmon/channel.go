package hwmon

import (
	"fmt"

	"github.com/fanctrl/fanctrl/internal/util"
)

const (
	// EnableSuffix is appended to a pwm channel path to get its control mode file
	EnableSuffix = "_enable"

	// ControlModeManual hands control of the pwm value to userspace
	ControlModeManual = 1
)

// SensorError wraps any I/O failure on a hwmon channel. Raw file errors
// never cross this boundary.
type SensorError struct {
	Channel string
	Op      string
	Err     error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Channel, e.Op, e.Err)
}

func (e *SensorError) Unwrap() error {
	return e.Err
}

// Device is the contract the control engine requires from a hardware
// channel. The sysfs-backed Channel implements it, tests substitute fakes.
type Device interface {
	GetName() string

	ReadValue() (int, error)
	WriteValue(value int) error

	ReadEnable() (int, error)
	WriteEnable(value int) error

	IsValid() bool
	IsWritable() bool
	HasEnable() bool
}

// Channel is a single hwmon sysfs entry, e.g. "pwm2" or "temp1_input".
type Channel struct {
	Name string
	Path string

	enablePath string
}

func NewChannel(name string, path string) *Channel {
	c := &Channel{
		Name: name,
		Path: path,
	}
	enablePath := path + EnableSuffix
	if util.FileExists(enablePath) {
		c.enablePath = enablePath
	}
	return c
}

func (c *Channel) GetName() string {
	return c.Name
}

func (c *Channel) ReadValue() (int, error) {
	value, err := util.ReadIntFromFile(c.Path)
	if err != nil {
		return 0, &SensorError{Channel: c.Name, Op: "read", Err: err}
	}
	return value, nil
}

func (c *Channel) WriteValue(value int) error {
	err := util.WriteIntToFile(value, c.Path)
	if err != nil {
		return &SensorError{Channel: c.Name, Op: "write", Err: err}
	}
	return nil
}

func (c *Channel) ReadEnable() (int, error) {
	if !c.HasEnable() {
		return 0, &SensorError{Channel: c.Name, Op: "read enable", Err: fmt.Errorf("no enable file")}
	}
	value, err := util.ReadIntFromFile(c.enablePath)
	if err != nil {
		return 0, &SensorError{Channel: c.Name, Op: "read enable", Err: err}
	}
	return value, nil
}

func (c *Channel) WriteEnable(value int) error {
	if !c.HasEnable() {
		return &SensorError{Channel: c.Name, Op: "write enable", Err: fmt.Errorf("no enable file")}
	}
	err := util.WriteIntToFile(value, c.enablePath)
	if err != nil {
		return &SensorError{Channel: c.Name, Op: "write enable", Err: err}
	}
	return nil
}

func (c *Channel) IsValid() bool {
	return util.FileExists(c.Path)
}

func (c *Channel) IsWritable() bool {
	return util.IsWritable(c.Path)
}

func (c *Channel) HasEnable() bool {
	return len(c.enablePath) > 0
}
