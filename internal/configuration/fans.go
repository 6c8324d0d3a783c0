package configuration

const (
	DefaultSensorMin = 20
	DefaultSensorMax = 60
	DefaultPwmMin    = 0
	DefaultPwmMax    = 255
	DefaultPwmStart  = 32
	DefaultPwmStop   = 40
)

type FanConfig struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`

	// Device is the writable pwm channel, e.g. "pwm2"
	Device string `json:"device"`
	// Sensor is the temperature input the duty cycle follows, e.g. "temp1_input"
	Sensor string `json:"sensor"`
	// Tach is the tachometer input used for stall detection, e.g. "fan2_input"
	Tach string `json:"tach"`

	PwmMin   int `json:"pwmMin"`
	PwmMax   int `json:"pwmMax"`
	PwmStart int `json:"pwmStart"`
	PwmStop  int `json:"pwmStop"`

	SensorMin int `json:"sensorMin"`
	SensorMax int `json:"sensorMax"`
}

// NewDefaultFanConfig returns a fan section filled with the conservative
// defaults used by the import and interactive configuration flows.
func NewDefaultFanConfig(id string) FanConfig {
	return FanConfig{
		ID:        id,
		Enabled:   true,
		PwmMin:    DefaultPwmMin,
		PwmMax:    DefaultPwmMax,
		PwmStart:  DefaultPwmStart,
		PwmStop:   DefaultPwmStop,
		SensorMin: DefaultSensorMin,
		SensorMax: DefaultSensorMax,
	}
}
