package configuration

import (
	"github.com/fanctrl/fanctrl/internal/util"
	"gopkg.in/yaml.v3"
)

// yaml mirror of the configuration, so durations render as "10s" instead
// of raw nanosecond counts
type configDocument struct {
	Delay string `yaml:"delay"`

	DevBase string `yaml:"devBase"`
	DevName string `yaml:"devName"`
	DevPath string `yaml:"devPath"`

	Fans []fanDocument `yaml:"fans"`
}

type fanDocument struct {
	ID      string `yaml:"id"`
	Enabled bool   `yaml:"enabled"`

	Device string `yaml:"device"`
	Sensor string `yaml:"sensor"`
	Tach   string `yaml:"tach"`

	PwmMin   int `yaml:"pwmMin"`
	PwmMax   int `yaml:"pwmMax"`
	PwmStart int `yaml:"pwmStart"`
	PwmStop  int `yaml:"pwmStop"`

	SensorMin int `yaml:"sensorMin"`
	SensorMax int `yaml:"sensorMax"`
}

// WriteConfig renders the configuration as yaml and writes it atomically,
// a crashed write never leaves a half-written file behind.
func WriteConfig(config *Configuration, path string) error {
	document := configDocument{
		Delay:   config.Delay.String(),
		DevBase: config.DevBase,
		DevName: config.DevName,
		DevPath: config.DevPath,
	}
	for _, fan := range config.Fans {
		document.Fans = append(document.Fans, fanDocument{
			ID:        fan.ID,
			Enabled:   fan.Enabled,
			Device:    fan.Device,
			Sensor:    fan.Sensor,
			Tach:      fan.Tach,
			PwmMin:    fan.PwmMin,
			PwmMax:    fan.PwmMax,
			PwmStart:  fan.PwmStart,
			PwmStop:   fan.PwmStop,
			SensorMin: fan.SensorMin,
			SensorMax: fan.SensorMax,
		})
	}

	data, err := yaml.Marshal(document)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, data)
}
