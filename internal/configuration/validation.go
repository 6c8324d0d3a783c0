package configuration

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

// ValidateConfig checks a configuration that was built outside of the
// regular config file loading, e.g. by the legacy import
func ValidateConfig(config *Configuration) error {
	return validateConfig(config)
}

func validateConfig(config *Configuration) error {
	if config.Delay < 1*time.Second {
		return fmt.Errorf("delay (%s) can't be less than 1s", config.Delay)
	}

	if len(config.DevBase) <= 0 {
		return errors.New("devBase has not been set")
	}
	if len(config.DevName) <= 0 {
		return errors.New("devName has not been set")
	}
	if len(config.DevPath) <= 0 {
		return errors.New("devPath has not been set")
	}

	var ids []string
	for _, fanConfig := range config.Fans {
		if !fanConfig.Enabled {
			continue
		}
		if err := validateFan(fanConfig); err != nil {
			return err
		}
		if slices.Contains(ids, fanConfig.ID) {
			return fmt.Errorf("fan %s: duplicate fan id", fanConfig.ID)
		}
		ids = append(ids, fanConfig.ID)
	}

	return nil
}

func validateFan(config FanConfig) error {
	if len(config.ID) <= 0 {
		return errors.New("fan: missing id")
	}
	if len(config.Device) <= 0 {
		return fmt.Errorf("fan %s: missing device", config.ID)
	}
	if len(config.Sensor) <= 0 {
		return fmt.Errorf("fan %s: missing sensor", config.ID)
	}
	if len(config.Tach) <= 0 {
		return fmt.Errorf("fan %s: missing tach", config.ID)
	}

	for name, value := range map[string]int{
		"pwmMin":   config.PwmMin,
		"pwmMax":   config.PwmMax,
		"pwmStart": config.PwmStart,
		"pwmStop":  config.PwmStop,
	} {
		if value < 0 || value > 255 {
			return fmt.Errorf("fan %s: %s (%d) must be within 0..255", config.ID, name, value)
		}
	}

	if config.PwmStop >= config.PwmMax {
		return fmt.Errorf("fan %s: pwmStop (%d) must be lower than pwmMax (%d)", config.ID, config.PwmStop, config.PwmMax)
	}
	if config.PwmStop < config.PwmMin {
		return fmt.Errorf("fan %s: pwmStop (%d) must not be lower than pwmMin (%d)", config.ID, config.PwmStop, config.PwmMin)
	}
	if config.SensorMin >= config.SensorMax {
		return fmt.Errorf("fan %s: sensorMin (%d) must be lower than sensorMax (%d)", config.ID, config.SensorMin, config.SensorMax)
	}

	return nil
}
