package importer

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/ui"
)

// Legacy fancontrol configuration keys. Scalar keys hold a single value,
// the others hold space-separated channel=value pairs.
const (
	keyInterval = "INTERVAL"
	keyDevPath  = "DEVPATH"
	keyDevName  = "DEVNAME"

	keyTemps    = "FCTEMPS"
	keyFans     = "FCFANS"
	keyMinTemp  = "MINTEMP"
	keyMaxTemp  = "MAXTEMP"
	keyMinStart = "MINSTART"
	keyMinStop  = "MINSTOP"
	keyMinPwm   = "MINPWM"
	keyMaxPwm   = "MAXPWM"
)

type entry struct {
	key   string
	value string
}

// legacyConfig is the parsed form of a fancontrol file: scalar keys plus
// per-channel entry lists that keep the order of the source file.
type legacyConfig struct {
	scalars map[string]string
	entries map[string][]entry
}

// Import parses a legacy fancontrol configuration file and translates it
// into a native configuration. The fan sections keep the order in which
// their pwm channels first appear in the legacy file.
func Import(path string) (*configuration.Configuration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	legacy := parse(string(content))
	return translate(legacy)
}

func parse(content string) *legacyConfig {
	legacy := &legacyConfig{
		scalars: map[string]string{},
		entries: map[string][]entry{},
	}

	for _, line := range strings.Split(content, "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}

		key, value, err := splitKeypair(line)
		if err != nil {
			ui.Warning("Could not parse line: %s", line)
			continue
		}

		switch key {
		case keyInterval, keyDevPath, keyDevName:
			legacy.scalars[key] = value
		case keyTemps, keyFans, keyMinTemp, keyMaxTemp, keyMinStart, keyMinStop, keyMinPwm, keyMaxPwm:
			for _, field := range strings.Fields(value) {
				subKey, subValue, err := splitKeypair(field)
				if err != nil {
					ui.Warning("Could not parse entry: %s", field)
					continue
				}
				legacy.entries[key] = append(legacy.entries[key], entry{subKey, subValue})
			}
		default:
			ui.Warning("Unknown key (%s)", key)
		}
	}
	return legacy
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if index := strings.Index(line, "#"); index >= 0 {
		line = strings.TrimSpace(line[:index])
	}
	return line
}

func splitKeypair(field string) (string, string, error) {
	index := strings.Index(field, "=")
	if index < 0 {
		return "", "", fmt.Errorf("missing '=' in %q", field)
	}
	return strings.TrimSpace(field[:index]), strings.TrimSpace(field[index+1:]), nil
}

func translate(legacy *legacyConfig) (*configuration.Configuration, error) {
	config := &configuration.Configuration{}

	interval, ok := legacy.scalars[keyInterval]
	if !ok {
		return nil, fmt.Errorf("legacy configuration has no %s", keyInterval)
	}
	seconds, err := strconv.Atoi(interval)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", keyInterval, interval, err)
	}
	config.Delay = time.Duration(seconds) * time.Second

	// DEVNAME and DEVPATH both carry the hwmon base on their left side,
	// e.g. "hwmon2=nct6775". The bases must agree, a file mixing devices
	// cannot be mapped onto a single-device configuration.
	if err := importDevice(legacy, keyDevName, config, &config.DevName); err != nil {
		return nil, err
	}
	if err := importDevice(legacy, keyDevPath, config, &config.DevPath); err != nil {
		return nil, err
	}

	fanFor := func(channel string) *configuration.FanConfig {
		for i := range config.Fans {
			if config.Fans[i].ID == channel {
				return &config.Fans[i]
			}
		}
		fan := configuration.NewDefaultFanConfig(channel)
		fan.Device = channel
		config.Fans = append(config.Fans, fan)
		return &config.Fans[len(config.Fans)-1]
	}

	stripBase := func(value string) string {
		return strings.TrimPrefix(value, config.DevBase+"/")
	}

	// channel bindings first so the fan sections exist in file order
	for _, e := range legacy.entries[keyTemps] {
		fanFor(stripBase(e.key)).Sensor = stripBase(e.value)
	}
	for _, e := range legacy.entries[keyFans] {
		fanFor(stripBase(e.key)).Tach = stripBase(e.value)
	}

	for _, mapping := range []struct {
		key    string
		assign func(fan *configuration.FanConfig, value int)
	}{
		{keyMinTemp, func(fan *configuration.FanConfig, value int) { fan.SensorMin = value }},
		{keyMaxTemp, func(fan *configuration.FanConfig, value int) { fan.SensorMax = value }},
		{keyMinPwm, func(fan *configuration.FanConfig, value int) { fan.PwmMin = value }},
		{keyMaxPwm, func(fan *configuration.FanConfig, value int) { fan.PwmMax = value }},
		{keyMinStart, func(fan *configuration.FanConfig, value int) { fan.PwmStart = value }},
		{keyMinStop, func(fan *configuration.FanConfig, value int) { fan.PwmStop = value }},
	} {
		for _, e := range legacy.entries[mapping.key] {
			value, err := strconv.Atoi(e.value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q for %s: %w", mapping.key, e.value, e.key, err)
			}
			mapping.assign(fanFor(stripBase(e.key)), value)
		}
	}

	return config, nil
}

func importDevice(legacy *legacyConfig, key string, config *configuration.Configuration, target *string) error {
	value, ok := legacy.scalars[key]
	if !ok {
		return fmt.Errorf("legacy configuration has no %s", key)
	}
	base, right, err := splitKeypair(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if config.DevBase == "" {
		config.DevBase = base
	} else if config.DevBase != base {
		return fmt.Errorf("multiple hwmon bases encountered (%s and %s)", config.DevBase, base)
	}
	*target = right
	ui.Info("Imported %s=%s", strings.ToLower(key), right)
	return nil
}
