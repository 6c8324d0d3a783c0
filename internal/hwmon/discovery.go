package hwmon

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fanctrl/fanctrl/internal/util"
	"github.com/md14454/gosensors"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

// Chip is one detected hwmon device with the channels relevant for fan
// control: temperature inputs, tachometer inputs and writable pwm outputs.
type Chip struct {
	// Base is the hwmon directory name, e.g. "hwmon4"
	Base       string
	Name       string
	Identifier string
	Path       string
	// DevicePath is the stable sysfs device path behind the hwmon symlink
	DevicePath string

	Temps []string
	Tachs []string
	Pwms  []string
}

// GetChips enumerates all hwmon devices via libsensors and inspects
// their sysfs directories for controllable channels
func GetChips() []*Chip {
	gosensors.Init()
	defer gosensors.Cleanup()
	detected := gosensors.GetDetectedChips()

	var list []*Chip

	for i := 0; i < len(detected); i++ {
		chip := detected[i]

		temps := findTempInputs(chip)
		tachs := findTachInputs(chip)
		pwms := findPwmChannels(chip.Path)

		if len(temps) <= 0 && len(tachs) <= 0 && len(pwms) <= 0 {
			continue
		}

		name, _ := util.ReadTrimmedString(filepath.Join(chip.Path, "name"))
		c := &Chip{
			Base:       filepath.Base(chip.Path),
			Name:       name,
			Identifier: computeIdentifier(chip),
			Path:       chip.Path,
			DevicePath: DevicePath(chip.Path),
			Temps:      temps,
			Tachs:      tachs,
			Pwms:       pwms,
		}
		list = append(list, c)
	}

	return list
}

func findTempInputs(chip gosensors.Chip) []string {
	var result []string
	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]
		if feature.Type != gosensors.FeatureTypeTemp {
			continue
		}
		for _, subfeature := range feature.GetSubFeatures() {
			if subfeature.Type == gosensors.SubFeatureTypeTempInput {
				result = append(result, subfeature.Name)
			}
		}
	}
	return result
}

func findTachInputs(chip gosensors.Chip) []string {
	var result []string
	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]
		if feature.Type != gosensors.FeatureTypeFan {
			continue
		}
		for _, subfeature := range feature.GetSubFeatures() {
			if subfeature.Type == gosensors.SubFeatureTypeFanInput {
				result = append(result, subfeature.Name)
			}
		}
	}
	return result
}

var pwmChannelRegex = regexp.MustCompile(`^pwm[0-9]+$`)

// findPwmChannels scans the chip directory directly, libsensors has no
// feature type for raw pwm files
func findPwmChannels(chipPath string) []string {
	entries, err := os.ReadDir(chipPath)
	if err != nil {
		return nil
	}
	var result []string
	for _, entry := range entries {
		if pwmChannelRegex.MatchString(entry.Name()) {
			result = append(result, entry.Name())
		}
	}
	sort.Strings(result)
	return result
}

func computeIdentifier(chip gosensors.Chip) string {
	name := chip.Prefix
	if len(name) <= 0 {
		_, name = filepath.Split(chip.Path)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d", identifier, chip.Bus.Nr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d", identifier, chip.Bus.Nr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}
	return identifier
}

// DevicePath resolves the hwmon directory to the stable device path it
// points at, stripped of the /sys/ prefix and the hwmon suffix. hwmon
// numbering changes between boots, this path does not.
func DevicePath(basePath string) string {
	resolved, err := filepath.EvalSymlinks(basePath)
	if err != nil {
		return ""
	}
	path := strings.TrimPrefix(resolved, "/sys/")
	if index := strings.Index(path, "/hwmon/hwmon"); index >= 0 {
		path = path[:index]
	}
	return path
}

// VerifyIdentity checks that the hwmon directory still belongs to the
// device it was configured for. hwmon directories are renumbered between
// boots, blindly trusting the base name could drive the wrong hardware.
func VerifyIdentity(basePath string, wantName string, wantPath string) error {
	name, err := util.ReadTrimmedString(filepath.Join(basePath, "name"))
	if err != nil {
		return fmt.Errorf("could not read device name of %s: %w", basePath, err)
	}
	if name != wantName {
		return fmt.Errorf("%s is %q, expected %q", basePath, name, wantName)
	}

	path := DevicePath(basePath)
	if path != wantPath {
		return fmt.Errorf("%s points at %q, expected %q", basePath, path, wantPath)
	}
	return nil
}
