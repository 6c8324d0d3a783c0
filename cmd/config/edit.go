package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/fanctrl/fanctrl/internal/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	editOutput  string
	editReplace bool
)

const (
	menuSelectDevice = "Select device"
	menuAddFan       = "Add fan"
	menuEditFan      = "Edit fan"
	menuRemoveFan    = "Remove fan"
	menuSetDelay     = "Set delay"
	menuShow         = "Show configuration"
	menuSaveAndExit  = "Save and exit"
	menuExit         = "Exit without saving"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Interactively build or edit a configuration",
	Long: `Walks through device selection and fan setup using the detected
hwmon devices and writes the result as a configuration file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if util.FileExists(editOutput) && !editReplace {
			return fmt.Errorf("output file %s already exists, use --replace to overwrite it", editOutput)
		}

		chips := hwmon.GetChips()
		if len(chips) == 0 {
			return fmt.Errorf("no hwmon devices detected")
		}

		editor := &editor{
			chips: chips,
			config: &configuration.Configuration{
				Delay: 10 * time.Second,
			},
		}
		return editor.run()
	},
}

func init() {
	editCmd.Flags().StringVarP(&editOutput, "output", "o", "/etc/fanctrl/fanctrl.yaml", "Path of the configuration file to write")
	editCmd.Flags().BoolVarP(&editReplace, "replace", "", false, "Replace the output file if it exists")

	Command.AddCommand(editCmd)
}

type editor struct {
	chips  []*hwmon.Chip
	chip   *hwmon.Chip
	config *configuration.Configuration
}

func (e *editor) run() error {
	for {
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{
				menuSelectDevice,
				menuAddFan,
				menuEditFan,
				menuRemoveFan,
				menuSetDelay,
				menuShow,
				menuSaveAndExit,
				menuExit,
			}).
			Show("What would you like to do?")
		if err != nil {
			return err
		}

		switch choice {
		case menuSelectDevice:
			err = e.selectDevice()
		case menuAddFan:
			err = e.addFan()
		case menuEditFan:
			err = e.editFan()
		case menuRemoveFan:
			err = e.removeFan()
		case menuSetDelay:
			err = e.setDelay()
		case menuShow:
			e.show()
		case menuSaveAndExit:
			return e.save()
		case menuExit:
			return nil
		}
		if err != nil {
			ui.Error("%v", err)
		}
	}
}

func (e *editor) selectDevice() error {
	options := make([]string, 0, len(e.chips))
	for _, chip := range e.chips {
		options = append(options, fmt.Sprintf("%s (%s, %d outputs)", chip.Identifier, chip.Base, len(chip.Pwms)))
	}

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		Show("Which device should be controlled?")
	if err != nil {
		return err
	}

	for i, option := range options {
		if option == choice {
			e.chip = e.chips[i]
			break
		}
	}

	e.config.DevBase = e.chip.Base
	e.config.DevName = e.chip.Name
	e.config.DevPath = e.chip.DevicePath
	ui.Success("Selected %s", e.chip.Identifier)
	return nil
}

func (e *editor) addFan() error {
	if e.chip == nil {
		return fmt.Errorf("select a device first")
	}
	if len(e.chip.Pwms) == 0 {
		return fmt.Errorf("%s has no pwm outputs", e.chip.Identifier)
	}

	device, err := pterm.DefaultInteractiveSelect.
		WithOptions(e.chip.Pwms).
		Show("Which pwm output drives the fan?")
	if err != nil {
		return err
	}

	tach, err := pterm.DefaultInteractiveSelect.
		WithOptions(e.chip.Tachs).
		Show("Which tachometer belongs to it?")
	if err != nil {
		return err
	}

	sensor, err := pterm.DefaultInteractiveSelect.
		WithOptions(e.chip.Temps).
		Show("Which temperature should it follow?")
	if err != nil {
		return err
	}

	id, err := pterm.DefaultInteractiveTextInput.
		WithDefaultValue(device).
		Show("Fan id")
	if err != nil {
		return err
	}

	fan := configuration.NewDefaultFanConfig(id)
	fan.Device = device
	fan.Tach = tach
	fan.Sensor = sensor

	if err := e.editFanValues(&fan); err != nil {
		return err
	}

	e.config.Fans = append(e.config.Fans, fan)
	ui.Success("Added fan %s", fan.ID)
	return nil
}

func (e *editor) editFan() error {
	fan, err := e.pickFan()
	if err != nil {
		return err
	}
	if err := e.editFanValues(fan); err != nil {
		return err
	}
	ui.Success("Updated fan %s", fan.ID)
	return nil
}

func (e *editor) removeFan() error {
	fan, err := e.pickFan()
	if err != nil {
		return err
	}
	for i := range e.config.Fans {
		if &e.config.Fans[i] == fan {
			e.config.Fans = append(e.config.Fans[:i], e.config.Fans[i+1:]...)
			ui.Success("Removed fan %s", fan.ID)
			return nil
		}
	}
	return nil
}

func (e *editor) pickFan() (*configuration.FanConfig, error) {
	if len(e.config.Fans) == 0 {
		return nil, fmt.Errorf("no fans configured yet")
	}

	options := make([]string, 0, len(e.config.Fans))
	for _, fan := range e.config.Fans {
		options = append(options, fan.ID)
	}

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		Show("Which fan?")
	if err != nil {
		return nil, err
	}

	for i := range e.config.Fans {
		if e.config.Fans[i].ID == choice {
			return &e.config.Fans[i], nil
		}
	}
	return nil, fmt.Errorf("no fan with id found: %s", choice)
}

func (e *editor) editFanValues(fan *configuration.FanConfig) error {
	for _, field := range []struct {
		prompt string
		value  *int
		min    int
		max    int
	}{
		{"Temperature at which the fan starts ramping up (°C)", &fan.SensorMin, -273, 1000},
		{"Temperature at which the fan runs at full speed (°C)", &fan.SensorMax, -273, 1000},
		{"Lowest duty cycle (pwm)", &fan.PwmMin, 0, 255},
		{"Highest duty cycle (pwm)", &fan.PwmMax, 0, 255},
		{"Duty cycle needed to start a stopped fan (pwm)", &fan.PwmStart, 0, 255},
		{"Duty cycle below which the fan may stall (pwm)", &fan.PwmStop, 0, 255},
	} {
		value, err := e.askInt(field.prompt, *field.value, field.min, field.max)
		if err != nil {
			return err
		}
		*field.value = value
	}
	return nil
}

func (e *editor) askInt(prompt string, current int, min int, max int) (int, error) {
	for {
		text, err := pterm.DefaultInteractiveTextInput.
			WithDefaultValue(strconv.Itoa(current)).
			Show(prompt)
		if err != nil {
			return 0, err
		}
		value, err := strconv.Atoi(text)
		if err != nil || value < min || value > max {
			ui.Warning("Please enter a number within %d..%d", min, max)
			continue
		}
		return value, nil
	}
}

func (e *editor) setDelay() error {
	text, err := pterm.DefaultInteractiveTextInput.
		WithDefaultValue(e.config.Delay.String()).
		Show("Length of one control cycle (e.g. 10s)")
	if err != nil {
		return err
	}
	delay, err := time.ParseDuration(text)
	if err != nil {
		return err
	}
	if delay < 1*time.Second {
		return fmt.Errorf("delay (%s) can't be less than 1s", delay)
	}
	e.config.Delay = delay
	return nil
}

func (e *editor) show() {
	ui.Printfln("Device: %s (%s)", e.config.DevName, e.config.DevBase)
	ui.Printfln("Delay:  %s", e.config.Delay)
	for _, fan := range e.config.Fans {
		ui.Printfln("Fan %s: %s <- %s (tach %s), %d..%d°C -> %d..%d pwm",
			fan.ID, fan.Device, fan.Sensor, fan.Tach,
			fan.SensorMin, fan.SensorMax, fan.PwmMin, fan.PwmMax)
	}
}

func (e *editor) save() error {
	if err := configuration.ValidateConfig(e.config); err != nil {
		return err
	}
	if err := configuration.WriteConfig(e.config, editOutput); err != nil {
		return err
	}
	ui.Success("Wrote configuration to %s", editOutput)
	return nil
}
