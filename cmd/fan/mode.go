package fan

import (
	"fmt"
	"strconv"

	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Get/Set the current pwm mode setting of a fan",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		device := fan.Device.Device
		if len(args) > 0 {
			mode, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("unknown mode: %s, must be an integer", args[0])
			}
			if err := device.WriteEnable(mode); err != nil {
				return err
			}
		}

		mode, err := device.ReadEnable()
		if err != nil {
			return err
		}

		switch mode {
		case 0:
			fmt.Printf("No control, 100%% all the time (%d)", mode)
		case hwmon.ControlModeManual:
			fmt.Printf("Manual PWM control, gives fanctrl control (%d)", mode)
		default:
			fmt.Printf("Automatic control by integrated hardware (%d)", mode)
		}

		return nil
	},
}

func init() {
	Command.AddCommand(modeCmd)
}
