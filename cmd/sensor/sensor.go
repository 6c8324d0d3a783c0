package sensor

import (
	"fmt"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/fanctrl/fanctrl/internal/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sensorName string

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Print the current value of a temperature sensor",
	Long:             ``,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		configPath := configuration.DetectConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()
		if err := configuration.Validate(); err != nil {
			ui.FatalWithoutStacktrace("%v", err)
		}

		config := configuration.CurrentConfig
		if err := hwmon.VerifyIdentity(config.BasePath(), config.DevName, config.DevPath); err != nil {
			return err
		}

		path := config.ChannelPath(sensorName)
		if !util.FileExists(path) {
			return fmt.Errorf("no sensor channel found: %s", sensorName)
		}

		channel := hwmon.NewChannel(sensorName, path)
		value, err := channel.ReadValue()
		if err != nil {
			return err
		}
		fmt.Printf("%d", value/1000)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorName,
		"name", "n",
		"",
		"Sensor channel name, e.g. temp1_input",
	)
	_ = Command.MarkPersistentFlagRequired("name")
}
