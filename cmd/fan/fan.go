package fan

import (
	"fmt"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/registry"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/spf13/cobra"
)

var fanId string

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&fanId,
		"id", "i",
		"",
		"Fan ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getFan(id string) (*fans.Fan, error) {
	configPath := configuration.DetectConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	if err := configuration.Validate(); err != nil {
		ui.FatalWithoutStacktrace("%v", err)
	}

	config := configuration.CurrentConfig
	if err := hwmon.VerifyIdentity(config.BasePath(), config.DevName, config.DevPath); err != nil {
		return nil, err
	}

	factory := func(name string) hwmon.Device {
		return hwmon.NewChannel(name, config.ChannelPath(name))
	}
	reg := registry.NewRegistry(factory, config.Delay)

	for _, fanConfig := range config.Fans {
		if fanConfig.ID == id {
			return reg.CreateFan(fanConfig)
		}
	}

	return nil, fmt.Errorf("no fan with id found: %s", id)
}
