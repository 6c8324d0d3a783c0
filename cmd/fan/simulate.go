package fan

import (
	"fmt"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/guptarohit/asciigraph"
	"github.com/qdm12/reprint"
	"github.com/spf13/cobra"
)

var (
	simulateSensorMin int
	simulateSensorMax int
	simulatePwmMin    int
	simulatePwmMax    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Print the response curve of a fan to console",
	Long: `Plots the duty cycle the fan would be driven at for every
temperature between its lower and upper bound. Flags can override
individual values to preview a change without touching the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.DetectConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()
		if err := configuration.Validate(); err != nil {
			ui.FatalWithoutStacktrace("%v", err)
		}

		for _, fanConfig := range configuration.CurrentConfig.Fans {
			if fanConfig.ID != fanId {
				continue
			}

			// work on a deep copy, flag overrides must never leak into
			// the loaded configuration
			var simulated configuration.FanConfig
			if err := reprint.FromTo(&fanConfig, &simulated); err != nil {
				return err
			}
			applyOverrides(cmd, &simulated)

			fan := &fans.Fan{
				Name:      simulated.ID,
				PwmMin:    simulated.PwmMin,
				PwmMax:    simulated.PwmMax,
				PwmStart:  simulated.PwmStart,
				PwmStop:   simulated.PwmStop,
				SensorMin: simulated.SensorMin,
				SensorMax: simulated.SensorMax,
			}

			// pad the plot a little beyond the configured bounds so the
			// clamping plateaus are visible
			lower := simulated.SensorMin - 5
			upper := simulated.SensorMax + 5
			values := make([]float64, 0, upper-lower+1)
			for temp := lower; temp <= upper; temp++ {
				values = append(values, float64(fan.TargetFor(temp)))
			}

			ui.Printfln(fan.GetId())
			caption := fmt.Sprintf("PWM / Temp (%d..%d°C)", lower, upper)
			graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
			ui.Printfln(graph)
			return nil
		}

		return fmt.Errorf("no fan with id found: %s", fanId)
	},
}

func applyOverrides(cmd *cobra.Command, config *configuration.FanConfig) {
	if cmd.Flags().Changed("sensor-min") {
		config.SensorMin = simulateSensorMin
	}
	if cmd.Flags().Changed("sensor-max") {
		config.SensorMax = simulateSensorMax
	}
	if cmd.Flags().Changed("pwm-min") {
		config.PwmMin = simulatePwmMin
	}
	if cmd.Flags().Changed("pwm-max") {
		config.PwmMax = simulatePwmMax
	}
}

func init() {
	simulateCmd.Flags().IntVar(&simulateSensorMin, "sensor-min", 0, "Override the lower temperature bound")
	simulateCmd.Flags().IntVar(&simulateSensorMax, "sensor-max", 0, "Override the upper temperature bound")
	simulateCmd.Flags().IntVar(&simulatePwmMin, "pwm-min", 0, "Override the lowest duty cycle")
	simulateCmd.Flags().IntVar(&simulatePwmMax, "pwm-max", 0, "Override the highest duty cycle")

	Command.AddCommand(simulateCmd)
}
