package cmd

import (
	"fmt"

	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/importer"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/fanctrl/fanctrl/internal/util"
	"github.com/spf13/cobra"
)

var (
	importInput   string
	importOutput  string
	importReplace bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a legacy fancontrol configuration",
	Long:  `Translates a configuration file generated by pwmconfig into a native configuration file`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()

		if util.FileExists(importOutput) && !importReplace {
			return fmt.Errorf("output file %s already exists, use --replace to overwrite it", importOutput)
		}

		ui.Info("Importing from %s", importInput)
		config, err := importer.Import(importInput)
		if err != nil {
			return err
		}

		if err := configuration.ValidateConfig(config); err != nil {
			ui.Warning("Imported configuration has issues: %v", err)
		}

		if err := configuration.WriteConfig(config, importOutput); err != nil {
			return err
		}
		ui.Success("Wrote configuration to %s", importOutput)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "/etc/fancontrol", "Legacy configuration to import")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "/etc/fanctrl/fanctrl.yaml", "Path of the configuration file to write")
	importCmd.Flags().BoolVarP(&importReplace, "replace", "", false, "Replace the output file if it exists")

	rootCmd.AddCommand(importCmd)
}
