package cmd

import (
	"bytes"
	"path/filepath"
	"strconv"

	"github.com/fanctrl/fanctrl/cmd/global"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all pwm outputs, tachometers and temperature sensors and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		chips := hwmon.GetChips()

		// === Print detected devices ===
		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		for _, chip := range chips {
			if len(chip.Name) <= 0 {
				continue
			}

			ui.Printfln("> %s (%s, %s)", chip.Identifier, chip.Base, chip.DevicePath)

			var pwmRows [][]string
			for _, name := range chip.Pwms {
				channel := hwmon.NewChannel(name, filepath.Join(chip.Path, name))

				valueText := "N/A"
				if value, err := channel.ReadValue(); err == nil {
					valueText = strconv.Itoa(value)
				}

				modeText := "N/A"
				if channel.HasEnable() {
					if mode, err := channel.ReadEnable(); err == nil {
						modeText = strconv.Itoa(mode)
					}
				}

				pwmRows = append(pwmRows, []string{"", name, valueText, modeText})
			}
			pwmTable := table.Table{
				Headers: []string{"Outputs", "Channel", "PWM", "Mode"},
				Rows:    pwmRows,
			}

			var tachRows [][]string
			for _, name := range chip.Tachs {
				channel := hwmon.NewChannel(name, filepath.Join(chip.Path, name))

				rpmText := "N/A"
				if value, err := channel.ReadValue(); err == nil {
					rpmText = strconv.Itoa(value)
				}

				tachRows = append(tachRows, []string{"", name, rpmText})
			}
			tachTable := table.Table{
				Headers: []string{"Tachs  ", "Channel", "RPM"},
				Rows:    tachRows,
			}

			var sensorRows [][]string
			for _, name := range chip.Temps {
				channel := hwmon.NewChannel(name, filepath.Join(chip.Path, name))

				valueText := "N/A"
				if value, err := channel.ReadValue(); err == nil {
					valueText = strconv.Itoa(value / 1000)
				}

				sensorRows = append(sensorRows, []string{"", name, valueText})
			}
			sensorTable := table.Table{
				Headers: []string{"Sensors", "Channel", "Temp"},
				Rows:    sensorRows,
			}

			tables := []table.Table{pwmTable, tachTable, sensorTable}
			for idx, tab := range tables {
				if tab.Rows == nil {
					continue
				}
				var buf bytes.Buffer
				tableErr := tab.WriteTable(&buf, tableConfig)
				if tableErr != nil {
					ui.Fatal("Error printing table: %v", tableErr)
				}
				tableString := buf.String()
				if idx < (len(tables) - 1) {
					ui.Printf(tableString)
				} else {
					ui.Printfln(tableString)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
