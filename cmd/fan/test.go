package fan

import (
	"bytes"
	"strconv"

	"github.com/fanctrl/fanctrl/cmd/global"
	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/persistence"
	"github.com/fanctrl/fanctrl/internal/tuning"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Measure the start/stop behaviour of a fan",
	Long: `Sweeps the fan through its pwm range to find the duty cycles at
which it physically starts and stops. The fan will spin up and down
several times, this takes a few minutes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		if err := pers.Init(); err != nil {
			return err
		}

		tester := tuning.NewTester(fan, pers)
		result, err := tester.Run()
		if err != nil {
			return err
		}

		tab := table.Table{
			Headers: []string{"", ""},
			Rows: [][]string{
				{"Measured start PWM", strconv.Itoa(result.MeasuredStart)},
				{"Measured stop PWM", strconv.Itoa(result.MeasuredStop)},
				{"Max RPM", strconv.Itoa(result.MaxRpm)},
				{"Suggested pwmStart", strconv.Itoa(tuning.RecommendedStart(*result))},
				{"Suggested pwmStop", strconv.Itoa(tuning.RecommendedStop(*result))},
			},
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if tableErr != nil {
			return tableErr
		}
		ui.Printfln(buf.String())
		return nil
	},
}

func init() {
	Command.AddCommand(testCmd)
}
