package configuration

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	// Delay is the length of one full control cycle
	Delay time.Duration `json:"delay"`

	DbPath string `json:"dbPath"`

	// DevBase is the hwmon directory the configured channels live in,
	// e.g. "hwmon4". DevName and DevPath pin the device identity so the
	// daemon refuses to run against renumbered devices.
	DevBase string `json:"devBase"`
	DevName string `json:"devName"`
	DevPath string `json:"devPath"`

	Statistics StatisticsConfig `json:"statistics"`
	Api        ApiConfig        `json:"api"`

	Fans []FanConfig `json:"fans"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("fanctrl")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/fanctrl/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("delay", 10*time.Second)
	viper.SetDefault("dbpath", "/etc/fanctrl/fanctrl.db")
	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)
	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)
	viper.SetDefault("fans", []FanConfig{})
}

// DetectConfigFile returns the path of the config file viper settled on
func DetectConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.FatalWithoutStacktrace("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}

// BasePath returns the sysfs directory of the configured hwmon device
func (c Configuration) BasePath() string {
	return filepath.Join("/sys/class/hwmon", c.DevBase)
}

// ChannelPath resolves a channel name (e.g. "pwm2") against the device base
func (c Configuration) ChannelPath(name string) string {
	return filepath.Join(c.BasePath(), name)
}
