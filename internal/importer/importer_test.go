package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const legacyFixture = `# Configuration file generated by pwmconfig
INTERVAL=10
DEVPATH=hwmon2=devices/platform/nct6775.656
DEVNAME=hwmon2=nct6798
FCTEMPS=hwmon2/pwm2=hwmon2/temp1_input hwmon2/pwm3=hwmon2/temp2_input
FCFANS=hwmon2/pwm2=hwmon2/fan2_input hwmon2/pwm3=hwmon2/fan3_input
MINTEMP=hwmon2/pwm2=20 hwmon2/pwm3=30
MAXTEMP=hwmon2/pwm2=60 hwmon2/pwm3=70
MINSTART=hwmon2/pwm2=35 hwmon2/pwm3=64
MINSTOP=hwmon2/pwm2=25 hwmon2/pwm3=48
MINPWM=hwmon2/pwm2=0
MAXPWM=hwmon2/pwm3=200
`

func TestTranslateFullLegacyFile(t *testing.T) {
	// GIVEN
	legacy := parse(legacyFixture)

	// WHEN
	config, err := translate(legacy)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 10*time.Second, config.Delay)
	assert.Equal(t, "hwmon2", config.DevBase)
	assert.Equal(t, "nct6798", config.DevName)
	assert.Equal(t, "devices/platform/nct6775.656", config.DevPath)

	assert.Len(t, config.Fans, 2)

	first := config.Fans[0]
	assert.Equal(t, "pwm2", first.ID)
	assert.Equal(t, "pwm2", first.Device)
	assert.Equal(t, "temp1_input", first.Sensor)
	assert.Equal(t, "fan2_input", first.Tach)
	assert.Equal(t, 20, first.SensorMin)
	assert.Equal(t, 60, first.SensorMax)
	assert.Equal(t, 35, first.PwmStart)
	assert.Equal(t, 25, first.PwmStop)
	assert.Equal(t, 0, first.PwmMin)
	// MAXPWM was not given for pwm2, the default applies
	assert.Equal(t, 255, first.PwmMax)

	second := config.Fans[1]
	assert.Equal(t, "pwm3", second.ID)
	assert.Equal(t, "temp2_input", second.Sensor)
	assert.Equal(t, "fan3_input", second.Tach)
	assert.Equal(t, 200, second.PwmMax)
	assert.True(t, second.Enabled)
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	// GIVEN
	content := "# leading comment\n\nINTERVAL=10 # trailing comment\n\n# DEVNAME=hwmon9=bogus\n"

	// WHEN
	legacy := parse(content)

	// THEN
	assert.Equal(t, "10", legacy.scalars["INTERVAL"])
	_, exists := legacy.scalars["DEVNAME"]
	assert.False(t, exists)
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	// GIVEN
	content := "INTERVAL=10\nBOGUSKEY=whatever\n"

	// WHEN
	legacy := parse(content)

	// THEN the unknown key is dropped, the rest survives
	assert.Equal(t, "10", legacy.scalars["INTERVAL"])
	assert.Len(t, legacy.scalars, 1)
}

func TestTranslateRejectsMissingInterval(t *testing.T) {
	// GIVEN
	legacy := parse("DEVPATH=hwmon2=devices/platform/x\nDEVNAME=hwmon2=chip\n")

	// WHEN
	_, err := translate(legacy)

	// THEN
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "INTERVAL")
}

func TestTranslateRejectsMixedDevices(t *testing.T) {
	// GIVEN DEVPATH and DEVNAME pointing at different hwmon bases
	legacy := parse("INTERVAL=10\nDEVPATH=hwmon2=devices/platform/x\nDEVNAME=hwmon3=chip\n")

	// WHEN
	_, err := translate(legacy)

	// THEN
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hwmon")
}

func TestTranslateRejectsNonNumericValue(t *testing.T) {
	// GIVEN
	legacy := parse("INTERVAL=10\nDEVPATH=hwmon2=devices/platform/x\nDEVNAME=hwmon2=chip\nMINTEMP=hwmon2/pwm2=warm\n")

	// WHEN
	_, err := translate(legacy)

	// THEN
	assert.Error(t, err)
}
