package tuning

import (
	"fmt"
	"math"
	"time"

	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/outputs"
	"github.com/fanctrl/fanctrl/internal/persistence"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/fanctrl/fanctrl/internal/util"
)

const (
	// sweepStepSize is the pwm increment between measurements. Finer steps
	// take proportionally longer without improving the start/stop estimate
	// much, tachometers usually only update about once a second anyway.
	sweepStepSize = 5

	settleInterval   = 1 * time.Second
	settleWindowSize = 10

	// maxRpmDiffForSettled is the rpm jitter below which a fan is
	// considered to have reached a steady speed
	maxRpmDiffForSettled = 20.0

	// SafetyOffset is added to measured start/stop points when deriving
	// configuration values, so runtime behaviour has margin over the exact
	// physical thresholds.
	SafetyOffset = 20
)

// Tester measures the physical start and stop behaviour of a single fan
// by sweeping its pwm channel while watching the tachometer. It takes
// exclusive manual control of the channel for the duration of the run
// and restores the original control mode afterwards.
type Tester struct {
	fan         *fans.Fan
	persistence persistence.Persistence
}

func NewTester(fan *fans.Fan, persistence persistence.Persistence) *Tester {
	return &Tester{
		fan:         fan,
		persistence: persistence,
	}
}

// Run executes the full sweep and stores the result. The fan is left at
// its maximum duty cycle under the original control mode when done.
func (t *Tester) Run() (*persistence.FanTuning, error) {
	device := t.fan.Device.Device

	originalEnable, err := device.ReadEnable()
	if err != nil {
		return nil, fmt.Errorf("fan %s: could not read control mode: %w", t.fan.GetId(), err)
	}
	defer func() {
		if err := device.WriteEnable(originalEnable); err != nil {
			ui.Warning("Fan %s: could not restore control mode %d: %v", t.fan.GetId(), originalEnable, err)
		}
	}()

	if err := device.WriteEnable(hwmon.ControlModeManual); err != nil {
		return nil, fmt.Errorf("fan %s: could not take manual control: %w", t.fan.GetId(), err)
	}

	ui.Info("Fan %s: stopping to find the lowest duty cycle it starts at...", t.fan.GetId())
	if err := t.setAndSettle(outputs.MinPwmValue); err != nil {
		return nil, err
	}

	measuredStart, err := t.sweepUp()
	if err != nil {
		return nil, err
	}
	ui.Info("Fan %s: starts spinning at pwm %d", t.fan.GetId(), measuredStart)

	ui.Info("Fan %s: running at full speed to measure the maximum rpm...", t.fan.GetId())
	if err := t.setAndSettle(outputs.MaxPwmValue); err != nil {
		return nil, err
	}
	maxRpm := t.readRpm()
	ui.Info("Fan %s: maximum rpm is %d", t.fan.GetId(), maxRpm)

	measuredStop, err := t.sweepDown()
	if err != nil {
		return nil, err
	}
	ui.Info("Fan %s: stops spinning at pwm %d", t.fan.GetId(), measuredStop)

	// leave the fan running while the deferred restore hands control back
	if err := t.write(outputs.MaxPwmValue); err != nil {
		return nil, err
	}

	tuning := persistence.FanTuning{
		MeasuredStart: measuredStart,
		MeasuredStop:  measuredStop,
		MaxRpm:        maxRpm,
		MeasuredAt:    time.Now(),
	}
	if err := t.persistence.SaveFanTuning(t.fan.GetId(), tuning); err != nil {
		ui.Error("Fan %s: failed to save tuning result: %v", t.fan.GetId(), err)
	}
	return &tuning, nil
}

// sweepUp raises the duty cycle from zero until the tachometer reports
// movement, returning the first pwm value at which the fan spun up.
func (t *Tester) sweepUp() (int, error) {
	for pwm := outputs.MinPwmValue; pwm <= outputs.MaxPwmValue; pwm += sweepStepSize {
		if err := t.setAndSettle(pwm); err != nil {
			return 0, err
		}
		if t.readRpm() > 0 {
			return pwm, nil
		}
	}
	return 0, fmt.Errorf("fan %s: never started spinning, check the tach binding", t.fan.GetId())
}

// sweepDown lowers the duty cycle from maximum until the tachometer
// reports standstill, returning the last pwm value at which the fan was
// still spinning.
func (t *Tester) sweepDown() (int, error) {
	lastSpinning := outputs.MaxPwmValue
	for pwm := outputs.MaxPwmValue; pwm >= outputs.MinPwmValue; pwm -= sweepStepSize {
		if err := t.setAndSettle(pwm); err != nil {
			return 0, err
		}
		if t.readRpm() == 0 {
			return lastSpinning, nil
		}
		lastSpinning = pwm
	}
	ui.Warning("Fan %s: still spinning at pwm %d, it may never stop", t.fan.GetId(), outputs.MinPwmValue)
	return outputs.MinPwmValue, nil
}

func (t *Tester) setAndSettle(pwm int) error {
	if err := t.write(pwm); err != nil {
		return err
	}
	t.waitForFanToSettle()
	return nil
}

func (t *Tester) write(pwm int) error {
	ui.Debug("Fan %s: writing pwm %d", t.fan.GetId(), pwm)
	if err := t.fan.Device.Device.WriteValue(pwm); err != nil {
		return fmt.Errorf("fan %s: could not write pwm %d: %w", t.fan.GetId(), pwm, err)
	}
	return nil
}

func (t *Tester) readRpm() int {
	t.fan.Tach.Update()
	return t.fan.Tach.GetValue()
}

// waitForFanToSettle blocks until successive rpm readings stop changing
// by more than the jitter threshold
func (t *Tester) waitForFanToSettle() {
	measuredRpmDiffWindow := util.CreateRollingWindow(settleWindowSize)
	util.FillWindow(measuredRpmDiffWindow, settleWindowSize, 2*maxRpmDiffForSettled)
	measuredRpmDiffMax := 2 * maxRpmDiffForSettled
	oldRpm := 0
	for !(measuredRpmDiffMax < maxRpmDiffForSettled) {
		ui.Debug("Waiting for fan %s to settle (current RPM max diff: %f)...", t.fan.GetId(), measuredRpmDiffMax)
		time.Sleep(settleInterval)
		currentRpm := t.readRpm()
		measuredRpmDiffWindow.Append(math.Abs(float64(currentRpm - oldRpm)))
		oldRpm = currentRpm
		measuredRpmDiffMax = math.Ceil(util.GetWindowMax(measuredRpmDiffWindow))
	}
	ui.Debug("Fan %s has settled (current RPM max diff: %f)", t.fan.GetId(), measuredRpmDiffMax)
}

// RecommendedStart derives a pwm_start configuration value from a
// measured tuning result
func RecommendedStart(tuning persistence.FanTuning) int {
	return util.Coerce(tuning.MeasuredStart+SafetyOffset, outputs.MinPwmValue, outputs.MaxPwmValue)
}

// RecommendedStop derives a pwm_stop configuration value from a
// measured tuning result
func RecommendedStop(tuning persistence.FanTuning) int {
	return util.Coerce(tuning.MeasuredStop+SafetyOffset, outputs.MinPwmValue, outputs.MaxPwmValue)
}
