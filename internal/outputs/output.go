package outputs

import (
	"fmt"
	"time"

	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/scheduler"
	"github.com/fanctrl/fanctrl/internal/ui"
)

const (
	MinPwmValue = 0
	MaxPwmValue = 255

	// spin-up polling during STARTING: one poll per second, five attempts
	startingStepDelay = 1 * time.Second
	startingAttempts  = 5

	// wind-down stepping during STOPPING
	stoppingStepDelay = 500 * time.Millisecond
	stoppingStepSize  = 10

	// ramp stepping during RUNNING, step delay is sized so a full-range
	// ramp fits inside one control cycle, capped at 2s per step
	runningStepSize     = 20
	runningStepDelayMax = 2 * time.Second
)

// FanRef is the view an output has of the fans registered on its channel.
type FanRef interface {
	GetId() string
	// GetMaxPwm returns the fan's configured maximum duty cycle
	GetMaxPwm() int
	// TachReading returns the per-cycle cached tachometer value
	TachReading() int
	// TachRunning polls the tachometer directly, bypassing the cycle cache
	TachRunning() bool
}

// PWMOutput owns a writable pwm channel and the state machine that drives
// it through stopped -> starting -> running -> stopping transitions. One
// instance may be shared by several fans, which arbitrate through
// RequestValue/PlanAhead. All methods must be called from a single
// control goroutine.
type PWMOutput struct {
	Name   string
	Device hwmon.Device

	state    State
	value    int
	hasValue bool

	// lastValue is the duty cycle last written (or observed), target is
	// the desired steady state value. Both stay within 0..255.
	lastValue int
	target    int

	originalEnable    int
	hasOriginalEnable bool

	requests []Request

	// sched paces ramp steps, it only exists while a ramp phase is active
	sched       *scheduler.MicroScheduler
	cycleLength time.Duration

	fans []FanRef
}

func NewPWMOutput(name string, device hwmon.Device, cycleLength time.Duration) *PWMOutput {
	return &PWMOutput{
		Name:        name,
		Device:      device,
		state:       StateUnknown,
		cycleLength: cycleLength,
	}
}

// RegisterFan attaches a fan sharing this physical channel
func (o *PWMOutput) RegisterFan(fan FanRef) {
	o.fans = append(o.fans, fan)
}

func (o *PWMOutput) GetId() string {
	return o.Name
}

func (o *PWMOutput) GetState() State {
	return o.state
}

// GetValue returns the cached duty cycle reading
func (o *PWMOutput) GetValue() int {
	return o.value
}

func (o *PWMOutput) GetLastValue() int {
	return o.lastValue
}

func (o *PWMOutput) GetTarget() int {
	return o.target
}

func (o *PWMOutput) FormatValue() string {
	return fmt.Sprintf("%d", o.value)
}

// Update refreshes the cached duty cycle reading and clears any requests
// left over from the previous cycle. Leftovers mean a fan submitted a
// request that no planning pass ever consumed, which points at a
// misconfiguration, so they are logged before being dropped.
func (o *PWMOutput) Update() {
	value, err := o.Device.ReadValue()
	if err != nil {
		ui.Error("Output %s could not be updated (%v)", o.Name, err)
	} else {
		o.value = value
		o.hasValue = true
	}
	o.discardRequests(true)
}

// RequestValue records a fan's request for this cycle. Nothing is written
// here, all arbitration is deferred to the next PlanAhead call so every
// cycle has a single consistent decision point.
func (o *PWMOutput) RequestValue(request Request) {
	ui.Debug("Output %s was requested %s by %s", o.Name, request, request.Requester)
	o.requests = append(o.requests, request)
}

// PlanAhead turns the requests collected this cycle into a state machine
// decision. It only acts in settled states, an output that is mid-ramp is
// governed by Tick, not by planning.
func (o *PWMOutput) PlanAhead() error {
	switch o.state {
	case StateStopped:
		return o.planFromStopped()
	case StateRunning:
		return o.planFromRunning()
	default:
		ui.Error("Output %s encountered state %s during planning", o.Name, o.state)
		return nil
	}
}

func (o *PWMOutput) planFromStopped() error {
	defer o.discardRequests(false)

	start, hasStart := maxStart(o.requests)
	target, hasTarget := maxTarget(o.requests)

	kick := MinPwmValue
	if hasTarget && target > kick {
		kick = target
	}
	if hasStart && start > kick {
		kick = start
	}

	if !hasStart {
		// nobody asked to start, stay at rest
		return nil
	}

	if err := o.write(kick); err != nil {
		return err
	}
	o.newState(StateStarting)
	o.target = target
	o.lastValue = kick
	return nil
}

func (o *PWMOutput) planFromRunning() error {
	defer o.discardRequests(false)

	o.lastValue = o.value
	if target, ok := maxTarget(o.requests); ok {
		o.target = target
	}
	if o.target == 0 {
		o.newState(StateStopping)
	}
	return nil
}

// Tick advances an in-progress ramp. It is called many times between
// control cycles, at sub-second granularity, and is a no-op in settled
// states.
func (o *PWMOutput) Tick() error {
	switch o.state {
	case StateStarting:
		return o.tickFromStarting()
	case StateStopping:
		return o.tickFromStopping()
	case StateRunning:
		return o.tickFromRunning()
	}
	return nil
}

func (o *PWMOutput) tickFromStarting() error {
	if o.sched == nil {
		o.sched = scheduler.NewLimited(startingStepDelay, startingAttempts)
		return o.sched.SetNext()
	}

	passed, err := o.sched.WasPassed()
	if err != nil || !passed {
		return err
	}

	var notStarted []FanRef
	for _, fan := range o.fans {
		if !fan.TachRunning() {
			notStarted = append(notStarted, fan)
		}
	}

	if len(notStarted) == 0 {
		o.newState(StateRunning)
		return nil
	}

	for _, fan := range notStarted {
		ui.Debug("Output %s waiting for %s to start...", o.Name, fan.GetId())
	}
	if err := o.sched.SetNext(); err != nil {
		// the retry budget ran out, a fan that never proves its
		// tachometer reading must not wedge the state machine
		for _, fan := range notStarted {
			ui.Error("Output %s gave up on waiting for %s to start...", o.Name, fan.GetId())
		}
		o.newState(StateRunning)
	}
	return nil
}

func (o *PWMOutput) tickFromStopping() error {
	if o.sched == nil {
		o.sched = scheduler.New(stoppingStepDelay)
		return o.sched.SetNext()
	}

	passed, err := o.sched.WasPassed()
	if err != nil || !passed {
		return err
	}

	if o.lastValue == o.target {
		o.newState(StateStopped)
		return nil
	}

	next := o.nextStepValue(stoppingStepSize)
	ui.Debug("Output %s stepping from %d to %d towards %d", o.Name, o.lastValue, next, o.target)
	o.lastValue = next
	if err := o.write(next); err != nil {
		return err
	}
	return o.sched.SetNext()
}

func (o *PWMOutput) tickFromRunning() error {
	if o.sched == nil {
		stepDelay := scheduler.SuggestStepDelay(
			o.cycleLength,
			float64(MaxPwmValue)/float64(runningStepSize),
			runningStepDelayMax,
		)
		o.sched = scheduler.New(stepDelay)
		return o.sched.SetNext()
	}

	passed, err := o.sched.WasPassed()
	if err != nil || !passed {
		return err
	}

	if o.lastValue == o.target {
		return o.sched.SetNext()
	}

	next := o.nextStepValue(runningStepSize)
	ui.Debug("Output %s stepping from %d to %d towards %d", o.Name, o.lastValue, next, o.target)
	o.lastValue = next
	if err := o.write(next); err != nil {
		return err
	}
	return o.sched.SetNext()
}

// nextStepValue moves lastValue towards target by at most step, never
// overshooting in either direction
func (o *PWMOutput) nextStepValue(step int) int {
	diff := o.target - o.lastValue
	if diff > 0 {
		if diff < step {
			step = diff
		}
		return o.lastValue + step
	}
	if diff < 0 {
		if -diff < step {
			step = -diff
		}
		return o.lastValue - step
	}
	return o.lastValue
}

func (o *PWMOutput) newState(state State) {
	ui.Debug("Output %s setting new state %s (was %s)", o.Name, state, o.state)
	o.state = state
	o.sched = nil
}

// Setup takes control of the channel. The true hardware state is unknown
// at process start, so the initial state is a best-effort guess from the
// registered fans' tachometer readings, and the ramp values are seeded
// with the currently observed duty cycle to avoid an abrupt jump the
// moment control begins.
func (o *PWMOutput) Setup() error {
	o.discardRequests(false)

	o.state = StateStopped
	for _, fan := range o.fans {
		if fan.TachReading() > 0 {
			ui.Debug("Output %s detected spinning %s (%d RPM)", o.Name, fan.GetId(), fan.TachReading())
			o.state = StateRunning
			break
		}
	}
	ui.Debug("Output %s state set to %s", o.Name, o.state)

	value, err := o.Device.ReadValue()
	if err != nil {
		return err
	}
	o.value = value
	o.hasValue = true
	o.lastValue = value
	o.target = value

	enable, err := o.Device.ReadEnable()
	if err != nil {
		return err
	}
	o.originalEnable = enable
	o.hasOriginalEnable = true
	ui.Debug("Output %s storing original control mode (%d)", o.Name, enable)

	if err := o.Device.WriteEnable(hwmon.ControlModeManual); err != nil {
		return err
	}
	ui.Info("Output %s set to MANUAL control", o.Name)
	return nil
}

// Shutdown relinquishes control of the channel. It runs during process
// teardown and signal handling and therefore never returns an error, it
// tries each fallback in turn and logs what it could not do:
// restore the original control mode, else write the maximum pending
// requested value, else write the failsafe ceiling.
func (o *PWMOutput) Shutdown() bool {
	defer o.discardRequests(false)

	if !o.hasOriginalEnable {
		ui.Warning("Output %s had no stored control mode during shutdown", o.Name)
	} else if err := o.Device.WriteEnable(o.originalEnable); err != nil {
		ui.Warning("Output %s could not restore control mode %d (%v)", o.Name, o.originalEnable, err)
	} else {
		ui.Info("Output %s returned to original control (%d)", o.Name, o.originalEnable)
		return true
	}

	if target, ok := maxTarget(o.requests); ok {
		ui.Warning("Output %s could not return to original control, setting it to %d", o.Name, target)
		if err := o.write(target); err == nil {
			return true
		}
	}

	// better to run fans fast than to risk a silent failure
	target := o.failsafeMax()
	ui.Error("Output %s could not set that either, trying max value (%d)", o.Name, target)
	if err := o.write(target); err != nil {
		ui.Error("All attempts failed... hope everything works out for you :-)")
	}
	return false
}

// failsafeMax is the ceiling written when every shutdown fallback failed:
// the highest configured pwm_max across registered fans, or the absolute
// maximum when no fan is registered.
func (o *PWMOutput) failsafeMax() int {
	max := MaxPwmValue
	for i, fan := range o.fans {
		if i == 0 || fan.GetMaxPwm() > max {
			max = fan.GetMaxPwm()
		}
	}
	return max
}

func (o *PWMOutput) write(value int) error {
	ui.Debug("Output %s writing %d", o.Name, value)
	if err := o.Device.WriteValue(value); err != nil {
		return fmt.Errorf("output %s could not write %d: %w", o.Name, value, err)
	}
	return nil
}

func (o *PWMOutput) discardRequests(warnDropped bool) {
	if warnDropped {
		for _, request := range o.requests {
			ui.Warning("Output %s discarding request (%s of %s)", o.Name, request.Requester, request)
		}
	}
	o.requests = nil
}
