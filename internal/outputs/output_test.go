package outputs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeDevice struct {
	name   string
	value  int
	enable int

	failWrite       bool
	failEnableWrite bool

	writes       []int
	enableWrites []int
}

func (d *fakeDevice) GetName() string { return d.name }

func (d *fakeDevice) ReadValue() (int, error) {
	return d.value, nil
}

func (d *fakeDevice) WriteValue(value int) error {
	if d.failWrite {
		return errors.New("write failed")
	}
	d.value = value
	d.writes = append(d.writes, value)
	return nil
}

func (d *fakeDevice) ReadEnable() (int, error) {
	return d.enable, nil
}

func (d *fakeDevice) WriteEnable(value int) error {
	if d.failEnableWrite {
		return errors.New("enable write failed")
	}
	d.enable = value
	d.enableWrites = append(d.enableWrites, value)
	return nil
}

func (d *fakeDevice) IsValid() bool    { return true }
func (d *fakeDevice) IsWritable() bool { return true }
func (d *fakeDevice) HasEnable() bool  { return true }

type fakeFan struct {
	id      string
	maxPwm  int
	rpm     int
	running bool
}

func (f *fakeFan) GetId() string     { return f.id }
func (f *fakeFan) GetMaxPwm() int    { return f.maxPwm }
func (f *fakeFan) TachReading() int  { return f.rpm }
func (f *fakeFan) TachRunning() bool { return f.running }

func intPtr(value int) *int {
	return &value
}

func TestPlanFromStoppedWithoutStartRequest(t *testing.T) {
	// GIVEN a stopped output with only a steady-state request
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 90})

	// WHEN
	err := output.PlanAhead()

	// THEN nothing happens, starting needs an explicit kick value
	assert.NoError(t, err)
	assert.Equal(t, StateStopped, output.GetState())
	assert.Empty(t, device.writes)
}

func TestPlanFromStoppedKickIsMaxOfStartAndTarget(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 90, Start: intPtr(80)})

	// WHEN
	err := output.PlanAhead()

	// THEN the higher of the two values is written
	assert.NoError(t, err)
	assert.Equal(t, StateStarting, output.GetState())
	assert.Equal(t, []int{90}, device.writes)
	assert.Equal(t, 90, output.GetTarget())
}

func TestPlanFromStoppedStartAboveTarget(t *testing.T) {
	// GIVEN a kick value above the steady-state target
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 50, Start: intPtr(80)})

	// WHEN
	err := output.PlanAhead()

	// THEN the kick is written but the target stays at the requested value
	assert.NoError(t, err)
	assert.Equal(t, StateStarting, output.GetState())
	assert.Equal(t, []int{80}, device.writes)
	assert.Equal(t, 50, output.GetTarget())
}

func TestPlanFromStoppedArbitratesAcrossFans(t *testing.T) {
	// GIVEN two fans sharing the channel
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 60, Start: intPtr(70)})
	output.RequestValue(Request{Requester: "fan2", Target: 90, Start: intPtr(80)})

	// WHEN
	err := output.PlanAhead()

	// THEN the most demanding fan wins
	assert.NoError(t, err)
	assert.Equal(t, []int{90}, device.writes)
	assert.Equal(t, 90, output.GetTarget())
}

func TestPlanFromRunningToStopping(t *testing.T) {
	// GIVEN a running output asked to go to zero
	device := &fakeDevice{name: "pwm1", value: 100}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateRunning
	output.value = 100
	output.lastValue = 100
	output.RequestValue(Request{Requester: "fan1", Target: 0})

	// WHEN
	err := output.PlanAhead()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, StateStopping, output.GetState())
	assert.Equal(t, 0, output.GetTarget())
}

func TestPlanFromRunningKeepsTargetWithoutRequests(t *testing.T) {
	// GIVEN
	device := &fakeDevice{name: "pwm1", value: 100}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateRunning
	output.value = 100
	output.lastValue = 100
	output.target = 150

	// WHEN
	err := output.PlanAhead()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, StateRunning, output.GetState())
	assert.Equal(t, 150, output.GetTarget())
}

func TestRunningRampConvergesWithoutOvershoot(t *testing.T) {
	// GIVEN a short cycle so ramp steps are paced tightly
	device := &fakeDevice{name: "pwm1", value: 100}
	output := NewPWMOutput("pwm1", device, 100*time.Millisecond)
	output.state = StateRunning
	output.value = 100
	output.lastValue = 100
	output.RequestValue(Request{Requester: "fan1", Target: 150})
	assert.NoError(t, output.PlanAhead())

	// WHEN ticking until the ramp has settled
	deadline := time.Now().Add(2 * time.Second)
	for output.GetLastValue() != 150 && time.Now().Before(deadline) {
		assert.NoError(t, output.Tick())
		time.Sleep(20 * time.Millisecond)
	}

	// THEN the value stepped up without ever overshooting the target
	assert.Equal(t, []int{120, 140, 150}, device.writes)
	assert.Equal(t, 150, output.GetLastValue())
	assert.Equal(t, StateRunning, output.GetState())
}

func TestStartingBecomesRunningOnceFansSpin(t *testing.T) {
	// GIVEN an output mid-startup with a spinning fan
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.RegisterFan(&fakeFan{id: "fan1", maxPwm: 255, running: true})
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 90, Start: intPtr(80)})
	assert.NoError(t, output.PlanAhead())
	assert.Equal(t, StateStarting, output.GetState())

	// WHEN the first poll interval has gone by
	assert.NoError(t, output.Tick())
	time.Sleep(1100 * time.Millisecond)
	assert.NoError(t, output.Tick())

	// THEN
	assert.Equal(t, StateRunning, output.GetState())
}

func TestStartingFailsForwardWhenFansNeverSpin(t *testing.T) {
	// GIVEN an output mid-startup whose fan never reports a tach reading
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.RegisterFan(&fakeFan{id: "fan1", maxPwm: 255, running: false})
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 90, Start: intPtr(80)})
	assert.NoError(t, output.PlanAhead())
	assert.Equal(t, StateStarting, output.GetState())

	// WHEN the spin-up retry budget runs out
	deadline := time.Now().Add(7 * time.Second)
	for output.GetState() == StateStarting && time.Now().Before(deadline) {
		assert.NoError(t, output.Tick())
		time.Sleep(200 * time.Millisecond)
	}

	// THEN the state machine moves on instead of waiting forever
	assert.Equal(t, StateRunning, output.GetState())
}

func TestStoppingReachesStopped(t *testing.T) {
	// GIVEN an output that already ramped down to its target
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateStopping
	output.lastValue = 0
	output.target = 0

	// WHEN the first step interval has gone by
	assert.NoError(t, output.Tick())
	time.Sleep(600 * time.Millisecond)
	assert.NoError(t, output.Tick())

	// THEN
	assert.Equal(t, StateStopped, output.GetState())
}

func TestNextStepValueNeverOvershoots(t *testing.T) {
	// GIVEN
	output := NewPWMOutput("pwm1", &fakeDevice{}, 10*time.Second)

	// WHEN stepping towards a target closer than the step size
	output.lastValue = 95
	output.target = 100
	up := output.nextStepValue(20)

	output.lastValue = 5
	output.target = 0
	down := output.nextStepValue(10)

	// THEN
	assert.Equal(t, 100, up)
	assert.Equal(t, 0, down)
}

func TestUpdateDiscardsLeftoverRequests(t *testing.T) {
	// GIVEN a request nobody planned for
	device := &fakeDevice{name: "pwm1", value: 10}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.state = StateStopped
	output.RequestValue(Request{Requester: "fan1", Target: 90, Start: intPtr(80)})

	// WHEN a new cycle starts
	output.Update()

	// THEN the stale request no longer influences planning
	assert.NoError(t, output.PlanAhead())
	assert.Equal(t, StateStopped, output.GetState())
	assert.Empty(t, device.writes)
}

func TestSetupGuessesStateFromTach(t *testing.T) {
	// GIVEN one output with a spinning fan and one without
	spinningDevice := &fakeDevice{name: "pwm1", value: 120, enable: 2}
	spinning := NewPWMOutput("pwm1", spinningDevice, 10*time.Second)
	spinning.RegisterFan(&fakeFan{id: "fan1", maxPwm: 255, rpm: 900})

	stoppedDevice := &fakeDevice{name: "pwm2", value: 0, enable: 2}
	stopped := NewPWMOutput("pwm2", stoppedDevice, 10*time.Second)
	stopped.RegisterFan(&fakeFan{id: "fan2", maxPwm: 255, rpm: 0})

	// WHEN
	assert.NoError(t, spinning.Setup())
	assert.NoError(t, stopped.Setup())

	// THEN states follow the tachometers and manual control was taken
	assert.Equal(t, StateRunning, spinning.GetState())
	assert.Equal(t, StateStopped, stopped.GetState())
	assert.Equal(t, 1, spinningDevice.enable)
	assert.Equal(t, 120, spinning.GetLastValue())
	assert.Equal(t, 120, spinning.GetTarget())
}

func TestShutdownRestoresOriginalControlMode(t *testing.T) {
	// GIVEN an output that took over from automatic control
	device := &fakeDevice{name: "pwm1", value: 120, enable: 2}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	assert.NoError(t, output.Setup())

	// WHEN
	ok := output.Shutdown()

	// THEN the stored mode is written back
	assert.True(t, ok)
	assert.Equal(t, 2, device.enable)
}

func TestShutdownFallsBackToPendingRequest(t *testing.T) {
	// GIVEN restoring the control mode fails
	device := &fakeDevice{name: "pwm1", value: 120, enable: 2}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	assert.NoError(t, output.Setup())
	device.failEnableWrite = true
	output.RequestValue(Request{Requester: "fan1", Target: 200, Start: intPtr(200)})

	// WHEN
	ok := output.Shutdown()

	// THEN the highest pending request is written instead
	assert.True(t, ok)
	assert.Equal(t, 200, device.value)
}

func TestShutdownFallsBackToFailsafeMax(t *testing.T) {
	// GIVEN no stored control mode and no pending requests
	device := &fakeDevice{name: "pwm1"}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.RegisterFan(&fakeFan{id: "fan1", maxPwm: 220})

	// WHEN
	ok := output.Shutdown()

	// THEN the configured ceiling is written as a last resort
	assert.False(t, ok)
	assert.Equal(t, 220, device.value)
}

func TestShutdownNeverPanicsWhenEverythingFails(t *testing.T) {
	// GIVEN a device rejecting every write
	device := &fakeDevice{name: "pwm1", failWrite: true, failEnableWrite: true}
	output := NewPWMOutput("pwm1", device, 10*time.Second)
	output.RequestValue(Request{Requester: "fan1", Target: 200})

	// WHEN / THEN
	assert.False(t, output.Shutdown())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "STOPPED", StateStopped.String())
	assert.Equal(t, "STARTING", StateStarting.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "STOPPING", StateStopping.String())
	assert.Equal(t, "UNKNOWN(99)", StateUnknown.String())
}
