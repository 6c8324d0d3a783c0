package controller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/outputs"
	"github.com/fanctrl/fanctrl/internal/scheduler"
	"github.com/fanctrl/fanctrl/internal/sensors"
	"github.com/fanctrl/fanctrl/internal/ui"
)

// tickSleep is the slice slept between tick passes while waiting for the
// cycle deadline
const tickSleep = 300 * time.Millisecond

// Controller drives the whole fleet through full control cycles and the
// sub-cycle ticks in between. Everything runs on the calling goroutine,
// all iteration within a cycle is sequential: sensors are refreshed
// before any fan computes a request, and all requests are submitted
// before any output plans.
type Controller struct {
	delay time.Duration

	sensors []sensors.Sensor
	fans    []*fans.Fan
	outputs []*outputs.PWMOutput

	cycleCount        atomic.Int64
	lastCycleDuration atomic.Int64
}

func NewController(
	delay time.Duration,
	sensorList []sensors.Sensor,
	fanList []*fans.Fan,
	outputList []*outputs.PWMOutput,
) *Controller {
	return &Controller{
		delay:   delay,
		sensors: sensorList,
		fans:    fanList,
		outputs: outputList,
	}
}

// Run executes the control loop until the context is cancelled or a
// runtime control error occurs. The shutdown sequence always runs, a
// duty cycle that silently fails to apply is a safety issue, so any
// planning or tick error is fatal to the whole run.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.setup(); err != nil {
		ui.Error("Setup failed: %v", err)
		c.shutdown()
		return err
	}

	runErr := c.loop(ctx)
	if runErr != nil {
		ui.Error("Control loop failed: %v", runErr)
	}
	c.shutdown()
	return runErr
}

// setup establishes a sensor baseline before any fan logic runs, since a
// fan's first decision depends on sensor values. Fans then suggest a
// starting point before the outputs take control and seed their ramp
// values from the observed duty cycle. Any failure here is fatal, the
// main cycle is never reached.
func (c *Controller) setup() error {
	c.updateSensors()
	for _, fan := range c.fans {
		fan.Setup()
	}
	for _, output := range c.outputs {
		if err := output.Setup(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		cycleStart := time.Now()
		cycle := scheduler.New(c.delay)
		if err := cycle.SetNext(); err != nil {
			return err
		}

		c.updateSensors()
		for _, fan := range c.fans {
			fan.Update()
		}
		for _, output := range c.outputs {
			if err := output.PlanAhead(); err != nil {
				return err
			}
		}

		// drive in-progress ramps until the cycle deadline passes
		for {
			passed, err := cycle.WasPassed()
			if err != nil {
				return err
			}
			if passed {
				break
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(tickSleep):
			}

			for _, output := range c.outputs {
				if err := output.Tick(); err != nil {
					return err
				}
			}
		}

		c.cycleCount.Add(1)
		c.lastCycleDuration.Store(int64(time.Since(cycleStart)))
	}
}

func (c *Controller) updateSensors() {
	for _, sensor := range c.sensors {
		sensor.Update()
	}
	for _, output := range c.outputs {
		output.Update()
	}
}

// shutdown hands control back to the hardware. Every step is attempted
// even if earlier ones fail, shutdown must always run to completion.
func (c *Controller) shutdown() {
	ui.Info("Shutting down, returning fan control to hardware...")
	for _, fan := range c.fans {
		fan.Shutdown()
	}
	for _, output := range c.outputs {
		output.Shutdown()
	}
}

// CycleCount returns the number of completed control cycles
func (c *Controller) CycleCount() int64 {
	return c.cycleCount.Load()
}

// LastCycleDuration returns the wall time of the most recent cycle
func (c *Controller) LastCycleDuration() time.Duration {
	return time.Duration(c.lastCycleDuration.Load())
}
