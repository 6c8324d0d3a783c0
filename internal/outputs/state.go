package outputs

import "fmt"

type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	// StateUnknown is the state of an output before Setup has run
	StateUnknown State = 99
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}
