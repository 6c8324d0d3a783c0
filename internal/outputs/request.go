package outputs

import "fmt"

// Request is a fan's wish for the shared pwm channel in the current cycle.
// Start is only set when the requester believes the fan is stalled and a
// kick-start value is needed to overcome static friction.
type Request struct {
	Requester string
	Target    int
	Start     *int
}

func (r Request) String() string {
	if r.Start != nil {
		return fmt.Sprintf("Request(start=%d, target=%d)", *r.Start, r.Target)
	}
	return fmt.Sprintf("Request(target=%d)", r.Target)
}

// maxTarget returns the highest steady-state value among the given
// requests. Multiple fans sharing a channel always get at least the
// cooling the most demanding one needs.
func maxTarget(requests []Request) (int, bool) {
	found := false
	max := 0
	for _, r := range requests {
		if !found || r.Target > max {
			max = r.Target
			found = true
		}
	}
	return max, found
}

// maxStart returns the highest kick-start value among the given requests
func maxStart(requests []Request) (int, bool) {
	found := false
	max := 0
	for _, r := range requests {
		if r.Start == nil {
			continue
		}
		if !found || *r.Start > max {
			max = *r.Start
			found = true
		}
	}
	return max, found
}
