package slide

import "fmt"

// State is the activation state of the controller.
type State uint8

const (
	// StateIdle means the slide is within the deadband and the motors are left alone.
	StateIdle State = iota
	// StateActive means the last update ran a PID step.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "IDLE":
		*s = StateIdle
	case "ACTIVE":
		*s = StateActive
	default:
		return fmt.Errorf("slide: unknown state %q", text)
	}
	return nil
}
