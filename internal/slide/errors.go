package slide

import "errors"

var (
	ErrNilSensor     = errors.New("slide: sensor is nil")
	ErrNilActuator   = errors.New("slide: actuator is nil")
	ErrNilSink       = errors.New("slide: telemetry sink is nil")
	ErrInvalidBounds = errors.New("slide: min height must not exceed max height")
	ErrUnknownParam  = errors.New("slide: unknown tuning parameter")
	ErrNonFinite     = errors.New("slide: value must be finite")
)
