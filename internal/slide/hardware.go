package slide

// Direction is the polarity applied to raw encoder counts.
type Direction int8

const (
	Forward Direction = 1
	Reverse Direction = -1
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Sensor reports the slide position in encoder counts.
type Sensor interface {
	CurrentPosition() int
	SetDirection(d Direction)
}

// Actuator accepts a signed power command, nominally in [-1, 1].
type Actuator interface {
	SetPower(power float64)
}

// Telemetry receives diagnostic key/value pairs. Update flushes the batch.
type Telemetry interface {
	AddData(key string, value any)
	Update()
}
