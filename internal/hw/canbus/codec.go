// Package canbus drives the slide motors and reads its encoder over a
// SocketCAN bus.
//
// Motor frames carry a signed 16-bit power in bytes 0-1, scaled so that
// PowerScale is full power. Encoder frames carry a signed 32-bit count in
// bytes 0-3. Both are little endian.
package canbus

import (
	"errors"
	"fmt"
	"math"

	"go.einride.tech/can"
)

const (
	PowerScale = 32767

	powerLength   = 2
	encoderLength = 4
)

var ErrBadFrame = errors.New("canbus: unexpected frame")

// EncodePower builds a motor command frame. Power is saturated to [-1, 1].
func EncodePower(id uint32, power float64) (can.Frame, error) {
	if math.IsNaN(power) {
		return can.Frame{}, fmt.Errorf("%w: NaN power for 0x%X", ErrBadFrame, id)
	}
	power = math.Max(-1, math.Min(1, power))

	f := can.Frame{ID: id, Length: powerLength}
	f.Data.SetSignedBitsLittleEndian(0, 16, int64(math.Round(power*PowerScale)))
	if err := f.Validate(); err != nil {
		return can.Frame{}, err
	}
	return f, nil
}

func DecodePower(f can.Frame) (float64, error) {
	if f.Length != powerLength {
		return 0, fmt.Errorf("%w: motor frame 0x%X has length %d", ErrBadFrame, f.ID, f.Length)
	}
	return float64(f.Data.SignedBitsLittleEndian(0, 16)) / PowerScale, nil
}

func EncodeCount(id uint32, count int32) (can.Frame, error) {
	f := can.Frame{ID: id, Length: encoderLength}
	f.Data.SetSignedBitsLittleEndian(0, 32, int64(count))
	if err := f.Validate(); err != nil {
		return can.Frame{}, err
	}
	return f, nil
}

func DecodeCount(f can.Frame) (int32, error) {
	if f.Length != encoderLength {
		return 0, fmt.Errorf("%w: encoder frame 0x%X has length %d", ErrBadFrame, f.ID, f.Length)
	}
	return int32(f.Data.SignedBitsLittleEndian(0, 32)), nil
}
