// Package slide implements closed-loop position control for a linear slide
// driven by two mirrored motors and read back by a single encoder.
//
// A [Controller] owns the target position and the PID accumulators. The
// owning loop calls [Controller.Update] once per cycle; target changes made
// through [Controller.Move], [Controller.MoveUp], [Controller.MoveDown] or
// [Controller.SetTargetPosition] take effect on the next update.
//
// # Usage
//
//	tun := slide.NewTuning()
//	ctrl, err := slide.New(encoder, leftMotor, rightMotor, sink,
//		slide.WithTuning(tun),
//		slide.WithOutputLimit(1.0),
//	)
//	ctrl.MoveUp(1000)
//	for range ticker.C {
//		ctrl.Update()
//	}
//
// # Thread Safety
//
// Controller methods must be called from a single goroutine. The [Tuning]
// cell is the exception: gains and bounds may be written from any goroutine
// while the loop is running. Gains are re-read on every active step, and the
// target is re-clamped to the bounds at the start of every update.
package slide
