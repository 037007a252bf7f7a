// Package dynamo provides the numerical primitives behind the slide plant
// simulation.
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator
//
// # Example
//
//	model := plant.NewSlide()
//	integ := integrators.NewRK4()
//	x = integ.Step(model, x, u, t, dt)
package dynamo
