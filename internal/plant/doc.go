// Package plant simulates the slide hardware: a carriage on vertical rails
// driven by two opposed motors and read by a quadrature encoder.
//
// The carriage is modelled as a first-order velocity lag. The commanded
// drive, in [-1, 1], pulls velocity toward drive*FreeSpeed, and gravity
// shifts that equilibrium down by GravitySag:
//
//	dv/dt = (drive*FreeSpeed - GravitySag - v) / TimeConstant
//
// Positions are in encoder counts. Rig couples the model with an integrator
// and exposes Motor and Encoder values that satisfy the slide package's
// Actuator and Sensor interfaces.
package plant
