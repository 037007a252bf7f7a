// Package viz draws the slide in the terminal.
//
// [Model] is a Bubble Tea program that runs the controller against the
// simulated rig in real time. The target is moved from the keyboard and the
// live tuning cell is edited in place, so gain changes show up on the next
// control cycle.
//
// # Key Bindings
//
//	Up/K, Down/J  - Move the target by one step
//	PgUp, PgDn    - Move the target by ten steps
//	Tab           - Select the next tuning parameter
//	+, -          - Scale the selected parameter by 10%
//	Space         - Pause/Resume
//	R             - Reset the rig and target
//	T             - Cycle color themes
//	?             - Show help overlay
//
// [PlotRun] renders a stored run as an ASCII chart for the CLI.
package viz
