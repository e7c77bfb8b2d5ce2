package simulator

// Halt immediately zeroes the robot's velocity and wheel speeds without
// advancing position, matching the "ha" command's semantics and spec
// §4.1 rule 5 (halt on contact or absence of a pending move command).
func (w *World) Halt() {
	w.Body.LinearVelocity = 0
	w.Body.AngularVelocity = 0
	w.Body.LeftSpeed = 0
	w.Body.RightSpeed = 0
	w.Body.MotionStopped = true
}
