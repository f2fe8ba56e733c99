package client

import "time"

// Stepper converts variable frame times into a whole number of fixed
// simulation steps. The remainder carries over to the next frame.
type Stepper struct {
	step     time.Duration
	maxDelta time.Duration
	acc      time.Duration
}

// NewStepper returns a stepper of the given step length. Frame deltas above
// maxDelta are clamped so a stall never triggers a burst of catch-up steps.
func NewStepper(step, maxDelta time.Duration) *Stepper {
	return &Stepper{step: step, maxDelta: maxDelta}
}

// Advance adds delta to the accumulator and returns how many steps to run.
func (s *Stepper) Advance(delta time.Duration) int {
	delta = min(max(delta, 0), s.maxDelta)
	s.acc += delta
	n := int(s.acc / s.step)
	s.acc -= time.Duration(n) * s.step
	return n
}

// Pending returns the time carried over to the next frame.
func (s *Stepper) Pending() time.Duration {
	return s.acc
}
