package motion

import "math"

// Integrator turns an instantaneous normalized velocity into whole-unit
// pointer displacement. Velocity is replaced by every new sample, not
// accumulated. The fractional part of the displacement is carried between
// flushes, so the emitted total converges to the exact integral of velocity
// over time with no long-run drift.
type Integrator struct {
	speed float64

	vx, vy float64
	rx, ry float64
}

func NewIntegrator(speedMultiplier float64) *Integrator {
	return &Integrator{speed: speedMultiplier}
}

func (g *Integrator) SetSpeed(speedMultiplier float64) {
	g.speed = speedMultiplier
}

// SetVelocity replaces the current velocity pair, values in [-1, 1].
func (g *Integrator) SetVelocity(vx, vy float64) {
	g.vx = vx
	g.vy = vy
}

func step(remainder, velocity, factor float64) (float64, int32) {
	remainder += factor * velocity
	if math.Abs(remainder) < 1 {
		return remainder, 0
	}
	whole := math.Trunc(remainder)
	return remainder - whole, int32(whole)
}

// Flush integrates over the elapsed time and returns the whole units to
// emit per axis. After every flush both remainders stay within (-1, 1).
func (g *Integrator) Flush(dt float64) (dx, dy int32) {
	factor := dt * g.speed
	g.rx, dx = step(g.rx, g.vx, factor)
	g.ry, dy = step(g.ry, g.vy, factor)
	return dx, dy
}
