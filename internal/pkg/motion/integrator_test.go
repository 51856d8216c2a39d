package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegratorAccumulates(t *testing.T) {
	g := NewIntegrator(100)
	g.SetVelocity(1, 0)

	var total int32
	for i := 0; i < 10; i++ {
		dx, dy := g.Flush(0.005)
		total += dx
		assert.Equal(t, int32(0), dy)
	}

	// 10 * 0.005 * 100 * 1.0 = 5 units, give or take one for truncation
	assert.InDelta(t, 5, float64(total), 1)
}

func TestIntegratorNoDrift(t *testing.T) {
	g := NewIntegrator(100)
	g.SetVelocity(0.37, -0.61)

	var totalX, totalY int32
	const dt = 0.007
	const iterations = 1000

	for i := 0; i < iterations; i++ {
		dx, dy := g.Flush(dt)
		totalX += dx
		totalY += dy
	}

	exactX := dt * iterations * 100 * 0.37
	exactY := dt * iterations * 100 * -0.61
	assert.Less(t, math.Abs(exactX-float64(totalX)), 1.0)
	assert.Less(t, math.Abs(exactY-float64(totalY)), 1.0)
}

func TestIntegratorZeroVelocity(t *testing.T) {
	g := NewIntegrator(100)
	g.SetVelocity(1, 1)
	g.Flush(0.003) // leave a fractional remainder behind

	g.SetVelocity(0, 0)
	for i := 0; i < 5; i++ {
		dx, dy := g.Flush(0.1)
		assert.Equal(t, int32(0), dx)
		assert.Equal(t, int32(0), dy)
	}

	// the remainder is still there and keeps contributing once velocity returns
	g.SetVelocity(1, 1)
	dx, dy := g.Flush(0.008)
	assert.Equal(t, int32(1), dx)
	assert.Equal(t, int32(1), dy)
}

func TestIntegratorTruncatesTowardZero(t *testing.T) {
	g := NewIntegrator(1)
	g.SetVelocity(-1, 1)

	dx, dy := g.Flush(1.5)
	assert.Equal(t, int32(-1), dx)
	assert.Equal(t, int32(1), dy)

	// remainders are -0.5 and 0.5 now
	dx, dy = g.Flush(0.6)
	assert.Equal(t, int32(-1), dx)
	assert.Equal(t, int32(1), dy)
}

func TestIntegratorAxesIndependent(t *testing.T) {
	g := NewIntegrator(1)
	g.SetVelocity(1, 0.1)

	dx, dy := g.Flush(1)
	assert.Equal(t, int32(1), dx)
	assert.Equal(t, int32(0), dy)
}
