package motion

import (
	"fmt"
	"math"
)

// TransformConfig holds the calibration of a two-axis absolute stick.
type TransformConfig struct {
	// Offset is the raw resting value of an axis (center position).
	Offset float64
	// DeadZone is the raw distance from center below which an axis reads 0.
	DeadZone float64
	// HalfAmplitude is the raw distance from center that maps to full
	// deflection. Must be strictly greater than DeadZone.
	HalfAmplitude float64
	// AngleDegrees rotates the raw (x, y) pair before normalization, for
	// sticks that are mounted at an angle.
	AngleDegrees float64
}

func (c TransformConfig) Validate() error {
	if c.DeadZone < 0 {
		return fmt.Errorf("dead_zone must not be negative, got %v", c.DeadZone)
	}
	if c.HalfAmplitude <= c.DeadZone {
		return fmt.Errorf("half_amplitude (%v) must be greater than dead_zone (%v)", c.HalfAmplitude, c.DeadZone)
	}
	return nil
}

// Transform converts raw absolute axis samples into a normalized velocity
// pair in [-1, 1]. Axes arrive independently, so the last raw value of each
// axis is kept and the rotation always composes with the counterpart's most
// recent sample. Rotation is applied to the raw pair first, the dead zone
// and clamping then act in the rotated frame.
type Transform struct {
	cfg      TransformConfig
	sin, cos float64

	rawX, rawY float64
}

func NewTransform(cfg TransformConfig) (*Transform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Transform{}
	t.apply(cfg)
	return t, nil
}

func (t *Transform) apply(cfg TransformConfig) {
	rad := cfg.AngleDegrees * math.Pi / 180
	t.cfg = cfg
	t.sin = math.Sin(rad)
	t.cos = math.Cos(rad)
}

// Reconfigure swaps the calibration without losing the last seen samples.
func (t *Transform) Reconfigure(cfg TransformConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.apply(cfg)
	return nil
}

func (t *Transform) FeedX(raw int32) {
	t.rawX = float64(raw)
}

func (t *Transform) FeedY(raw int32) {
	t.rawY = float64(raw)
}

func (t *Transform) normalize(v float64) float64 {
	centered := v - t.cfg.Offset
	sign := 1.0
	if centered < 0 {
		sign = -1.0
	}
	scaled := (math.Abs(centered) - t.cfg.DeadZone) / (t.cfg.HalfAmplitude - t.cfg.DeadZone)
	return sign * math.Min(math.Max(scaled, 0), 1)
}

// Velocity returns the normalized pair for the samples seen so far.
func (t *Transform) Velocity() (vx, vy float64) {
	x := t.rawX*t.cos + t.rawY*t.sin
	y := -t.rawX*t.sin + t.rawY*t.cos
	return t.normalize(x), t.normalize(y)
}
