package profile

import (
	"errors"
	"fmt"
	"os"

	"github.com/naegi/joy2mouse/internal/pkg/motion"
	"gopkg.in/yaml.v3"
)

// Profile is a partial calibration override for one device model. Absent
// fields keep the value from the main configuration.
type Profile struct {
	DeadZone      *float64 `yaml:"dead_zone"`
	HalfAmplitude *float64 `yaml:"half_amplitude"`
	Offset        *float64 `yaml:"offset"`
	AngleDegrees  *float64 `yaml:"angle"`
}

// Profiles maps "vendor:product" keys (lowercase hex, e.g. "054c:09cc") to
// calibration overrides.
type Profiles map[string]Profile

// Load reads the profiles file. A missing file is not an error, it simply
// means no overrides.
func Load(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profiles{}, nil
		}
		return nil, fmt.Errorf("cannot read \"%s\": %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("cannot parse device profiles: %w", err)
	}
	if p == nil {
		p = Profiles{}
	}
	return p, nil
}

func (p Profiles) Find(vendor, product uint16) (Profile, bool) {
	prof, ok := p[fmt.Sprintf("%04x:%04x", vendor, product)]
	return prof, ok
}

// Apply overlays the profile on top of base and returns the result.
func (prof Profile) Apply(base motion.TransformConfig) motion.TransformConfig {
	if prof.DeadZone != nil {
		base.DeadZone = *prof.DeadZone
	}
	if prof.HalfAmplitude != nil {
		base.HalfAmplitude = *prof.HalfAmplitude
	}
	if prof.Offset != nil {
		base.Offset = *prof.Offset
	}
	if prof.AngleDegrees != nil {
		base.AngleDegrees = *prof.AngleDegrees
	}
	return base
}
