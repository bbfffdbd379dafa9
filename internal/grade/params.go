package grade

import (
	"errors"
	"fmt"
	"math"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/curve"
	"github.com/segmentio/ksuid"
)

// ErrNonFinite is returned by Validate when a parameter is NaN or infinite.
var ErrNonFinite = errors.New("value must be finite")

// Offset is a two-axis color wheel offset; both axes are in [-1, 1].
// X pushes toward red, Y toward green, and blue takes the inverse of both.
type Offset struct {
	X, Y float64
}

// Tone is one split-tone band (lift, gamma or gain).
type Tone struct {
	Offset   Offset
	Strength float64 // [0, 1], scales the offset's contribution
}

// NeutralTone is a zero offset at full strength.
var NeutralTone = Tone{Strength: 1}

// Adjustment is what a Correction does to the colors it matches.
type Adjustment struct {
	HueShift   float64 // degrees, [-180, 180]
	Saturation float64 // [-1, 1]
	Value      float64 // [-1, 1]
	Brightness float64 // [-1, 1]
}

// Correction is a targeted adjustment applied to colors near Target.
type Correction struct {
	ID         string
	Name       string
	Enabled    bool
	Target     color.RGB
	Tolerance  float64 // (0, 1]
	Adjustment Adjustment
}

// NewCorrection returns an enabled correction with a fresh identity token.
func NewCorrection(name string, target color.RGB, tolerance float64, adj Adjustment) Correction {
	return Correction{
		ID:         ksuid.New().String(),
		Name:       name,
		Enabled:    true,
		Target:     target,
		Tolerance:  tolerance,
		Adjustment: adj,
	}
}

// Params is the complete input of one bake. It is treated as immutable while
// a bake runs; build a new value for every change.
type Params struct {
	Exposure     float64 // stops
	Brightness   float64 // multiplier
	Contrast     float64 // slope around 0.5
	Hue          float64 // degrees
	Saturation   float64 // multiplier
	Value        float64 // multiplier
	Vibrancy     float64
	CrossProcess float64

	Lift  Tone
	Gamma Tone
	Gain  Tone

	Red   curve.Curve
	Green curve.Curve
	Blue  curve.Curve

	Corrections []Correction
}

// Identity returns parameters that leave every color unchanged.
func Identity() Params {
	return Params{
		Brightness: 1,
		Contrast:   1,
		Saturation: 1,
		Value:      1,
		Lift:       NeutralTone,
		Gamma:      NeutralTone,
		Gain:       NeutralTone,
		Red:        curve.Identity(),
		Green:      curve.Identity(),
		Blue:       curve.Identity(),
	}
}

// Validate checks the parameter-construction contract: every scalar is finite
// and inside its documented range. The pipeline itself never validates.
func (p *Params) Validate() error {
	var errs []error

	check := func(name string, v, lo, hi float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrNonFinite))
			return
		}
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s: %v outside [%v, %v]", name, v, lo, hi))
		}
	}
	unbounded := math.MaxFloat64

	check("exposure", p.Exposure, -unbounded, unbounded)
	check("brightness", p.Brightness, 0, unbounded)
	check("contrast", p.Contrast, 0, unbounded)
	check("hue", p.Hue, -unbounded, unbounded)
	check("saturation", p.Saturation, 0, unbounded)
	check("value", p.Value, 0, unbounded)
	check("vibrancy", p.Vibrancy, -1, 1)
	check("cross_process", p.CrossProcess, -unbounded, unbounded)

	for _, band := range []struct {
		name string
		tone Tone
	}{{"lift", p.Lift}, {"gamma", p.Gamma}, {"gain", p.Gain}} {
		check(band.name+".x", band.tone.Offset.X, -1, 1)
		check(band.name+".y", band.tone.Offset.Y, -1, 1)
		check(band.name+".strength", band.tone.Strength, 0, 1)
	}

	for _, c := range p.Corrections {
		prefix := fmt.Sprintf("correction %q", c.Name)
		check(prefix+" target.r", c.Target.R, 0, 1)
		check(prefix+" target.g", c.Target.G, 0, 1)
		check(prefix+" target.b", c.Target.B, 0, 1)
		check(prefix+" tolerance", c.Tolerance, math.SmallestNonzeroFloat64, 1)
		check(prefix+" hue_shift", c.Adjustment.HueShift, -180, 180)
		check(prefix+" saturation_shift", c.Adjustment.Saturation, -1, 1)
		check(prefix+" value_shift", c.Adjustment.Value, -1, 1)
		check(prefix+" brightness_shift", c.Adjustment.Brightness, -1, 1)
	}

	return errors.Join(errs...)
}
