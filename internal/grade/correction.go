package grade

import (
	"math"

	"github.com/jsvensson/lutforge/internal/color"
)

// MatchStrength reports how strongly c falls under a correction targeting
// target. Distance is measured in HSV with circular hue weighted twice and the
// result halved. Colors farther than tolerance get 0; inside, strength falls
// off as a quarter cosine from 1 at the target to 0 at the boundary.
func MatchStrength(c, target color.RGB, tolerance float64) float64 {
	h, s, v := c.HSV()
	th, ts, tv := target.HSV()

	dh := math.Abs(h - th)
	if dh > 0.5 {
		dh = 1 - dh
	}
	ds := s - ts
	dv := v - tv

	distance := math.Sqrt(2*dh*dh+ds*ds+dv*dv) / 2
	if distance > tolerance {
		return 0
	}
	if distance == 0 {
		return 1
	}
	return math.Cos(distance / tolerance * math.Pi / 2)
}

// Apply runs the correction on c. Disabled corrections and colors outside the
// tolerance pass through unchanged.
func (k Correction) Apply(c color.RGB) color.RGB {
	if !k.Enabled {
		return c
	}
	strength := MatchStrength(c, k.Target, k.Tolerance)
	if strength <= 0 {
		return c
	}

	adj := k.Adjustment
	h, s, v := c.HSV()
	h = color.WrapHue(h + adj.HueShift/360)
	s = color.Clamp01(s + adj.Saturation*strength)
	v = color.Clamp01(v + adj.Value*strength)

	return color.FromHSV(h, s, v).Scale(1 + adj.Brightness*strength).Clamp()
}
