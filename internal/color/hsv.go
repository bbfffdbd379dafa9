package color

import "math"

// RGBToHSV converts channels in [0, 1] to hue, saturation and value, all in [0, 1].
// Hue is a fraction of a full turn and lies in [0, 1). Achromatic input
// (max == min) yields hue 0 and saturation 0.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(math.Max(r, g), b)
	min := math.Min(math.Min(r, g), b)
	delta := max - min
	v = max

	if delta == 0 {
		return 0, 0, v
	}

	if max > 0 {
		s = delta / max
	}

	switch max {
	case r:
		h = (g - b) / delta
		if g < b {
			h += 6.0
		}
	case g:
		h = (b-r)/delta + 2.0
	default:
		h = (r-g)/delta + 4.0
	}
	h /= 6.0

	return WrapHue(h), s, v
}

// HSVToRGB converts hue, saturation and value to channels in [0, 1] using the
// six-sector formulation. Hue outside [0, 1) is wrapped first.
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	h = WrapHue(h)

	sector := math.Floor(h * 6)
	f := h*6 - sector
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch int(sector) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// FromHSV builds an RGB triple from hue, saturation and value.
func FromHSV(h, s, v float64) RGB {
	r, g, b := HSVToRGB(h, s, v)
	return RGB{R: r, G: g, B: b}
}

// WrapHue reduces a hue fraction to [0, 1).
func WrapHue(h float64) float64 {
	h -= math.Floor(h)
	if h >= 1 {
		// Floor of values just below an integer can round up.
		h = 0
	}
	return h
}

// Clamp01 clamps a value to the [0, 1] range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
