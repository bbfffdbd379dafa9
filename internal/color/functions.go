package color

import "math"

// Brighten returns the color with its HSL lightness raised by amount (clamped at 1).
// Negative amounts darken.
func Brighten(c Color, amount float64) Color {
	h, s, l := rgbToHSL(c.Float())
	return hslToRGB(h, s, Clamp01(l+amount)).Color()
}

// Darken returns the color with its HSL lightness lowered by amount (clamped at 0).
func Darken(c Color, amount float64) Color {
	return Brighten(c, -amount)
}

func rgbToHSL(c RGB) (h, s, l float64) {
	max := math.Max(math.Max(c.R, c.G), c.B)
	min := math.Min(math.Min(c.R, c.G), c.B)
	l = (max + min) / 2.0

	if max == min {
		return 0, 0, l // achromatic
	}

	d := max - min
	if l > 0.5 {
		s = d / (2.0 - max - min)
	} else {
		s = d / (max + min)
	}

	// Hue uses the same sector arithmetic as RGBToHSV.
	h, _, _ = RGBToHSV(c.R, c.G, c.B)
	return h, s, l
}

func hslToRGB(h, s, l float64) RGB {
	if s == 0 {
		return RGB{R: l, G: l, B: l}
	}

	var q float64
	if l < 0.5 {
		q = l * (1.0 + s)
	} else {
		q = l + s - l*s
	}
	p := 2.0*l - q

	return RGB{
		R: hueToRGB(p, q, h+1.0/3.0),
		G: hueToRGB(p, q, h),
		B: hueToRGB(p, q, h-1.0/3.0),
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1.0
	}
	if t > 1 {
		t -= 1.0
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6.0*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6.0
	}
	return p
}
