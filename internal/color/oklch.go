package color

import "math"

// OKLCH returns the perceptual lightness [0, 1], chroma [0, ~0.37] and hue in
// degrees [0, 360) of an sRGB color.
func (c Color) OKLCH() (l, chroma, hue float64) {
	f := c.Float()
	L, a, b := linearToOKLAB(srgbToLinear(f.R), srgbToLinear(f.G), srgbToLinear(f.B))

	chroma = math.Hypot(a, b)
	hue = math.Atan2(b, a) * (180.0 / math.Pi)
	if hue < 0 {
		hue += 360.0
	}
	return L, chroma, hue
}

// FromOKLCH converts OKLCH components back to an sRGB Color, clipping
// out-of-gamut channels.
func FromOKLCH(l, chroma, hue float64) Color {
	rad := hue * (math.Pi / 180.0)
	r, g, b := oklabToLinear(l, chroma*math.Cos(rad), chroma*math.Sin(rad))

	return RGB{
		R: linearToSRGB(Clamp01(r)),
		G: linearToSRGB(Clamp01(g)),
		B: linearToSRGB(Clamp01(b)),
	}.Color()
}

// WithLightness returns the color moved to an absolute OKLCH lightness,
// keeping its hue and chroma. Palette authors use it to build tonal ramps.
func WithLightness(c Color, lightness float64) Color {
	_, chroma, hue := c.OKLCH()
	return FromOKLCH(Clamp01(lightness), chroma, hue)
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1.0/2.4) - 0.055
}

func linearToOKLAB(r, g, b float64) (float64, float64, float64) {
	l := math.Cbrt(0.4122214708*r + 0.5363325363*g + 0.0514459929*b)
	m := math.Cbrt(0.2119034982*r + 0.6806995451*g + 0.1073969566*b)
	s := math.Cbrt(0.0883024619*r + 0.2817188376*g + 0.6299787005*b)

	return 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		0.0259040371*l + 0.7827717662*m - 0.8086757660*s
}

func oklabToLinear(L, a, b float64) (float64, float64, float64) {
	l := L + 0.3963377774*a + 0.2158037573*b
	m := L - 0.1055613458*a - 0.0638541728*b
	s := L - 0.0894841775*a - 1.2914855480*b
	l, m, s = l*l*l, m*m*m, s*s*s

	return +4.0767416621*l - 3.3077115913*m + 0.2309699292*s,
		-1.2684380046*l + 2.6097574011*m - 0.3413193965*s,
		-0.0041960863*l - 0.7034186147*m + 1.7076147010*s
}
