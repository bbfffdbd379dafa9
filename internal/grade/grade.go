// Package grade implements the color-grading pipeline that a LUT is baked from.
//
// Apply runs a fixed sequence of operators on one color. The order matters:
// curves see post-grade values and corrections see post-curve values, so
// stages cannot be reordered without changing the output.
package grade

import (
	"math"

	"github.com/jsvensson/lutforge/internal/color"
)

// Apply runs c through every grading stage and returns a color in [0, 1].
func Apply(c color.RGB, p *Params) color.RGB {
	c = c.Scale(math.Exp2(p.Exposure))
	c = c.Scale(p.Brightness)
	c = contrast(c, p.Contrast).Clamp()

	c = adjustHSV(c, p)
	c = crossProcess(c, p.CrossProcess)
	c = splitTone(c, p.Lift, p.Gamma, p.Gain).Clamp()

	c = color.RGB{
		R: p.Red.Evaluate(c.R),
		G: p.Green.Evaluate(c.G),
		B: p.Blue.Evaluate(c.B),
	}

	for _, k := range p.Corrections {
		c = k.Apply(c)
	}

	return c.Clamp()
}

func contrast(c color.RGB, k float64) color.RGB {
	return color.RGB{
		R: (c.R-0.5)*k + 0.5,
		G: (c.G-0.5)*k + 0.5,
		B: (c.B-0.5)*k + 0.5,
	}
}

// adjustHSV rotates hue, scales saturation and value, and applies vibrancy,
// which pushes low-saturation colors further than already vivid ones.
func adjustHSV(c color.RGB, p *Params) color.RGB {
	h, s, v := c.HSV()

	h = color.WrapHue(h + p.Hue/360)
	s *= p.Saturation
	if p.Vibrancy != 0 {
		s += (1 - s) * p.Vibrancy
	}
	v *= p.Value

	return color.FromHSV(h, color.Clamp01(s), color.Clamp01(v))
}

// crossProcess emulates film cross-processing with a luminance-dependent bias
// per channel.
func crossProcess(c color.RGB, amount float64) color.RGB {
	if amount == 0 {
		return c
	}
	l := c.Luminance()
	return color.RGB{
		R: c.R + amount*(l-0.5)*0.3,
		G: c.G + amount*(0.3-l*0.2),
		B: c.B + amount*(0.5-l)*0.3,
	}
}

// splitTone biases shadows, midtones and highlights. Weights come from the
// luminance of c as passed in, i.e. after cross-processing.
func splitTone(c color.RGB, lift, gamma, gain Tone) color.RGB {
	l := c.Luminance()
	weights := [3]float64{
		(1 - l) * (1 - l),
		math.Sin(l * math.Pi),
		l * l,
	}

	for i, t := range [3]Tone{lift, gamma, gain} {
		r, g, b := t.bias()
		w := weights[i]
		c.R += r * w
		c.G += g * w
		c.B += b * w
	}
	return c
}

// bias returns the per-channel push of a tone band. Blue is the inverse of the
// combined red and green push, keeping the band roughly luminance-neutral.
func (t Tone) bias() (r, g, b float64) {
	r = t.Offset.X * 0.3 * t.Strength
	g = t.Offset.Y * 0.3 * t.Strength
	b = -(t.Offset.X + t.Offset.Y) * 0.15 * t.Strength
	return r, g, b
}
