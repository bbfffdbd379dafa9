package curve

import "math"

// Spline is a display-only monotone cubic through a curve's control points.
// It passes through every control point exactly, so it agrees with Evaluate
// at each control X and differs only in smoothness between them.
type Spline struct {
	points   []Point
	tangents []float64
}

// Smooth builds the Fritsch-Carlson monotone spline for c.
func (c Curve) Smooth() Spline {
	pts := c.Points()
	if len(pts) == 0 {
		pts = Identity().points
	}
	n := len(pts)

	secants := make([]float64, n-1)
	for k := 0; k < n-1; k++ {
		secants[k] = (pts[k+1].Y - pts[k].Y) / (pts[k+1].X - pts[k].X)
	}

	m := make([]float64, n)
	m[0] = secants[0]
	m[n-1] = secants[n-2]
	for k := 1; k < n-1; k++ {
		if secants[k-1]*secants[k] <= 0 {
			m[k] = 0
		} else {
			m[k] = (secants[k-1] + secants[k]) / 2
		}
	}

	for k := 0; k < n-1; k++ {
		if secants[k] == 0 {
			m[k], m[k+1] = 0, 0
			continue
		}
		a := m[k] / secants[k]
		b := m[k+1] / secants[k]
		if s := a*a + b*b; s > 9 {
			tau := 3 / math.Sqrt(s)
			m[k] = tau * a * secants[k]
			m[k+1] = tau * b * secants[k]
		}
	}

	return Spline{points: pts, tangents: m}
}

// At evaluates the spline at x, clamped to [0, 1] in both axes.
func (s Spline) At(x float64) float64 {
	pts := s.points
	x = math.Max(0, math.Min(1, x))

	if x < pts[0].X {
		return pts[0].Y
	}
	for k := 0; k+1 < len(pts); k++ {
		p0, p1 := pts[k], pts[k+1]
		if x < p0.X || x > p1.X {
			continue
		}
		h := p1.X - p0.X
		t := (x - p0.X) / h
		t2, t3 := t*t, t*t*t

		y := (2*t3-3*t2+1)*p0.Y +
			(t3-2*t2+t)*h*s.tangents[k] +
			(-2*t3+3*t2)*p1.Y +
			(t3-t2)*h*s.tangents[k+1]
		return math.Max(0, math.Min(1, y))
	}
	return pts[len(pts)-1].Y
}

// Preview samples the smoothed curve at n evenly spaced X positions in [0, 1].
func (c Curve) Preview(n int) []Point {
	if n < 2 {
		n = 2
	}
	s := c.Smooth()
	out := make([]Point, n)
	for i := range out {
		x := float64(i) / float64(n-1)
		out[i] = Point{X: x, Y: s.At(x)}
	}
	return out
}
