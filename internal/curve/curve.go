// Package curve implements piecewise-linear tone curves over [0, 1].
//
// A Curve is an immutable snapshot of control points. Editing operations
// return a new Curve and never modify the receiver, so a Curve can be shared
// freely between concurrent bakes.
package curve

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrTooFewPoints is returned when a curve has fewer than two points.
	ErrTooFewPoints = errors.New("curve needs at least 2 points")
	// ErrNotIncreasing is returned when point X coordinates are not strictly increasing.
	ErrNotIncreasing = errors.New("curve x coordinates must be strictly increasing")
	// ErrNonFinite is returned for NaN or infinite coordinates.
	ErrNonFinite = errors.New("curve coordinates must be finite")
)

// Point is a control point; both coordinates are expected in [0, 1].
type Point struct {
	X, Y float64
}

// Curve is an ordered sequence of at least two control points with strictly
// increasing X. Build one with New; the zero Curve evaluates as the identity.
type Curve struct {
	points []Point
}

// New validates points and returns a Curve holding a private copy of them.
func New(points ...Point) (Curve, error) {
	if len(points) < 2 {
		return Curve{}, fmt.Errorf("%w, got %d", ErrTooFewPoints, len(points))
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return Curve{}, fmt.Errorf("point %d (%v, %v): %w", i, p.X, p.Y, ErrNonFinite)
		}
		if i > 0 && p.X <= points[i-1].X {
			return Curve{}, fmt.Errorf("point %d x=%v after x=%v: %w", i, p.X, points[i-1].X, ErrNotIncreasing)
		}
	}
	return Curve{points: slices.Clone(points)}, nil
}

// MustNew is like New but panics on invalid input. Intended for literals.
func MustNew(points ...Point) Curve {
	c, err := New(points...)
	if err != nil {
		panic(err)
	}
	return c
}

// Identity returns the two-point diagonal [(0,0), (1,1)].
func Identity() Curve {
	return Curve{points: []Point{{0, 0}, {1, 1}}}
}

// Diagonal returns the five-point diagonal an editor starts from.
func Diagonal() Curve {
	return Curve{points: []Point{{0, 0}, {0.25, 0.25}, {0.5, 0.5}, {0.75, 0.75}, {1, 1}}}
}

// Points returns a copy of the control points.
func (c Curve) Points() []Point {
	return slices.Clone(c.points)
}

// Len returns the number of control points.
func (c Curve) Len() int {
	return len(c.points)
}

// IsZero reports whether c is the zero Curve (no points).
func (c Curve) IsZero() bool {
	return len(c.points) == 0
}

// IsIdentity reports whether every control point lies on y = x and the curve
// spans the full [0, 1] domain.
func (c Curve) IsIdentity() bool {
	if len(c.points) < 2 || c.points[0].X != 0 || c.points[len(c.points)-1].X != 1 {
		return false
	}
	for _, p := range c.points {
		if p.X != p.Y {
			return false
		}
	}
	return true
}

// Evaluate maps x through the curve. x is clamped to [0, 1]; the first segment
// whose X range contains it is linearly interpolated. Inputs past the last
// point return the last Y, inputs before the first point return the first Y.
func (c Curve) Evaluate(x float64) float64 {
	if len(c.points) == 0 {
		return x
	}
	x = math.Max(0, math.Min(1, x))

	if x < c.points[0].X {
		return c.points[0].Y
	}
	for i := 0; i+1 < len(c.points); i++ {
		p0, p1 := c.points[i], c.points[i+1]
		if x >= p0.X && x <= p1.X {
			// Control points map to their own Y exactly.
			if x == p1.X {
				return p1.Y
			}
			t := (x - p0.X) / (p1.X - p0.X)
			return p0.Y + t*(p1.Y-p0.Y)
		}
	}
	return c.points[len(c.points)-1].Y
}

// With returns a copy of the curve with point i replaced.
func (c Curve) With(i int, p Point) (Curve, error) {
	if i < 0 || i >= len(c.points) {
		return Curve{}, fmt.Errorf("point index %d out of range [0, %d)", i, len(c.points))
	}
	pts := slices.Clone(c.points)
	pts[i] = p
	return New(pts...)
}

// Insert returns a copy of the curve with p added at its X position.
func (c Curve) Insert(p Point) (Curve, error) {
	i, found := slices.BinarySearchFunc(c.points, p.X, func(q Point, x float64) int {
		switch {
		case q.X < x:
			return -1
		case q.X > x:
			return 1
		}
		return 0
	})
	if found {
		return Curve{}, fmt.Errorf("point at x=%v already exists: %w", p.X, ErrNotIncreasing)
	}
	return New(slices.Insert(slices.Clone(c.points), i, p)...)
}

// Remove returns a copy of the curve without point i.
func (c Curve) Remove(i int) (Curve, error) {
	if i < 0 || i >= len(c.points) {
		return Curve{}, fmt.Errorf("point index %d out of range [0, %d)", i, len(c.points))
	}
	return New(slices.Delete(slices.Clone(c.points), i, i+1)...)
}

func (c Curve) String() string {
	return fmt.Sprint(c.points)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
