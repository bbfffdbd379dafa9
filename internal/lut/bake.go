package lut

import (
	"runtime"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/grade"
	"golang.org/x/sync/errgroup"
)

// Options tunes how Bake and Apply spread work. Results never depend on them.
type Options struct {
	// Workers caps the number of goroutines; values below 1 mean GOMAXPROCS.
	Workers int
}

// Option mutates Options.
type Option func(*Options)

// WithWorkers sets the worker limit.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Bake runs every cell of a Size³ grid through the grading pipeline. Cells are
// independent, so the work is split by blue slice across workers; the result
// is identical for any worker count.
func Bake(p *grade.Params, opts ...Option) *Cube {
	o := buildOptions(opts)
	cube := newCube(Size)

	var g errgroup.Group
	g.SetLimit(o.Workers)
	for b := 0; b < Size; b++ {
		g.Go(func() error {
			bakeSlice(cube, p, b)
			return nil
		})
	}
	_ = g.Wait() // slices never fail

	return cube
}

// bakeSlice fills the cells of one blue slice. Each call writes a disjoint
// range of cube.cells.
func bakeSlice(cube *Cube, p *grade.Params, b int) {
	last := float64(cube.size - 1)
	for g := 0; g < cube.size; g++ {
		for r := 0; r < cube.size; r++ {
			in := color.RGB{R: float64(r) / last, G: float64(g) / last, B: float64(b) / last}
			cube.cells[cube.index(r, g, b)] = grade.Apply(in, p)
		}
	}
}
