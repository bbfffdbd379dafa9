package main

import (
	"io"
	"os"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// swatcher renders small color blocks when writing to a color terminal.
type swatcher struct {
	out *termenv.Output
}

func newSwatcher(w io.Writer) swatcher {
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return swatcher{}
	}
	out := termenv.NewOutput(f)
	if out.Profile == termenv.Ascii {
		return swatcher{}
	}
	return swatcher{out: out}
}

// swatch returns a two-cell block in c followed by a space, or nothing when
// the output is not a color terminal.
func (s swatcher) swatch(c color.Color) string {
	if s.out == nil {
		return ""
	}
	return s.out.String("  ").Background(s.out.Color(c.Hex())).String() + " "
}
