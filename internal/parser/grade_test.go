package parser

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/curve"
	"github.com/jsvensson/lutforge/internal/grade"
)

const sampleGrade = `
meta {
  name        = "Teal and orange"
  author      = "Test Author"
  description = "warm skin, cool shadows"
}

palette {
  skin = "#e0ac69"
  sky {
    color = "#87ceeb"
    deep  = darken(palette.sky.color, 0.2)
  }
}

global {
  exposure      = 0.25
  contrast      = 1.1
  vibrancy      = 0.2
  cross_process = 0.5
}

split_tone {
  lift {
    x = 0.1
    y = -0.05
  }
  gain {
    x        = -0.1
    y        = 0.05
    strength = 0.5
  }
}

curves {
  red  = [[0, 0], [0.5, 0.55], [1, 1]]
  blue = [[0, 0.05], [1, 0.95]]
}

correction "skin" {
  target           = palette.skin
  tolerance        = 0.25
  hue_shift        = -5
  saturation_shift = 0.1
  brightness_shift = 0.05
}

correction "sky" {
  enabled   = false
  target    = palette.sky
  tolerance = 0.3
  value_shift = -0.2
}
`

var paramsCmp = []cmp.Option{
	cmp.Comparer(func(a, b curve.Curve) bool { return slices.Equal(a.Points(), b.Points()) }),
	cmpopts.IgnoreFields(grade.Correction{}, "ID"),
}

func writeTempGrade(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "look.grade")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_Sample(t *testing.T) {
	res, err := Parse(writeTempGrade(t, sampleGrade))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	wantMeta := Meta{Name: "Teal and orange", Author: "Test Author", Description: "warm skin, cool shadows"}
	if diff := cmp.Diff(wantMeta, res.Meta); diff != "" {
		t.Errorf("Meta mismatch (-want +got):\n%s", diff)
	}

	skin := color.Color{R: 0xe0, G: 0xac, B: 0x69}
	sky := color.Color{R: 0x87, G: 0xce, B: 0xeb}

	want := grade.Identity()
	want.Exposure = 0.25
	want.Contrast = 1.1
	want.Vibrancy = 0.2
	want.CrossProcess = 0.5
	want.Lift = grade.Tone{Offset: grade.Offset{X: 0.1, Y: -0.05}, Strength: 1}
	want.Gain = grade.Tone{Offset: grade.Offset{X: -0.1, Y: 0.05}, Strength: 0.5}
	want.Red = curve.MustNew(curve.Point{X: 0, Y: 0}, curve.Point{X: 0.5, Y: 0.55}, curve.Point{X: 1, Y: 1})
	want.Blue = curve.MustNew(curve.Point{X: 0, Y: 0.05}, curve.Point{X: 1, Y: 0.95})
	want.Corrections = []grade.Correction{
		{
			Name:       "skin",
			Enabled:    true,
			Target:     skin.Float(),
			Tolerance:  0.25,
			Adjustment: grade.Adjustment{HueShift: -5, Saturation: 0.1, Brightness: 0.05},
		},
		{
			Name:       "sky",
			Enabled:    false,
			Target:     sky.Float(),
			Tolerance:  0.3,
			Adjustment: grade.Adjustment{Value: -0.2},
		},
	}

	if diff := cmp.Diff(want, res.Params, paramsCmp...); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}

	if res.Params.Corrections[0].ID == "" {
		t.Error("correction has no identity token")
	}
	if _, err := res.Palette.Lookup([]string{"sky", "deep"}); err != nil {
		t.Errorf("Lookup(sky.deep) error: %v", err)
	}
}

func TestParse_EmptyIsIdentity(t *testing.T) {
	res, err := ParseSource([]byte(""), "empty.grade")
	if err != nil {
		t.Fatalf("ParseSource() error: %v", err)
	}
	if diff := cmp.Diff(grade.Identity(), res.Params, paramsCmp...); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	if res.Palette == nil {
		t.Error("Palette should be an empty tree, not nil")
	}
}

func TestParse_TargetForms(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"hex literal", `"#ff0000"`, "#ff0000"},
		{"palette leaf", `palette.skin`, "#e0ac69"},
		{"palette group color", `palette.sky`, "#87ceeb"},
		{"function", `darken("#ff0000", 0.1)`, "#cc0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `
palette {
  skin = "#e0ac69"
  sky {
    color = "#87ceeb"
  }
}
correction "k" {
  target    = ` + tt.target + `
  tolerance = 0.2
}
`
			res, err := ParseSource([]byte(src), "t.grade")
			if err != nil {
				t.Fatalf("ParseSource() error: %v", err)
			}
			if got := res.Params.Corrections[0].Target.Color().Hex(); got != tt.want {
				t.Errorf("target = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     `global {`,
			wantErr: "parsing HCL",
		},
		{
			name:    "bad palette color",
			src:     `palette { bad = "not-a-color" }`,
			wantErr: "parsing palette",
		},
		{
			name:    "unknown block",
			src:     `grading {}`,
			wantErr: "decoding",
		},
		{
			name:    "unknown attribute",
			src:     "global {\n  exposur = 1\n}",
			wantErr: "exposur",
		},
		{
			name:    "unknown palette reference",
			src:     "correction \"k\" {\n  target = palette.missing\n  tolerance = 0.2\n}",
			wantErr: "evaluating target",
		},
		{
			name:    "group without color",
			src:     "palette {\n  g {\n    a = \"#000000\"\n  }\n}\ncorrection \"k\" {\n  target = palette.g\n  tolerance = 0.2\n}",
			wantErr: "no color attribute",
		},
		{
			name:    "missing tolerance",
			src:     "correction \"k\" {\n  target = \"#ff0000\"\n}",
			wantErr: "tolerance",
		},
		{
			name:    "curve point arity",
			src:     "curves {\n  red = [[0, 0, 0], [1, 1]]\n}",
			wantErr: "curves.red: point 0",
		},
		{
			name:    "out of range vibrancy",
			src:     "global {\n  vibrancy = 2\n}",
			wantErr: "vibrancy",
		},
		{
			name:    "out of range hue shift",
			src:     "correction \"k\" {\n  target = \"#ff0000\"\n  tolerance = 0.2\n  hue_shift = 270\n}",
			wantErr: "hue_shift",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource([]byte(tt.src), "t.grade")
			if err == nil {
				t.Fatalf("ParseSource() = nil error, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseSource() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_CurveSentinels(t *testing.T) {
	tests := []struct {
		name string
		pts  string
		want error
	}{
		{"single point", "[[0, 0]]", curve.ErrTooFewPoints},
		{"decreasing", "[[0.5, 0], [0.2, 1]]", curve.ErrNotIncreasing},
		{"duplicate x", "[[0, 0], [0, 1]]", curve.ErrNotIncreasing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource([]byte("curves {\n  green = "+tt.pts+"\n}"), "t.grade")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.grade"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Parse() error = %v, want os.ErrNotExist", err)
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	src := `
correction "b" {
  target    = "#00ff00"
  tolerance = 0.1
}
correction "a" {
  target    = "#ff0000"
  tolerance = 0.1
}
correction "c" {
  target    = "#0000ff"
  tolerance = 0.1
}
`
	res, err := ParseSource([]byte(src), "t.grade")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, k := range res.Params.Corrections {
		names = append(names, k.Name)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, names); diff != "" {
		t.Errorf("correction order (-want +got):\n%s", diff)
	}
}
