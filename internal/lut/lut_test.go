package lut

import (
	"bytes"
	"errors"
	"image"
	imgcolor "image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/curve"
	"github.com/jsvensson/lutforge/internal/grade"
)

func TestBake_Identity(t *testing.T) {
	p := grade.Identity()
	cube := Bake(&p)

	if cube.Size() != Size {
		t.Fatalf("Size() = %d, want %d", cube.Size(), Size)
	}
	for b := 0; b < Size; b++ {
		for g := 0; g < Size; g++ {
			for r := 0; r < Size; r++ {
				want := color.RGB{R: float64(r) / 15, G: float64(g) / 15, B: float64(b) / 15}
				if got := cube.At(r, g, b); !nearRGB(got, want, 1.0/255) {
					t.Fatalf("At(%d, %d, %d) = %v, want %v", r, g, b, got, want)
				}
			}
		}
	}
}

func TestBake_WorkerCountIndependent(t *testing.T) {
	p := grade.Identity()
	p.Contrast = 1.4
	p.Hue = 30
	p.Vibrancy = 0.3
	p.Gain = grade.Tone{Offset: grade.Offset{X: 0.4, Y: -0.2}, Strength: 0.7}
	p.Red = curve.MustNew(curve.Point{X: 0, Y: 0.1}, curve.Point{X: 0.5, Y: 0.6}, curve.Point{X: 1, Y: 1})
	p.Corrections = []grade.Correction{
		grade.NewCorrection("warm", color.RGB{R: 0.9, G: 0.5, B: 0.3}, 0.25, grade.Adjustment{HueShift: -10, Saturation: 0.2}),
	}

	want := Bake(&p, WithWorkers(1))
	for _, n := range []int{2, 3, 7, 16, 64} {
		got := Bake(&p, WithWorkers(n))
		for i := range want.cells {
			if got.cells[i] != want.cells[i] {
				t.Fatalf("workers=%d: cell %d = %v, want %v", n, i, got.cells[i], want.cells[i])
			}
		}
	}
}

func TestImage_Layout(t *testing.T) {
	cube := newCube(Size)
	cube.cells[cube.index(3, 5, 7)] = color.RGB{R: 1, G: 0.5, B: 0.2}

	img := cube.Image()
	if got := img.Bounds(); got != image.Rect(0, 0, Size*Size, Size) {
		t.Fatalf("Bounds() = %v, want 256x16", got)
	}
	got := img.NRGBAAt(7*Size+3, 5)
	want := imgcolor.NRGBA{R: 255, G: 128, B: 51, A: 255}
	if got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
	if a := img.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestEncodeRead_RoundTrip(t *testing.T) {
	p := grade.Identity()
	p.Saturation = 1.3
	p.Lift = grade.Tone{Offset: grade.Offset{X: -0.5, Y: 0.5}, Strength: 0.4}
	cube := Bake(&p)

	var buf bytes.Buffer
	if err := Encode(&buf, cube); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	for i, c := range cube.cells {
		if got, want := back.cells[i].Color(), c.Color(); got != want {
			t.Fatalf("cell %d = %v, want %v", i, got, want)
		}
	}
}

func TestDecode_SizeMismatch(t *testing.T) {
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 256, 15),
		image.Rect(0, 0, 64, 8),
		image.Rect(0, 0, 16, 256),
	} {
		_, err := Decode(image.NewNRGBA(r))
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("Decode(%v) error = %v, want ErrSizeMismatch", r, err)
		}
	}
}

func TestApply_IdentityCube(t *testing.T) {
	p := grade.Identity()
	cube := Bake(&p)

	img := randomImage(rand.New(rand.NewPCG(3, 7)), 37, 23)
	out, err := Apply(img, cube)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	for i := 0; i < len(img.Pix); i++ {
		// Quantizing to 16 levels moves a channel by at most half a step.
		d := int(out.Pix[i]) - int(img.Pix[i])
		if i%4 == 3 {
			if d != 0 {
				t.Fatalf("alpha at %d changed: %d -> %d", i, img.Pix[i], out.Pix[i])
			}
			continue
		}
		if d < -9 || d > 9 {
			t.Fatalf("channel at %d = %d, want near %d", i, out.Pix[i], img.Pix[i])
		}
	}
}

func TestApply_GridColorsExact(t *testing.T) {
	p := grade.Identity()
	cube := Bake(&p)

	img := image.NewNRGBA(image.Rect(0, 0, Size, 1))
	for x := 0; x < Size; x++ {
		v := uint8(x * 17)
		img.SetNRGBA(x, 0, imgcolor.NRGBA{R: v, G: v, B: 255 - v, A: uint8(x * 10)})
	}

	out, err := Apply(img, cube)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Errorf("identity cube changed grid colors:\n got %v\nwant %v", out.Pix, img.Pix)
	}
}

func TestApply_AlphaPassthrough(t *testing.T) {
	p := grade.Identity()
	p.Brightness = 0
	cube := Bake(&p)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x, a := range []uint8{0, 1, 128, 255} {
		img.SetNRGBA(x, 0, imgcolor.NRGBA{R: 200, G: 100, B: 50, A: a})
	}

	out, err := Apply(img, cube)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	for x, a := range []uint8{0, 1, 128, 255} {
		want := imgcolor.NRGBA{A: a}
		if got := out.NRGBAAt(x, 0); got != want {
			t.Errorf("pixel %d = %v, want %v", x, got, want)
		}
	}
}

func TestApply_WorkerCountIndependent(t *testing.T) {
	p := grade.Identity()
	p.CrossProcess = 0.8
	p.Hue = -40
	cube := Bake(&p)
	img := randomImage(rand.New(rand.NewPCG(5, 5)), 31, 41)

	want, err := Apply(img, cube, WithWorkers(1))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	for _, n := range []int{2, 4, 13, 100} {
		got, err := Apply(img, cube, WithWorkers(n))
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("workers=%d gave a different image", n)
		}
	}
}

func TestApply_DoesNotModifySource(t *testing.T) {
	p := grade.Identity()
	p.Hue = 90
	cube := Bake(&p)
	img := randomImage(rand.New(rand.NewPCG(8, 1)), 8, 8)
	before := bytes.Clone(img.Pix)

	if _, err := Apply(img, cube); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !bytes.Equal(img.Pix, before) {
		t.Error("Apply modified its input")
	}
}

func TestApply_ConvertsOtherImageTypes(t *testing.T) {
	p := grade.Identity()
	cube := Bake(&p)

	img := image.NewRGBA(image.Rect(2, 3, 6, 5))
	for y := 3; y < 5; y++ {
		for x := 2; x < 6; x++ {
			img.SetRGBA(x, y, imgcolor.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	out, err := Apply(img, cube)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if out.Bounds() != img.Bounds() {
		t.Errorf("Bounds() = %v, want %v", out.Bounds(), img.Bounds())
	}
	if got := out.NRGBAAt(5, 4); got != (imgcolor.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v, want opaque red", got)
	}
}

func TestApply_BadCube(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	tests := []struct {
		name string
		cube *Cube
	}{
		{"nil", nil},
		{"wrong size", newCube(8)},
		{"truncated", &Cube{size: Size, cells: make([]color.RGB, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Apply(img, tt.cube); !errors.Is(err, ErrSizeMismatch) {
				t.Errorf("Apply() error = %v, want ErrSizeMismatch", err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	p := grade.Identity()
	p.Hue = 120
	cube := Bake(&p)

	got := cube.Lookup(color.Color{R: 255})
	if want := (color.Color{G: 255}); got != want {
		t.Errorf("Lookup(red) = %v, want %v", got, want)
	}
}

// nearRGB reports whether every channel of a and b differs by at most tol.
func nearRGB(a, b color.RGB, tol float64) bool {
	return math.Abs(a.R-b.R) <= tol && math.Abs(a.G-b.G) <= tol && math.Abs(a.B-b.B) <= tol
}

func randomImage(rng *rand.Rand, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}
