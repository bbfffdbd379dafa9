package palette

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/jsvensson/lutforge/internal/color"
	"github.com/zclconf/go-cty/cty"
)

func parseSrc(t *testing.T, src string) *hclsyntax.Body {
	t.Helper()
	file, diags := hclsyntax.ParseConfig([]byte(src), "test.grade", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		t.Fatalf("parse: %s", diags.Error())
	}
	for _, b := range file.Body.(*hclsyntax.Body).Blocks {
		if b.Type == "palette" {
			return b.Body
		}
	}
	t.Fatal("no palette block")
	return nil
}

func mustHex(t *testing.T, s string) color.Color {
	t.Helper()
	c, err := color.ParseHex(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNodeToCty_Leaf(t *testing.T) {
	c := mustHex(t, "#ff0000")
	val := NodeToCty(&color.Node{Color: &c})
	if val.Type() != cty.String {
		t.Fatalf("expected string, got %s", val.Type().FriendlyName())
	}
	if val.AsString() != "#ff0000" {
		t.Errorf("got %q, want %q", val.AsString(), "#ff0000")
	}
}

func TestNodeToCty_ColorAndChildren(t *testing.T) {
	sky := mustHex(t, "#87ceeb")
	deep := mustHex(t, "#2a6f8a")
	val := NodeToCty(&color.Node{
		Color:    &sky,
		Children: map[string]*color.Node{"deep": {Color: &deep}},
	})
	if !val.Type().IsObjectType() {
		t.Fatalf("expected object, got %s", val.Type().FriendlyName())
	}
	if got := val.GetAttr("color").AsString(); got != "#87ceeb" {
		t.Errorf("color = %q, want #87ceeb", got)
	}
	if got := val.GetAttr("deep").AsString(); got != "#2a6f8a" {
		t.Errorf("deep = %q, want #2a6f8a", got)
	}
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		name    string
		val     cty.Value
		want    string
		wantErr string
	}{
		{"string", cty.StringVal("#ff0000"), "#ff0000", ""},
		{"group with color", cty.ObjectVal(map[string]cty.Value{
			"color": cty.StringVal("#c0c0c0"),
			"low":   cty.StringVal("#21202e"),
		}), "#c0c0c0", ""},
		{"group without color", cty.ObjectVal(map[string]cty.Value{
			"low": cty.StringVal("#21202e"),
		}), "", "no color attribute"},
		{"number", cty.NumberIntVal(3), "", "expected color"},
		{"bad hex", cty.StringVal("#12"), "", "invalid hex"},
		{"null", cty.NullVal(cty.String), "", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColor(tt.val)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ResolveColor() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveColor() error: %v", err)
			}
			if got.Hex() != tt.want {
				t.Errorf("ResolveColor() = %s, want %s", got.Hex(), tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	body := parseSrc(t, `
palette {
  skin = "#e0ac69"
  sky {
    color = "#87ceeb"
    deep  = darken(palette.sky.color, 0.2)
  }
  warm = palette.skin
  hot  = brighten("#808080", 0.2)
}
`)

	var paths []string
	root, diags := Parse(body, func(e Entry) { paths = append(paths, e.Path) })
	if diags.HasErrors() {
		t.Fatalf("Parse() diagnostics: %s", diags.Error())
	}

	wantPaths := []string{"palette.skin", "palette.sky", "palette.sky.deep", "palette.warm", "palette.hot"}
	if diff := cmp.Diff(wantPaths, paths); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		path []string
		want string
	}{
		{[]string{"skin"}, "#e0ac69"},
		{[]string{"sky"}, "#87ceeb"},
		{[]string{"warm"}, "#e0ac69"},
		{[]string{"hot"}, "#b3b3b3"},
	}
	for _, tt := range tests {
		got, err := root.Lookup(tt.path)
		if err != nil {
			t.Errorf("Lookup(%v) error: %v", tt.path, err)
			continue
		}
		if got.Hex() != tt.want {
			t.Errorf("Lookup(%v) = %s, want %s", tt.path, got.Hex(), tt.want)
		}
	}

	deep, err := root.Lookup([]string{"sky", "deep"})
	if err != nil {
		t.Fatal(err)
	}
	if sky := mustHex(t, "#87ceeb"); deep == sky {
		t.Error("darken did not change the color")
	}
}

func TestParse_CollectsErrors(t *testing.T) {
	body := parseSrc(t, `
palette {
  early = palette.late
  bad   = "#zzzzzz"
  ok    = "#010203"
  late  = "#ffffff"
}
`)

	root, diags := Parse(body, nil)
	if got := len(diags.Errs()); got != 2 {
		t.Fatalf("got %d errors, want 2: %s", got, diags.Error())
	}
	if _, err := root.Lookup([]string{"ok"}); err != nil {
		t.Errorf("ok should still resolve: %v", err)
	}
	if _, err := root.Lookup([]string{"late"}); err != nil {
		t.Errorf("late should still resolve: %v", err)
	}
}

func TestFunctions(t *testing.T) {
	ctx := EvalContext(nil)
	tests := []struct {
		expr string
		want string
	}{
		{`darken("#ff0000", 0.1)`, "#cc0000"},
		{`brighten("#000000", 0.5)`, "#808080"},
		{`darken("#ffffff", 0.5)`, "#808080"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, diags := hclsyntax.ParseExpression([]byte(tt.expr), "expr", hcl.Pos{Line: 1, Column: 1})
			if diags.HasErrors() {
				t.Fatal(diags.Error())
			}
			val, diags := expr.Value(ctx)
			if diags.HasErrors() {
				t.Fatal(diags.Error())
			}
			if got := val.AsString(); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestFunctions_Lightness(t *testing.T) {
	expr, _ := hclsyntax.ParseExpression([]byte(`lightness("#eb6f92", 0.75)`), "expr", hcl.Pos{Line: 1, Column: 1})
	val, diags := expr.Value(EvalContext(nil))
	if diags.HasErrors() {
		t.Fatal(diags.Error())
	}
	c, err := ResolveColor(val)
	if err != nil {
		t.Fatal(err)
	}
	l, _, _ := c.OKLCH()
	if l < 0.72 || l > 0.78 {
		t.Errorf("lightness = %v, want about 0.75", l)
	}
}

func TestFunctionDocsMatchFunctions(t *testing.T) {
	fns := Functions()
	if len(FunctionDocs) != len(fns) {
		t.Fatalf("%d docs for %d functions", len(FunctionDocs), len(fns))
	}
	for _, d := range FunctionDocs {
		if _, ok := fns[d.Name]; !ok {
			t.Errorf("documented function %q not registered", d.Name)
		}
	}
}

func TestFunctions_AcceptGroup(t *testing.T) {
	red := color.Color{R: 255}
	root := &color.Node{Children: map[string]*color.Node{
		"accent": {Color: &red, Children: map[string]*color.Node{}},
		"empty":  {Children: map[string]*color.Node{}},
	}}
	ctx := EvalContext(root)

	expr, _ := hclsyntax.ParseExpression([]byte(`darken(palette.accent, 0.1)`), "expr", hcl.Pos{Line: 1, Column: 1})
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		t.Fatal(diags.Error())
	}
	if got := val.AsString(); got != "#cc0000" {
		t.Errorf("darken(palette.accent, 0.1) = %s, want #cc0000", got)
	}

	expr, _ = hclsyntax.ParseExpression([]byte(`darken(palette.empty, 0.1)`), "expr", hcl.Pos{Line: 1, Column: 1})
	if _, diags := expr.Value(ctx); !diags.HasErrors() {
		t.Error("expected an error for a group without a color")
	}
}
