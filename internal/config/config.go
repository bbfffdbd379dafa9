// Package config loads the optional lutforge.hcl tool configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "lutforge.hcl"

// Config holds tool settings. Command-line flags override every field.
type Config struct {
	Output Output
	Apply  Apply
	Log    Log
}

// Output controls where results are written.
type Output struct {
	Dir string // directory for graded images
	LUT string // file name of the baked table inside Dir
}

// Apply tunes batch grading.
type Apply struct {
	Workers   int // 0 means one per CPU
	MaxWidth  int // 0 means no limit
	MaxHeight int
	Suffix    string // appended to graded file names before the extension
}

// Log configures commonlog.
type Log struct {
	Verbosity int
	File      string // empty means stderr
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Output: Output{Dir: "graded", LUT: "lut.png"},
	}
}

// Load parses an HCL config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	src, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return cfg, fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	body := file.Body.(*hclsyntax.Body)
	if len(body.Attributes) > 0 {
		names := make([]string, 0, len(body.Attributes))
		for name := range body.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		return cfg, fmt.Errorf("unexpected top-level attribute %q", names[0])
	}

	for _, block := range body.Blocks {
		var fields map[string]any
		switch block.Type {
		case "output":
			fields = map[string]any{"dir": &cfg.Output.Dir, "lut": &cfg.Output.LUT}
		case "apply":
			fields = map[string]any{
				"workers":    &cfg.Apply.Workers,
				"max_width":  &cfg.Apply.MaxWidth,
				"max_height": &cfg.Apply.MaxHeight,
				"suffix":     &cfg.Apply.Suffix,
			}
		case "log":
			fields = map[string]any{"verbosity": &cfg.Log.Verbosity, "file": &cfg.Log.File}
		default:
			return cfg, fmt.Errorf("unknown block %q (valid: output, apply, log)", block.Type)
		}
		if err := decodeBlock(block, fields); err != nil {
			return cfg, err
		}
	}

	if cfg.Apply.Workers < 0 || cfg.Apply.MaxWidth < 0 || cfg.Apply.MaxHeight < 0 {
		return cfg, fmt.Errorf("apply: workers, max_width and max_height must not be negative")
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func decodeBlock(block *hclsyntax.Block, fields map[string]any) error {
	if len(block.Body.Blocks) > 0 {
		return fmt.Errorf("%s: nested blocks are not allowed", block.Type)
	}
	for name, attr := range block.Body.Attributes {
		dst, ok := fields[name]
		if !ok {
			return fmt.Errorf("%s: unknown attribute %q", block.Type, name)
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("evaluating %s.%s: %s", block.Type, name, diags.Error())
		}
		if err := gocty.FromCtyValue(val, dst); err != nil {
			return fmt.Errorf("%s.%s: %w", block.Type, name, err)
		}
	}
	return nil
}
