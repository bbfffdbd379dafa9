// Package format rewrites grade files into canonical style.
package format

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

var multipleBlankLines = regexp.MustCompile(`\n{3,}`)
var blankLineAfterOpenBrace = regexp.MustCompile(`\{\n\s*\n`)
var blankLineBeforeCloseBrace = regexp.MustCompile(`\n\s*\n(\s*\})`)

// attributeOrder lists the canonical attribute order per block path. Global
// attributes follow the order the pipeline applies them in.
var attributeOrder = map[string][]string{
	"meta":             {"name", "author", "description"},
	"global":           {"exposure", "brightness", "contrast", "hue", "saturation", "value", "vibrancy", "cross_process"},
	"split_tone.lift":  {"x", "y", "strength"},
	"split_tone.gamma": {"x", "y", "strength"},
	"split_tone.gain":  {"x", "y", "strength"},
	"curves":           {"red", "green", "blue"},
	"correction":       {"enabled", "target", "tolerance", "hue_shift", "saturation_shift", "value_shift", "brightness_shift"},
}

// Format takes grade source and returns it in canonical style: hclwrite
// spacing and alignment, no runs of blank lines, no blank lines hugging
// braces, and known attributes in canonical order.
//
// Formatting works on partial or invalid HCL; attribute ordering is skipped
// until the source parses.
func Format(content string) (string, error) {
	out := tidy(hclwrite.Format([]byte(content)))
	if reordered, ok := reorder(out); ok {
		out = tidy(hclwrite.Format([]byte(reordered)))
	}
	return out, nil
}

func tidy(src []byte) string {
	// Collapse multiple consecutive blank lines into a single blank line.
	s := multipleBlankLines.ReplaceAllString(string(src), "\n\n")
	s = blankLineAfterOpenBrace.ReplaceAllString(s, "{\n")
	return blankLineBeforeCloseBrace.ReplaceAllString(s, "\n${1}")
}

// File formats the file at path. It reports whether the content changed and
// writes the result back unless check is set.
func File(path string, check bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	formatted, err := Format(string(data))
	if err != nil {
		return false, fmt.Errorf("formatting %s: %w", path, err)
	}
	if formatted == string(data) {
		return false, nil
	}
	if !check {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return true, fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return true, nil
}

// reorder sorts attributes of known blocks into canonical order. Only blocks
// laid out one attribute per line, with no blank lines and no nested blocks,
// are touched; a comment directly above an attribute moves with it.
func reorder(src string) (string, bool) {
	file, diags := hclsyntax.ParseConfig([]byte(src), "format.grade", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return "", false
	}
	lines := strings.Split(src, "\n")
	changed := false
	for _, block := range file.Body.(*hclsyntax.Body).Blocks {
		if reorderBlock(lines, block, block.Type) {
			changed = true
		}
	}
	if !changed {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

type chunk struct {
	name  string
	lines []string
}

func reorderBlock(lines []string, block *hclsyntax.Block, path string) bool {
	if len(block.Body.Blocks) > 0 {
		changed := false
		for _, b := range block.Body.Blocks {
			if reorderBlock(lines, b, path+"."+b.Type) {
				changed = true
			}
		}
		return changed
	}

	order, ok := attributeOrder[path]
	if !ok {
		return false
	}
	first := block.OpenBraceRange.Start.Line // 1-based; content starts on the next line
	last := block.CloseBraceRange.Start.Line - 2
	if last < first {
		return false
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(block.Body.Attributes))
	for _, a := range block.Body.Attributes {
		attrs = append(attrs, a)
	}
	slices.SortFunc(attrs, func(a, b *hclsyntax.Attribute) int {
		return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
	})

	var chunks []chunk
	next := first
	for _, a := range attrs {
		start, end := a.SrcRange.Start.Line-1, a.SrcRange.End.Line-1
		if start < next {
			return false // two attributes share a line
		}
		for i := next; i < start; i++ {
			t := strings.TrimSpace(lines[i])
			if !strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "//") {
				return false
			}
		}
		chunks = append(chunks, chunk{name: a.Name, lines: slices.Clone(lines[next : end+1])})
		next = end + 1
	}
	if next != last+1 {
		return false // trailing comments or blank lines
	}

	rank := func(name string) int {
		if i := slices.Index(order, name); i >= 0 {
			return i
		}
		return len(order)
	}
	sorted := slices.Clone(chunks)
	slices.SortStableFunc(sorted, func(a, b chunk) int { return rank(a.name) - rank(b.name) })

	changed := false
	i := first
	for k, c := range sorted {
		if c.name != chunks[k].name {
			changed = true
		}
		for _, l := range c.lines {
			lines[i] = l
			i++
		}
	}
	return changed
}
