package lsp

import (
	"reflect"
	"testing"
)

func TestEncodeTokens_Empty(t *testing.T) {
	result := encodeTokens([]SemanticToken{})
	expected := []uint32{}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens([]) = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_SingleToken(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 2, StartChar: 5, Length: 7, Type: 0, Modifiers: 0},
	}
	result := encodeTokens(tokens)
	expected := []uint32{2, 5, 7, 0, 0}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_MultipleTokensSameLine(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 7, Type: 0, Modifiers: 0}, // "palette"
		{Line: 0, StartChar: 8, Length: 4, Type: 1, Modifiers: 1}, // "base"
	}
	result := encodeTokens(tokens)
	// Second token: deltaLine=0, deltaStart=8-0=8
	expected := []uint32{0, 0, 7, 0, 0, 0, 8, 4, 1, 1}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_MultipleTokensDifferentLines(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 7, Type: 0, Modifiers: 0}, // line 0
		{Line: 2, StartChar: 2, Length: 4, Type: 1, Modifiers: 0}, // line 2
	}
	result := encodeTokens(tokens)
	// Second token: deltaLine=2-0=2, deltaStart=2 (new line, not relative)
	expected := []uint32{0, 0, 7, 0, 0, 2, 2, 4, 1, 0}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_SortsTokens(t *testing.T) {
	// Tokens in wrong order
	tokens := []SemanticToken{
		{Line: 1, StartChar: 0, Length: 4, Type: 1, Modifiers: 0},
		{Line: 0, StartChar: 0, Length: 7, Type: 0, Modifiers: 0},
	}
	result := encodeTokens(tokens)
	// Should be sorted: line 0 first, then line 1
	expected := []uint32{0, 0, 7, 0, 0, 1, 0, 4, 1, 0}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestSemanticTokensFull_Empty(t *testing.T) {
	content := ``
	result := semanticTokensFull(content)
	if len(result) != 0 {
		t.Errorf("semanticTokensFull(\"\") = %v, want empty", result)
	}
}

// decodeTokens reverses the delta encoding.
func decodeTokens(data []uint32) []SemanticToken {
	var tokens []SemanticToken
	var line, char uint32
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += data[i]
			char = data[i+1]
		} else {
			char += data[i+1]
		}
		tokens = append(tokens, SemanticToken{
			Line:      line,
			StartChar: char,
			Length:    data[i+2],
			Type:      data[i+3],
			Modifiers: data[i+4],
		})
	}
	return tokens
}

func TestSemanticTokensFull_SimplePalette(t *testing.T) {
	content := `palette {
  base = "#191724"
}`
	got := decodeTokens(semanticTokensFull(content))
	want := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 7, Type: tokenTypeIndices["keyword"]},
		{Line: 1, StartChar: 2, Length: 4, Type: tokenTypeIndices["property"], Modifiers: 1},
		{Line: 1, StartChar: 9, Length: 9, Type: tokenTypeIndices["string"]},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %+v, want %+v", got, want)
	}
}

func TestSemanticTokensFull_WithPaletteReference(t *testing.T) {
	content := `palette {
  base = "#191724"
}
correction "base" {
  target    = palette.base
  tolerance = 0.2
}`
	got := decodeTokens(semanticTokensFull(content))

	// palette, base, "#191724", correction, "base", target, palette, base,
	// tolerance, 0.2
	if len(got) != 10 {
		t.Fatalf("got %d tokens, want 10: %+v", len(got), got)
	}
	wantLine4 := []SemanticToken{
		{Line: 4, StartChar: 2, Length: 6, Type: tokenTypeIndices["property"], Modifiers: 1},
		{Line: 4, StartChar: 14, Length: 7, Type: tokenTypeIndices["namespace"]},
		{Line: 4, StartChar: 22, Length: 4, Type: tokenTypeIndices["property"]},
	}
	if !reflect.DeepEqual(got[5:8], wantLine4) {
		t.Errorf("line 4 tokens = %+v, want %+v", got[5:8], wantLine4)
	}
	label := got[4]
	if label.Line != 3 || label.StartChar != 11 || label.Length != 6 || label.Type != tokenTypeIndices["string"] {
		t.Errorf("label token = %+v", label)
	}
}

func TestSemanticTokensFull_WithFunction(t *testing.T) {
	content := `palette {
  base = "#191724"
  surface = brighten(palette.base, 0.1)
}`
	got := decodeTokens(semanticTokensFull(content))

	// palette, base, "#191724", surface, brighten, palette, base, 0.1
	if len(got) != 8 {
		t.Fatalf("got %d tokens, want 8: %+v", len(got), got)
	}
	if fn := got[4]; fn.Type != tokenTypeIndices["function"] || fn.Length != 8 {
		t.Errorf("function token = %+v", fn)
	}
}

func TestSemanticTokensFull_NumbersAndBools(t *testing.T) {
	content := `curves {
  red = [[0, 0], [1, 1]]
}
split_tone {
  lift {
    x = -0.25
  }
}
correction "a" {
  enabled = false
}`
	got := decodeTokens(semanticTokensFull(content))

	var numbers, keywords int
	for _, tok := range got {
		switch tok.Type {
		case tokenTypeIndices["number"]:
			numbers++
		case tokenTypeIndices["keyword"]:
			keywords++
		}
	}
	// Four curve coordinates plus the negative offset.
	if numbers != 5 {
		t.Errorf("got %d number tokens, want 5", numbers)
	}
	// curves, split_tone, lift, correction, false
	if keywords != 5 {
		t.Errorf("got %d keyword tokens, want 5", keywords)
	}

	neg := SemanticToken{Line: 5, StartChar: 8, Length: 5, Type: tokenTypeIndices["number"]}
	found := false
	for _, tok := range got {
		if tok == neg {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %+v for -0.25 in %+v", neg, got)
	}
}

func TestSemanticTokensFull_ParseError(t *testing.T) {
	content := `palette {`
	result := semanticTokensFull(content)
	if len(result) != 0 {
		t.Errorf("semanticTokensFull(parse error) = %v, want empty", result)
	}
}

func TestSemanticTokensFull_CompleteGrade(t *testing.T) {
	result := semanticTokensFull(validGrade)

	if len(result) == 0 {
		t.Fatal("semanticTokensFull() returned empty for a valid grade")
	}
	if len(result)%5 != 0 {
		t.Errorf("semantic tokens data length %d is not a multiple of 5", len(result))
	}

	// Tokens must be strictly ordered after decoding.
	tokens := decodeTokens(result)
	for i := 1; i < len(tokens); i++ {
		prev, cur := tokens[i-1], tokens[i]
		if cur.Line < prev.Line || cur.Line == prev.Line && cur.StartChar < prev.StartChar+prev.Length {
			t.Errorf("token %d %+v overlaps or precedes %+v", i, cur, prev)
		}
	}
}
