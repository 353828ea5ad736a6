package token

import (
	"errors"
	"testing"

	cerrors "github.com/wippyai/trigger-call/errors"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		types  []Type
		values []string
	}{
		{"empty", "", []Type{EOF}, []string{""}},
		{"punct", "()[]{},:", []Type{LParen, RParen, LBracket, RBracket, LBrace, RBrace, Comma, Colon, EOF}, nil},
		{"numbers", "1 -2 3.5 1e10 -1.5E-3 255u8 -1s32 2.5f32",
			[]Type{Number, Number, Number, Number, Number, Number, Number, Number, EOF},
			[]string{"1", "-2", "3.5", "1e10", "-1.5E-3", "255u8", "-1s32", "2.5f32", ""}},
		{"infinity", "-inf inf nan",
			[]Type{Number, Label, Label, EOF},
			[]string{"-inf", "inf", "nan", ""}},
		{"labels", "some none my-case %true",
			[]Type{Label, Label, Label, Label, EOF},
			[]string{"some", "none", "my-case", "true", ""}},
		{"string escapes", `"a\"b\\c\n\u{1F600}"`, []Type{String, EOF}, []string{"a\"b\\c\n\U0001F600", ""}},
		{"chars", `'x' '\'' '\u{41}' 'é'`, []Type{Char, Char, Char, Char, EOF}, []string{"x", "'", "A", "é", ""}},
		{"record", `{a: 1, b: "x"}`,
			[]Type{LBrace, Label, Colon, Number, Comma, Label, Colon, String, RBrace, EOF}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, 0)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if len(tokens) != len(tt.types) {
				t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(tt.types), tokens)
			}
			for i, tok := range tokens {
				if tok.Type != tt.types[i] {
					t.Errorf("token %d type = %v, want %v", i, tok.Type, tt.types[i])
				}
				if tt.values != nil && tok.Value != tt.values[i] {
					t.Errorf("token %d value = %q, want %q", i, tok.Value, tt.values[i])
				}
			}
		})
	}
}

func TestTokenize_Escaped(t *testing.T) {
	tokens, err := Tokenize("%none none", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !tokens[0].Escaped || tokens[0].Value != "none" || tokens[0].Raw != "%none" {
		t.Errorf("escaped label = %+v", tokens[0])
	}
	if tokens[1].Escaped {
		t.Errorf("plain label marked escaped")
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize(`  [1, "ab"]`, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{12, 13, 14, 16, 20, 21}
	for i, tok := range tokens {
		if tok.Pos != want[i] {
			t.Errorf("token %d pos = %d, want %d", i, tok.Pos, want[i])
		}
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"unterminated char", `'a`},
		{"two char literal", `'ab'`},
		{"empty char literal", `''`},
		{"bad escape", `"\q"`},
		{"surrogate escape", `"\u{D800}"`},
		{"bad suffix", `12abc`},
		{"lone minus", `-`},
		{"dangling dot", `1.`},
		{"bad exponent", `1e`},
		{"stray character", `1 ; 2`},
		{"lone percent", `%1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input, 0)
			if err == nil {
				t.Fatalf("Tokenize(%q) succeeded, want error", tt.input)
			}
			if !errors.Is(err, cerrors.ErrSyntax) {
				t.Errorf("error %v is not a syntax error", err)
			}
		})
	}
}

func TestSplitSuffix(t *testing.T) {
	tests := []struct {
		lit, digits, suffix string
	}{
		{"255u8", "255", "u8"},
		{"-1s64", "-1", "s64"},
		{"1.5f32", "1.5", "f32"},
		{"42", "42", ""},
	}
	for _, tt := range tests {
		d, s := SplitSuffix(tt.lit)
		if d != tt.digits || s != tt.suffix {
			t.Errorf("SplitSuffix(%q) = %q, %q; want %q, %q", tt.lit, d, s, tt.digits, tt.suffix)
		}
	}
}
