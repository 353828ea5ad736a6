package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindMalformed,
				Path:   []string{"user", "tags", "[2]"},
				Type:   "string",
				Detail: "expected a string literal",
				Offset: -1,
			},
			contains: []string{"[decode]", "malformed", "user.tags[2]", "string", "expected a string literal"},
		},
		{
			name:     "minimal error",
			err:      &Error{Phase: PhaseInvoke, Kind: KindHostFailure, Offset: -1},
			contains: []string{"[invoke]", "host_failure"},
		},
		{
			name:     "syntax with offset",
			err:      Syntax(7, "expected %q", ")"),
			contains: []string{"[parse]", "syntax", "offset 7", `expected ")"`},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseInvoke,
				Kind:   KindHostFailure,
				Detail: "call add",
				Cause:  errors.New("wasm trap: unreachable"),
				Offset: -1,
			},
			contains: []string{"[invoke]", "call add", "caused by", "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := HostFailure("add", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		err    error
		target error
		name   string
		want   bool
	}{
		{Overflow([]string{"x"}, "256", "u8"), ErrOverflow, "overflow", true},
		{Overflow(nil, "256", "u8"), ErrMalformed, "overflow is not malformed", false},
		{UnknownCase(nil, "bogus", "variant"), ErrUnknownCase, "unknown case", true},
		{Malformed(nil, "bool", "expected bool"), ErrMalformed, "malformed", true},
		{Arity("add", 2, 1), ErrArity, "arity", true},
		{Syntax(0, "eof"), ErrSyntax, "syntax", true},
		{HostFailure("f", nil), ErrHostFailure, "host failure", true},
		{ProtocolViolation("f", "slot %d unwritten", 0), ErrProtocolViolation, "protocol violation", true},
		{ProtocolViolation("f", "x"), ErrHostFailure, "violation is not failure", false},
		{errors.New("plain"), ErrSyntax, "plain error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Arity(t *testing.T) {
	err := Arity("add", 2, 1)
	got, ok := err.Arity()
	if !ok {
		t.Fatal("Arity() reported no arity data")
	}
	if got.Expected != 2 || got.Actual != 1 {
		t.Errorf("Arity() = %+v, want {Expected:2 Actual:1}", got)
	}

	var target *Error
	if !errors.As(error(err), &target) {
		t.Fatal("errors.As failed")
	}
	if _, ok := Malformed(nil, "u8", "x").Arity(); ok {
		t.Error("malformed error should not carry arity")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("inner")
	err := New(PhaseDecode, KindMalformed).
		Path("rec", "field").
		Type("u32").
		Value("abc").
		Cause(cause).
		Detail("bad %s", "number").
		Build()

	if err.Phase != PhaseDecode || err.Kind != KindMalformed {
		t.Errorf("phase/kind = %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != "bad number" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Offset != -1 {
		t.Errorf("Offset = %d, want -1", err.Offset)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
	if err.Value != "abc" {
		t.Errorf("Value = %v", err.Value)
	}
}
