package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/trigger-call/config"
	"github.com/wippyai/trigger-call/internal/wasmtest"
)

// writeProject lays out a manifest with one component exporting add.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	i32 := api.ValueTypeI32
	wasm := wasmtest.New().
		Memory(1).
		Func("add", []api.ValueType{i32, i32}, []api.ValueType{i32}, nil,
			wasmtest.LocalGet(0), wasmtest.LocalGet(1), wasmtest.I32Add()).
		Bytes()

	files := map[string]string{
		"calc.wasm": string(wasm),
		"calc.wit":  "world calc { export add: func(x: u32, y: u32) -> u32; }",
		config.DefaultFile: `
[[component]]
id = "calc"
source = "calc.wasm"
wit = "calc.wit"

[[trigger.call]]
component = "calc"
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, config.DefaultFile)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCall(t *testing.T) {
	manifest := writeProject(t)

	out, err := execute(t, "--manifest", manifest, "add(2, 3)")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "add(2, 3) -> 5\n" {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "-m", manifest, "--id", "calc", "--call", "add(1u32, 1)")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "add(1, 1) -> 2\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCall_Errors(t *testing.T) {
	manifest := writeProject(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"arity", []string{"-m", manifest, "add(1)"}, "arity"},
		{"overflow", []string{"-m", manifest, "add(1, -1)"}, "overflow"},
		{"unknown export", []string{"-m", manifest, "sub(1, 2)"}, "not_found"},
		{"unknown component", []string{"-m", manifest, "--id", "nope", "add(1, 2)"}, `component "nope"`},
		{"nothing to call", []string{"-m", manifest}, "nothing to call"},
		{"call twice", []string{"-m", manifest, "-c", "add(1, 2)", "add(1, 2)"}, "both"},
		{"missing manifest", []string{"-m", filepath.Join(t.TempDir(), "none.toml")}, "read manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err == nil {
				t.Fatalf("expected error, output %q", out)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if out != "" {
				t.Errorf("unexpected output %q", out)
			}
		})
	}
}

func TestList(t *testing.T) {
	out, err := execute(t, "-m", writeProject(t), "--list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "add: func(x: u32, y: u32) -> u32") {
		t.Errorf("list output = %q", out)
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv(logEnv, "debug")
	log, err := newLogger(os.Stderr)
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}

	t.Setenv(logEnv, "")
	log, err = newLogger(os.Stderr)
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) || !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("default level should be warn")
	}

	t.Setenv(logEnv, "chatty")
	if _, err := newLogger(os.Stderr); err == nil {
		t.Error("invalid level accepted")
	}
}

func TestInteractiveModel(t *testing.T) {
	ctx := context.Background()
	m, err := config.Load(writeProject(t))
	if err != nil {
		t.Fatal(err)
	}
	rt, err := loadComponent(ctx, m, "calc")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)

	model, err := newInteractiveModel(ctx, rt, "calc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(model.View(), "add") {
		t.Errorf("view does not list add:\n%s", model.View())
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateInputArgs || len(model.inputs) != 2 {
		t.Fatalf("state = %d, inputs = %d", model.state, len(model.inputs))
	}
	model.inputs[0].SetValue("40, 2")
	model.inputs[1].SetValue("")
	if msg, ok := model.callFunction().(callResultMsg); !ok || msg.err == nil || !strings.HasPrefix(msg.err.Error(), "x: ") {
		t.Fatalf("fields spilling into each other were accepted: %+v", msg)
	}

	model.inputs[0].SetValue("40")
	model.inputs[1].SetValue(" 2 ")
	if got := model.callText(); got != "add(40, 2)" {
		t.Errorf("callText = %q", got)
	}

	msg := model.callFunction()
	model.Update(msg)
	if model.state != stateShowResult || model.err != nil {
		t.Fatalf("state = %d, err = %v", model.state, model.err)
	}
	if model.result != "add(40, 2) -> 42" {
		t.Errorf("result = %q", model.result)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if model.state != stateInputArgs || model.callText() != "add(40, 2)" {
		t.Fatalf("r did not reopen the form: state = %d, call %q", model.state, model.callText())
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.state != stateSelectFunc {
		t.Errorf("esc did not return to the function list")
	}
	if len(model.history) != 1 || !strings.Contains(model.View(), "Recent calls") {
		t.Errorf("history = %q", model.history)
	}
}
