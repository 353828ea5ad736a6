package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
	"github.com/wippyai/trigger-call/witsig"
)

// DefaultFile is the manifest name looked up when none is given.
const DefaultFile = "trigger-call.toml"

// MaxMemoryPages is the largest memory a 32-bit guest can address.
const MaxMemoryPages = 65536

// Manifest is the decoded trigger-call.toml.
type Manifest struct {
	Runtime    Runtime     `toml:"runtime"`
	Trigger    Trigger     `toml:"trigger"`
	Path       string      `toml:"-"`
	Dir        string      `toml:"-"`
	Components []Component `toml:"component"`
}

// Component declares one wasm module and where its signatures come from.
// Exactly one of WIT and Signatures is set.
type Component struct {
	// ID names the component in triggers and on the command line.
	ID string `toml:"id"`
	// Source is the path of the core wasm module.
	Source string `toml:"source"`
	// WIT is the path of a WIT file declaring the exports.
	WIT string `toml:"wit"`
	// Signatures is inline WIT text declaring the exports.
	Signatures string `toml:"signatures"`
}

// Runtime tunes the wasm runtime shared by all components.
type Runtime struct {
	// MemoryLimitPages caps guest linear memory in 64 KiB pages.
	// Zero keeps the runtime default.
	MemoryLimitPages uint32 `toml:"memory-limit-pages"`
}

// Trigger holds the trigger sections.
type Trigger struct {
	Call []CallTrigger `toml:"call"`
}

// CallTrigger binds the call trigger to a component.
type CallTrigger struct {
	Component string `toml:"component"`
}

// Load reads and validates the manifest at path. Relative paths inside the
// manifest are resolved against its directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read manifest "+path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "resolve manifest path")
	}
	m, err := Parse(string(data), filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	m.Path = abs
	return m, nil
}

// Parse decodes manifest text. dir is the base for relative paths.
// Unknown keys are rejected.
func Parse(data, dir string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(data, &m)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindSyntax, err, "failed to parse TOML")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown keys: %s", strings.Join(keys, ", ")).
			Build()
	}
	m.Dir = dir
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that component ids are unique, every component has a
// source and one signature source, and every trigger names a component.
func (m *Manifest) Validate() error {
	if len(m.Components) == 0 {
		return invalid("no [[component]] declared")
	}
	if m.Runtime.MemoryLimitPages > MaxMemoryPages {
		return invalid("runtime.memory-limit-pages %d exceeds %d", m.Runtime.MemoryLimitPages, MaxMemoryPages)
	}
	seen := make(map[string]bool, len(m.Components))
	for i, c := range m.Components {
		if strings.TrimSpace(c.ID) == "" {
			return invalid("component %d: missing id", i)
		}
		if seen[c.ID] {
			return invalid("component %q declared twice", c.ID)
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Source) == "" {
			return invalid("component %q: missing source", c.ID)
		}
		switch {
		case c.WIT == "" && c.Signatures == "":
			return invalid("component %q: one of wit or signatures is required", c.ID)
		case c.WIT != "" && c.Signatures != "":
			return invalid("component %q: wit and signatures are mutually exclusive", c.ID)
		}
	}
	for _, t := range m.Trigger.Call {
		if !seen[t.Component] {
			return invalid("trigger references unknown component %q", t.Component)
		}
	}
	return nil
}

// Component returns the component with the given id.
func (m *Manifest) Component(id string) (*Component, bool) {
	for i := range m.Components {
		if m.Components[i].ID == id {
			return &m.Components[i], true
		}
	}
	return nil, false
}

// DefaultComponent returns the component of the only call trigger, or the
// only component when no trigger is declared.
func (m *Manifest) DefaultComponent() (string, error) {
	switch {
	case len(m.Trigger.Call) == 1:
		return m.Trigger.Call[0].Component, nil
	case len(m.Trigger.Call) == 0 && len(m.Components) == 1:
		return m.Components[0].ID, nil
	}
	return "", invalid("several components are callable; choose one with --id")
}

// Resolve makes p absolute relative to the manifest directory.
func (m *Manifest) Resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, filepath.FromSlash(p))
}

// Wasm reads the module bytes of c.
func (m *Manifest) Wasm(c *Component) ([]byte, error) {
	path := m.Resolve(c.Source)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("component %q: read %s", c.ID, path), err)
	}
	return data, nil
}

// Signatures parses the declared exports of c.
func (m *Manifest) Signatures(c *Component) (map[string]value.FuncType, error) {
	text := c.Signatures
	if c.WIT != "" {
		path := m.Resolve(c.WIT)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Load(fmt.Sprintf("component %q: read %s", c.ID, path), err)
		}
		text = string(data)
	}
	sigs, err := witsig.ParseWIT(text)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err,
			fmt.Sprintf("component %q: signatures", c.ID))
	}
	return sigs, nil
}

func invalid(detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Detail(detail, args...).
		Build()
}
