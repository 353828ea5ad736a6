package host

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/trigger-call/canon"
	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/invoke"
	"github.com/wippyai/trigger-call/value"
)

// instance is a running component. It is NOT safe for concurrent use;
// calls are serialized by mu.
type instance struct {
	mod     api.Module
	mem     *guestMemory
	alloc   *guestAllocator
	handles map[string]*funcHandle
	id      string
	mu      sync.Mutex
}

// funcHandle is the invoke.Handle of one export. A handle is issued once
// per export and instance.
type funcHandle struct {
	inst *instance
	fn   api.Function
	post api.Function
	name string
	sig  value.FuncType
}

func (h *funcHandle) Name() string { return h.name }

func newInstance(id string, mod api.Module) *instance {
	return &instance{
		id:      id,
		mod:     mod,
		mem:     &guestMemory{mem: mod.Memory()},
		alloc:   &guestAllocator{realloc: mod.ExportedFunction(CabiRealloc)},
		handles: make(map[string]*funcHandle),
	}
}

func (i *instance) closed() bool {
	return i.mod.IsClosed()
}

// handle looks up the export name and checks that its core signature is
// the flattening of the declared one.
func (i *instance) handle(name string, ft value.FuncType) (*funcHandle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if h, ok := i.handles[name]; ok {
		return h, nil
	}

	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.New(errors.PhaseInvoke, errors.KindNotFound).
			Detail("instance has no func export %q", name).
			Build()
	}

	core := canon.FlattenFunc(ft)
	def := fn.Definition()
	if !slices.Equal(def.ParamTypes(), core.Params) || !slices.Equal(def.ResultTypes(), core.Results) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Type(ft.String()).
			Detail("export %q has core type %s, want %s", name,
				coreString(def.ParamTypes(), def.ResultTypes()),
				coreString(core.Params, core.Results)).
			Build()
	}

	h := &funcHandle{
		inst: i,
		fn:   fn,
		post: i.mod.ExportedFunction(cabiPostPrefix + name),
		name: name,
		sig:  ft,
	}
	i.handles[name] = h
	return h, nil
}

func (i *instance) call(ctx context.Context, h *funcHandle, args []value.Value, results *invoke.Results) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.alloc.ctx = ctx
	defer func() { i.alloc.ctx = nil }()

	var alloc canon.Allocator
	if i.alloc.realloc != nil {
		alloc = i.alloc
	}
	lower := canon.NewLowerer(i.mem, alloc)
	flat, err := lower.LowerParams(h.sig, args)
	if err != nil {
		lower.Release()
		return err
	}

	log := Logger()
	start := time.Now()
	out, err := h.fn.Call(ctx, flat...)
	if err != nil {
		log.Debug("guest call failed",
			zap.String("component", i.id),
			zap.String("func", h.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}
	log.Debug("guest call returned",
		zap.String("component", i.id),
		zap.String("func", h.name),
		zap.Int("core_results", len(out)),
		zap.Duration("elapsed", time.Since(start)))

	vals, err := canon.NewLifter(i.mem).LiftResults(h.sig, out)
	if h.post != nil {
		if _, perr := h.post.Call(ctx, out...); perr != nil && err == nil {
			err = perr
		}
	}
	if err != nil {
		return err
	}

	if len(vals) != results.Len() {
		return errors.ProtocolViolation(h.name, "lifted %d results, caller expects %d", len(vals), results.Len())
	}
	for idx, v := range vals {
		if err := results.Set(idx, v); err != nil {
			return err
		}
	}
	return nil
}

func coreString(params, results []api.ValueType) string {
	var b strings.Builder
	b.WriteString("func(")
	for i, t := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(t))
	}
	b.WriteString(")")
	if len(results) > 0 {
		b.WriteString(" -> ")
		for i, t := range results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(api.ValueTypeName(t))
		}
	}
	return b.String()
}
