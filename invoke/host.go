package invoke

import (
	"context"

	"github.com/wippyai/trigger-call/value"
)

// Handle identifies one callable export of a prepared component instance.
// Handles must be comparable; the driver keys per-handle state on them.
type Handle interface {
	// Name is the export name, used in errors and logs.
	Name() string
}

// Host is the capability the bridge needs from a component runtime.
type Host interface {
	// FuncType returns the declared signature of an export.
	FuncType(componentID, name string) (value.FuncType, error)

	// Handle prepares the component instance and returns a handle to the
	// named export.
	Handle(ctx context.Context, componentID, name string) (Handle, error)

	// Call invokes the export. On success every slot of results must have
	// been written exactly once through results.Set.
	Call(ctx context.Context, h Handle, args []value.Value, results *Results) error
}

// ConcurrentHost is implemented by hosts that accept overlapping calls on
// the same handle. Calls to other hosts are serialized per handle.
type ConcurrentHost interface {
	Host
	Concurrent() bool
}
