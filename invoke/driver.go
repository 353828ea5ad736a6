package invoke

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

// Driver performs calls against a Host and enforces the result contract:
// a successful call must leave every result slot written with a value of
// the declared type.
type Driver struct {
	host  Host
	slots sync.Map // Handle -> chan struct{}
}

// NewDriver creates a driver for host.
func NewDriver(host Host) *Driver {
	return &Driver{host: host}
}

// Invoke calls h with args and returns one value per entry of resultTypes.
// Host errors, including cancellation of ctx, fail with host_failure. A
// call that succeeds but leaves a slot unwritten, ill-typed or written
// more than once fails with protocol_violation.
func (d *Driver) Invoke(ctx context.Context, h Handle, args []value.Value, resultTypes []value.Type) ([]value.Value, error) {
	name := h.Name()

	release, err := d.acquire(ctx, h)
	if err != nil {
		return nil, errors.HostFailure(name, err)
	}
	defer release()

	log := Logger()
	log.Debug("invoke start",
		zap.String("func", name),
		zap.Int("args", len(args)),
		zap.Int("results", len(resultTypes)))
	start := time.Now()

	results := NewResults(resultTypes)
	if err := d.host.Call(ctx, h, args, results); err != nil {
		log.Debug("invoke failed",
			zap.String("func", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, errors.HostFailure(name, err)
	}

	if err := results.Err(); err != nil {
		return nil, errors.ProtocolViolation(name, "%v", err)
	}
	out := make([]value.Value, len(resultTypes))
	for i, t := range resultTypes {
		v, ok := results.Get(i)
		if !ok {
			return nil, errors.ProtocolViolation(name, "result %d of %d was not written", i, len(resultTypes))
		}
		if err := value.Check(v, t); err != nil {
			return nil, errors.ProtocolViolation(name, "result %d: %v", i, err)
		}
		out[i] = v
	}

	log.Debug("invoke done",
		zap.String("func", name),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// acquire serializes calls on h unless the host accepts concurrent calls.
func (d *Driver) acquire(ctx context.Context, h Handle) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ch, ok := d.host.(ConcurrentHost); ok && ch.Concurrent() {
		return func() {}, nil
	}

	v, _ := d.slots.LoadOrStore(h, make(chan struct{}, 1))
	slot := v.(chan struct{})
	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
