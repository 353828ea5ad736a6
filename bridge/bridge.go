package bridge

import (
	"context"
	stderrors "errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/trigger-call/callexpr"
	"github.com/wippyai/trigger-call/codec"
	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/invoke"
	"github.com/wippyai/trigger-call/value"
)

// Outcome is the result of one successful call.
type Outcome struct {
	Name    string
	Args    []value.Value
	Results []value.Value
	// Line is the rendered "name(args) -> results" text.
	Line string
}

// Bridge turns call text into a typed invocation on a host.
type Bridge struct {
	host   invoke.Host
	driver *invoke.Driver
}

// New creates a bridge over host.
func New(host invoke.Host) *Bridge {
	return &Bridge{host: host, driver: invoke.NewDriver(host)}
}

// Call parses text, converts its arguments against the declared signature
// of the named export of componentID, invokes it and renders the outcome.
// Any failure is returned as a single *errors.Error; nothing is retried.
// A missing or unbindable export is a host_failure whose cause says why.
func (b *Bridge) Call(ctx context.Context, componentID, text string) (*Outcome, error) {
	call, err := callexpr.Parse(text)
	if err != nil {
		return nil, err
	}

	sig, err := b.host.FuncType(componentID, call.Name)
	if err != nil {
		return nil, hostFailure(call.Name, err)
	}

	bindings, err := Resolve(call, sig)
	if err != nil {
		return nil, err
	}

	args, err := encodeArgs(bindings)
	if err != nil {
		return nil, err
	}

	h, err := b.host.Handle(ctx, componentID, call.Name)
	if err != nil {
		return nil, hostFailure(call.Name, err)
	}

	results, err := b.driver.Invoke(ctx, h, args, sig.Results)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Name:    call.Name,
		Args:    args,
		Results: results,
		Line:    Render(call.Name, args, results),
	}
	Logger().Debug("call complete",
		zap.String("component", componentID),
		zap.String("func", call.Name),
		zap.String("line", out.Line))
	return out, nil
}

// hostFailure reports a failed export lookup or binding as a host failure.
// The host's own error stays reachable as the cause.
func hostFailure(name string, err error) error {
	if stderrors.Is(err, errors.ErrHostFailure) {
		return err
	}
	return errors.HostFailure(name, err)
}

func encodeArgs(bindings []Binding) ([]value.Value, error) {
	args := make([]value.Value, len(bindings))
	for i, bind := range bindings {
		v, err := codec.EncodeExpr(bind.Expr, bind.Param.Type)
		if err != nil {
			var e *errors.Error
			if stderrors.As(err, &e) && e.Phase == errors.PhaseDecode {
				name := bind.Param.Name
				if name == "" {
					name = "arg" + strconv.Itoa(i)
				}
				e.Path = append([]string{name}, e.Path...)
			}
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}
