package bridge

import (
	"github.com/wippyai/trigger-call/callexpr"
	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

// Binding pairs one argument expression with the parameter it fills.
type Binding struct {
	Expr  callexpr.Expr
	Param value.ParamType
}

// Resolve binds the arguments of call to the parameters of sig in
// declared order. It fails with an arity error when the counts differ and
// performs no conversion.
func Resolve(call *callexpr.Call, sig value.FuncType) ([]Binding, error) {
	if len(call.Args) != len(sig.Params) {
		return nil, errors.Arity(call.Name, len(sig.Params), len(call.Args))
	}
	bindings := make([]Binding, len(call.Args))
	for i, arg := range call.Args {
		bindings[i] = Binding{Expr: arg, Param: sig.Params[i]}
	}
	return bindings, nil
}
