// Package host runs components on wazero and serves them to the bridge.
//
// A component here is a core wasm module whose exports follow the
// canonical ABI, together with the declared signatures of those exports
// (usually read from WIT text with package witsig). The module must export
// its linear memory, and cabi_realloc when any call passes strings, lists
// or more than 16 flat parameters.
//
//	rt := host.NewRuntime(ctx, nil)
//	defer rt.Close(ctx)
//	rt.Register("hello", wasm, sigs)
//	out, err := bridge.New(rt).Call(ctx, "hello", `greet("world")`)
//
// Components are compiled on first use and instantiated once. Instances are
// single-threaded, so calls into one component are serialized. Imports are
// not provided; a module that imports anything fails to instantiate.
//
// Cancelling the context of a call aborts the guest and closes its
// instance. The next call prepares a fresh instance.
package host
