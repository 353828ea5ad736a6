// Package bridge runs a textual call against a component export.
//
// A call goes through five steps, each of which can end it with exactly
// one error:
//
//	parse     callexpr.Parse          syntax
//	resolve   Resolve                 arity
//	encode    codec.EncodeExpr        overflow, unknown_case, malformed
//	invoke    invoke.Driver.Invoke    host_failure, protocol_violation
//	render    Render
//
// The host is reached only through the invoke.Host interface, so a fake
// host is enough to exercise the whole pipeline.
package bridge
