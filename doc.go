// Package triggercall calls exported functions of WebAssembly components
// with arguments written as text.
//
// A call expression such as
//
//	greet("world", some(3), [1, 2])
//
// is parsed, resolved against the export's signature, converted argument by
// argument to typed values, lowered into guest memory with the canonical ABI
// and invoked. The outcome is rendered back as text:
//
//	greet("world", some(3), [1, 2]) -> "hello world"
//
// # Packages
//
//	triggercall/         Memory and Allocator interfaces shared by canon and host
//	├── value/           Typed values and type descriptors
//	├── callexpr/        Call expression parser (name plus argument texts)
//	├── codec/           Text to value conversion and value formatting
//	├── invoke/          Invocation driver with per-slot result buffers
//	├── bridge/          Resolve, encode, invoke and render in one call
//	├── canon/           Canonical ABI flattening, lowering and lifting
//	├── witsig/          WIT signature parsing into value types
//	├── host/            wazero backed host running registered components
//	├── config/          trigger-call.toml manifest loading
//	├── errors/          Structured errors with phase, kind and path
//	└── cmd/trigger-call Command line and interactive front end
//
// # Quick Start
//
//	rt := host.NewRuntime(ctx, nil)
//	defer rt.Close(ctx)
//
//	sigs, err := witsig.ParseWIT(witText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rt.Register("hello", wasmBytes, sigs); err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := bridge.New(rt).Call(ctx, "hello", `greet("world")`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Line)
//
// # Thread Safety
//
// Runtime and Bridge are safe for concurrent use. Calls through the same
// function handle are serialized; calls on different handles of one
// instance share the instance lock.
package triggercall
