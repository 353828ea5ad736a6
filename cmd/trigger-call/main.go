// Command trigger-call calls an export of a WebAssembly component with
// arguments written as value literals and prints the outcome.
//
//	trigger-call --call 'add(2, 3)'
//	add(2, 3) -> 5
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wippyai/trigger-call/bridge"
	"github.com/wippyai/trigger-call/config"
	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/host"
	"github.com/wippyai/trigger-call/value"
)

type options struct {
	manifest    string
	id          string
	call        string
	list        bool
	interactive bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "trigger-call [flags] [call]",
		Short: "Call a WebAssembly component export with typed arguments",
		Long: `trigger-call loads the components declared in a trigger-call.toml manifest,
parses a call expression such as 'greet("world")', converts each argument to
the declared parameter type, invokes the export and prints

    name(args) -> results`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if opts.call != "" {
					return fmt.Errorf("call given both as --call and as an argument")
				}
				opts.call = args[0]
			}
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.manifest, "manifest", "m", config.DefaultFile, "path to the manifest")
	f.StringVar(&opts.id, "id", "", "component to call (default: the component of the call trigger)")
	f.StringVarP(&opts.call, "call", "c", "", "call expression, e.g. 'add(2, 3)'")
	f.BoolVar(&opts.list, "list", false, "list exported functions and exit")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "interactive mode with TUI")
	return cmd
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	log, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	installLogger(log)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	m, err := config.Load(opts.manifest)
	if err != nil {
		return err
	}
	id := opts.id
	if id == "" {
		if id, err = m.DefaultComponent(); err != nil {
			return err
		}
	}

	rt, err := loadComponent(ctx, m, id)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	switch {
	case opts.interactive:
		return runInteractive(ctx, rt, id)
	case opts.list:
		return listExports(stdout, rt, id)
	case opts.call == "":
		return fmt.Errorf("nothing to call; pass a call expression, --list or -i")
	}

	out, err := bridge.New(rt).Call(ctx, id, opts.call)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out.Line)
	return nil
}

// loadComponent creates a runtime holding the component id of m.
func loadComponent(ctx context.Context, m *config.Manifest, id string) (*host.Runtime, error) {
	c, ok := m.Component(id)
	if !ok {
		return nil, errors.NotFound(errors.PhaseConfig, "component", id)
	}
	wasm, err := m.Wasm(c)
	if err != nil {
		return nil, err
	}
	sigs, err := m.Signatures(c)
	if err != nil {
		return nil, err
	}

	rt := host.NewRuntime(ctx, &host.Config{MemoryLimitPages: m.Runtime.MemoryLimitPages})
	if err := rt.Register(c.ID, wasm, sigs); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

func listExports(w io.Writer, rt *host.Runtime, id string) error {
	exports, err := rt.Exports(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Component: %s\n", id)
	fmt.Fprintf(w, "Exported functions:\n")
	for _, e := range exports {
		fmt.Fprintf(w, "  %s\n", signatureLine(e.Name, e.Type))
	}
	return nil
}

// signatureLine renders "name: func(...) -> ..." as written in WIT.
func signatureLine(name string, ft value.FuncType) string {
	return name + ": " + ft.String()
}
