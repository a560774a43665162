package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"ember/addons/crypto"
	"ember/addons/timers"
	"ember/trace"
	"ember/vm"
)

func main() {
	os.Exit(run())
}

// run parses the command line and runs a script or the shell. It returns
// the process exit status.
func run() int {
	evalSrc := flag.String("e", "", "Evaluate a script given on the command line")
	dumpAST := flag.Bool("ast", false, "Dump the syntax tree of compiled code")
	disasm := flag.Bool("d", false, "Disassemble compiled code")
	configPath := flag.String("config", "", "YAML file with VM options")
	interactive := flag.Bool("i", false, "Force the interactive shell")

	// Trace flags
	traceEnabled := flag.Bool("trace", false, "Enable call tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (glob, e.g., 'on*' or 'fib')")

	// Logging flags
	verbose := flag.Bool("v", false, "Log debug messages")
	logJSON := flag.String("log-json", "", "Also write JSON logs to this file")

	flag.Parse()

	logger, closeLog, err := newLogger(*verbose, *logJSON)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	opts, err := loadOptions(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	opts.AST = opts.AST || *dumpAST
	opts.Disassemble = opts.Disassemble || *disasm
	opts.Logger = logger
	opts.Output = os.Stdout

	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			filters = strings.Split(*traceFilter, ",")
			for i := range filters {
				filters[i] = strings.TrimSpace(filters[i])
			}
		}
		opts.Tracer = trace.New(true, filters, os.Stderr)
		logger.Debug("tracing enabled", "filters", filters)
	}

	driver := timers.New()
	opts.Addons = append(opts.Addons, crypto.Addon(), driver.Addon(), consoleAddon(os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *evalSrc != "":
		opts.File = "string"
		return runScript(ctx, driver, opts, []byte(*evalSrc))
	case flag.NArg() > 0:
		path := flag.Arg(0)
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read script: %v", err)
		}
		opts.File = path
		return runScript(ctx, driver, opts, src)
	case *interactive || isTerminal(os.Stdin):
		opts.File = "shell"
		opts.Interactive = true
		return runShell(ctx, driver, opts)
	default:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("Failed to read stdin: %v", err)
		}
		opts.File = "stdin"
		return runScript(ctx, driver, opts, src)
	}
}

// loadOptions returns the default options overlaid with the YAML file at
// path, if any
func loadOptions(path string) (vm.Options, error) {
	opts := vm.DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("%s: %w", path, err)
	}
	switch opts.UnhandledRejection {
	case "", vm.RejectionIgnore, vm.RejectionThrow:
	default:
		return opts, fmt.Errorf("%s: unknown unhandled_rejection policy %q", path, opts.UnhandledRejection)
	}
	return opts, nil
}

// runScript compiles and runs src, then drives timers and events until
// nothing is left. It returns the process exit status.
func runScript(ctx context.Context, driver *timers.Driver, opts vm.Options, src []byte) int {
	v, err := vm.Create(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		v.Destroy()
		driver.Forget(v)
	}()

	if _, err := v.Compile(src); err != nil {
		fmt.Fprintln(os.Stderr, v.ExceptionString())
		return 1
	}
	if _, err := v.Start(); err != nil {
		fmt.Fprintln(os.Stderr, v.ExceptionString())
		return 1
	}
	if err := driver.Loop(ctx, v); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		if s := v.ExceptionString(); s != "" {
			fmt.Fprintln(os.Stderr, s)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
