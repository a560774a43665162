package vm

import (
	"io"
	"log/slog"
	"os"

	"ember/builtins"
	"ember/trace"
)

// RejectionPolicy selects what Run does with unhandled promise rejections
type RejectionPolicy string

const (
	RejectionIgnore RejectionPolicy = "ignore"
	RejectionThrow  RejectionPolicy = "throw"
)

// DefaultMaxStackSize is the default frame budget in bytes
const DefaultMaxStackSize = 64 * 1024

// Meta is a host key/value pair retrievable by index
type Meta struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Options configures a VM. The yaml-tagged fields may be loaded from a
// config file; the rest are set programmatically.
type Options struct {
	// Shared reuses an existing shared runtime state instead of building one
	Shared *builtins.Shared `yaml:"-"`

	MaxStackSize       int             `yaml:"max_stack_size"`
	MemoryLimit        int64           `yaml:"memory_limit"`
	Interactive        bool            `yaml:"interactive"`
	UnhandledRejection RejectionPolicy `yaml:"unhandled_rejection"`
	Metas              []Meta          `yaml:"metas"`
	File               string          `yaml:"file"`
	AST                bool            `yaml:"ast"`
	Disassemble        bool            `yaml:"disassemble"`

	Addons   []*Addon      `yaml:"-"`
	External any           `yaml:"-"`
	Logger   *slog.Logger  `yaml:"-"`
	Output   io.Writer     `yaml:"-"` // AST dumps and disassembly
	Tracer   *trace.Tracer `yaml:"-"`
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		MaxStackSize:       DefaultMaxStackSize,
		UnhandledRejection: RejectionThrow,
		File:               "<input>",
	}
}

// normalize fills zero fields with defaults
func (o *Options) normalize() {
	if o.MaxStackSize <= 0 {
		o.MaxStackSize = DefaultMaxStackSize
	}
	if o.UnhandledRejection == "" {
		o.UnhandledRejection = RejectionThrow
	}
	if o.File == "" {
		o.File = "<input>"
	}
	if o.Output == nil {
		o.Output = os.Stderr
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}
