package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ember/types"
)

// Tracer provides function call tracing for debugging
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// New creates a tracer. Filters are glob patterns matched against function
// names; no filters traces every call.
func New(enabled bool, filters []string, writer io.Writer) *Tracer {
	if writer == nil {
		writer = os.Stderr
	}
	return &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// IsEnabled returns whether tracing is enabled
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

// matchesFilter checks if a function name matches any of the filter patterns
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true
	}

	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (t *Tracer) wants(name string) bool {
	return t.IsEnabled() && t.matchesFilter(name)
}

// Call logs a function call
func (t *Tracer) Call(vmID string, name string, this types.Value, args []types.Value, depth int) {
	if !t.wants(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	argStrs := make([]string, len(args))
	for i, arg := range args {
		argStrs[i] = describe(arg)
	}

	fmt.Fprintf(t.writer, "[TRACE] %s %sCALL %s this=%s args=[%s]\n",
		shortID(vmID), strings.Repeat("  ", depth), name, describe(this), strings.Join(argStrs, ", "))
}

// Return logs a function return value
func (t *Tracer) Return(vmID string, name string, result types.Value, depth int) {
	if !t.wants(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] %s %sRETURN %s => %s\n",
		shortID(vmID), strings.Repeat("  ", depth), name, describe(result))
}

// Exception logs an exception leaving a function
func (t *Tracer) Exception(vmID string, name string, exc types.Value, depth int) {
	if !t.wants(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] %s %sEXCEPTION %s %s\n",
		shortID(vmID), strings.Repeat("  ", depth), name, describe(exc))
}

// Event logs a scheduler event dispatch
func (t *Tracer) Event(vmID string, kind string, name string) {
	if !t.IsEnabled() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] %s EVENT %s %s\n", shortID(vmID), kind, name)
}

// describe renders a value without running script code, truncating long
// strings for readability
func describe(v types.Value) string {
	if v == nil {
		return "undefined"
	}
	var s string
	if str, ok := v.(types.StrValue); ok {
		s = types.Quote(str.Value())
	} else {
		s = v.String()
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
