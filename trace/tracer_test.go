package trace

import (
	"bytes"
	"strings"
	"testing"

	"ember/types"
)

func TestTracerFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters []string
		fn      string
		want    bool
	}{
		{"no filters", nil, "anything", true},
		{"exact", []string{"fib"}, "fib", true},
		{"glob", []string{"on*"}, "onTick", true},
		{"miss", []string{"on*"}, "main", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tr := New(true, tt.filters, &buf)
			tr.Call("0123456789abcdef", tt.fn, types.Undefined, []types.Value{types.NewInt(1)}, 1)
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("traced = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracerOutput(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, nil, &buf)

	tr.Call("0123456789abcdef", "add", types.Undefined, []types.Value{types.NewInt(1), types.NewStr("x")}, 2)
	tr.Return("0123456789abcdef", "add", types.NewStr(strings.Repeat("y", 100)), 2)
	tr.Exception("0123456789abcdef", "add", types.NewStr("boom"), 1)
	tr.Event("0123456789abcdef", "posted", "onTick")

	out := buf.String()
	for _, want := range []string{
		`[TRACE] 01234567     CALL add this=undefined args=[1, "x"]`,
		"RETURN add => \"yyyy",
		"...",
		`EXCEPTION add "boom"`,
		"EVENT posted onTick",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDisabledTracer(t *testing.T) {
	var buf bytes.Buffer
	New(false, nil, &buf).Call("id", "f", nil, nil, 0)
	var nilTracer *Tracer
	if nilTracer.IsEnabled() {
		t.Error("nil tracer is enabled")
	}
	if buf.Len() != 0 {
		t.Errorf("disabled tracer wrote %q", buf.String())
	}
}
