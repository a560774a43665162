package vm

import (
	"fmt"
	"strings"

	"ember/types"
)

// Frame cost model: a fixed header plus one slot per argument and local
const (
	frameBaseSize = 96
	frameSlotSize = 16
)

// Frame is one activation on the call stack. Native frames link through
// Previous like interpreted ones; PreviousActive skips them so returning
// from an interpreted frame restores the active frame directly.
type Frame struct {
	Previous       *Frame
	PreviousActive *Frame
	Native         bool
	Ctor           bool
	Function       *types.Object
	Lambda         *Lambda
	Name           string
	This           types.Value
	Env            *Env
	Catch          []Handler // Active try handlers, innermost last
	Size           int

	ip     int
	stack  []types.Value
	result types.Value // completion value of a script entry
	export types.Value // export default of a module entry
}

// frameSize returns the stack budget consumed by a frame
func frameSize(args, locals int) int {
	return frameBaseSize + frameSlotSize*(args+locals)
}

// push pushes a value onto the operand stack
func (f *Frame) push(v types.Value) {
	f.stack = append(f.stack, v)
}

// pop removes and returns the top of the operand stack
func (f *Frame) pop() types.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack[n] = nil
	f.stack = f.stack[:n]
	return v
}

// peek returns the value offset slots below the top without removing it
func (f *Frame) peek(offset int) types.Value {
	return f.stack[len(f.stack)-1-offset]
}

// popN removes the top n values and returns them in push order
func (f *Frame) popN(n int) []types.Value {
	start := len(f.stack) - n
	out := make([]types.Value, n)
	copy(out, f.stack[start:])
	clear(f.stack[start:])
	f.stack = f.stack[:start]
	return out
}

// line returns the source line of the instruction being executed
func (f *Frame) line() int {
	if f.Lambda == nil {
		return 0
	}
	return f.Lambda.LineForIP(f.ip - 1)
}

// pushFrame links f on top of the call stack, charging its size against
// the stack budget and the arena
func (vm *VM) pushFrame(f *Frame) types.Result {
	if vm.stackSize+f.Size > vm.opts.MaxStackSize {
		return vm.throwError(types.ObjTypeRangeError, "Maximum call stack size exceeded")
	}
	if err := vm.arena.Alloc(int64(f.Size)); err != nil {
		return vm.throwMemory()
	}

	f.Previous = vm.top
	if !f.Native {
		f.PreviousActive = vm.active
		vm.active = f
	}
	vm.top = f
	vm.stackSize += f.Size
	vm.depth++
	return types.Ok(nil)
}

// popFrame restores the caller. The top frame becomes Previous; for
// interpreted frames the active frame becomes PreviousActive.
func (vm *VM) popFrame(f *Frame) {
	vm.top = f.Previous
	if !f.Native {
		vm.active = f.PreviousActive
	}
	vm.stackSize -= f.Size
	vm.depth--
	vm.arena.Release(int64(f.Size))
}

// backtrace renders the call stack above the base frame, innermost first
func (vm *VM) backtrace() string {
	var b strings.Builder
	for f := vm.top; f != nil && f != vm.base; f = f.Previous {
		name := f.Name
		if name == "" {
			name = "anonymous"
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if f.Native {
			fmt.Fprintf(&b, "    at %s (native)", name)
			continue
		}
		fmt.Fprintf(&b, "    at %s (%s:%d)", name, f.Lambda.File, f.line())
	}
	return b.String()
}
