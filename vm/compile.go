package vm

import (
	"errors"
	"strings"

	"ember/builtins"
	"ember/parser"
	"ember/types"
)

// Module is a named unit that scripts import. Compiled modules run once
// per instance on first import; value modules are registered by the host
// or an addon and imported as is.
type Module struct {
	Name   string
	Lambda *Lambda
	value  types.Value
}

// Compile compiles a script into the VM's main code. Top-level bindings
// extend the global scope and stay visible to later compilations. On a
// syntax error the returned remainder starts where parsing stopped and the
// SyntaxError object is left in the exception slot; the global scope is
// unchanged.
func (vm *VM) Compile(src []byte) (rest []byte, err error) {
	if err := vm.enter(); err != nil {
		return src, err
	}
	defer vm.leave()

	file := vm.opts.File
	prog, err := parser.Parse(string(src), file, parser.ModeScript)
	if err != nil {
		return vm.compileError(src, err)
	}
	if vm.opts.AST {
		if err := parser.Dump(vm.opts.Output, prog); err != nil {
			vm.logger.Warn("failed to dump ast", "error", err)
		}
	}

	scope := vm.scope.clone()
	lam, err := generate(scope, prog, "main", "main", file, vm.moduleExists)
	if err != nil {
		return vm.compileError(src, err)
	}
	if err := vm.growGlobals(scope.Len()); err != nil {
		vm.exception = types.MemoryError
		return src, err
	}
	vm.scope = scope
	vm.main = lam

	if vm.opts.Disassemble {
		lam.Disassemble(vm.opts.Output)
	}
	vm.logger.Debug("compiled script", "file", file, "instructions", len(lam.Code), "globals", scope.Len())
	return nil, nil
}

// CompileModule compiles src as the module name and registers it for
// import. Compiling a name that is already registered returns the existing
// module.
func (vm *VM) CompileModule(name string, src []byte) (*Module, error) {
	if err := vm.enter(); err != nil {
		return nil, err
	}
	defer vm.leave()

	if m, ok := vm.modules[name]; ok {
		return m, nil
	}

	prog, err := parser.Parse(string(src), name, parser.ModeModule)
	if err != nil {
		_, err = vm.compileError(src, err)
		return nil, err
	}
	lam, err := generate(vm.scope, prog, "module", name, name, vm.moduleExists)
	if err != nil {
		_, err = vm.compileError(src, err)
		return nil, err
	}
	if vm.opts.Disassemble {
		lam.Disassemble(vm.opts.Output)
	}

	m := &Module{Name: name, Lambda: lam}
	vm.modules[name] = m
	vm.logger.Debug("compiled module", "module", name, "instructions", len(lam.Code))
	return m, nil
}

// AddModule registers a prebuilt value importable as name, replacing any
// earlier registration
func (vm *VM) AddModule(name string, v types.Value) *Module {
	m := &Module{Name: name, value: v}
	vm.modules[name] = m
	delete(vm.exports, name)
	return m
}

// moduleExists reports whether name can be imported
func (vm *VM) moduleExists(name string) bool {
	_, ok := vm.modules[name]
	return ok
}

// compileError records a compile failure as a SyntaxError exception and
// returns the parser error to the host
func (vm *VM) compileError(src []byte, err error) ([]byte, error) {
	var se *parser.SyntaxError
	if !errors.As(err, &se) {
		vm.exception = builtins.NewError(vm.rt, types.ObjTypeInternalError, err.Error())
		return src, &Error{Kind: KindRuntime, Message: err.Error(), Value: vm.exception}
	}

	exc := builtins.NewError(vm.rt, types.ObjTypeSyntaxError, strings.TrimPrefix(se.Error(), "SyntaxError: "))
	vm.exception = exc
	if exc == types.MemoryError {
		return src, &Error{Kind: KindMemory, Message: "MemoryError", Value: exc}
	}

	offset := min(max(se.Pos.Offset, 0), len(src))
	return src[offset:], se
}

// importModule returns the value of a module, running compiled modules
// once per instance. The cache entry is set before the module runs so an
// import cycle sees undefined instead of recursing.
func (vm *VM) importModule(name string) (types.Value, types.Result) {
	if v, ok := vm.exports[name]; ok {
		return v, types.Ok(nil)
	}
	m, ok := vm.modules[name]
	if !ok {
		return nil, vm.throwError(types.ObjTypeInternalError, "Cannot find module \"%s\"", name)
	}
	if m.Lambda == nil {
		vm.exports[name] = m.value
		return m.value, types.Ok(nil)
	}

	vm.exports[name] = types.Undefined
	f, r := vm.runEntry(m.Lambda, types.Undefined)
	if r.IsError() {
		delete(vm.exports, name)
		return nil, r
	}
	v := f.export
	if v == nil {
		v = types.Undefined
	}
	vm.exports[name] = v
	return v, types.Ok(nil)
}

// Start runs the compiled main code and returns its completion value
func (vm *VM) Start() (types.Value, error) {
	if err := vm.enter(); err != nil {
		return nil, err
	}
	defer vm.leave()

	if vm.main == nil {
		return nil, ErrNoCode
	}
	_, r := vm.runEntry(vm.main, vm.global)
	if r.IsError() {
		return nil, vm.hostError(r.Val)
	}
	return r.Value(), nil
}

// runEntry executes a script or module body in a frame of its own
func (vm *VM) runEntry(lam *Lambda, this types.Value) (*Frame, types.Result) {
	f := &Frame{
		Lambda: lam,
		Name:   lam.Name,
		This:   this,
		Env:    newEnv(lam.NumLocals, nil),
		Size:   frameSize(0, lam.NumLocals),
	}
	if r := vm.pushFrame(f); r.IsError() {
		return f, r
	}
	defer vm.popFrame(f)

	vm.traceCall(f, nil)
	r := vm.execute(f)
	vm.traceResult(f, r)
	return f, r
}
