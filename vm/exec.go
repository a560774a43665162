package vm

import (
	"ember/types"
)

// execute runs an interpreted frame until it returns or an exception
// escapes every handler of the frame
func (vm *VM) execute(f *Frame) types.Result {
	code := f.Lambda.Code
	consts := f.Lambda.Constants

	for f.ip < len(code) {
		in := code[f.ip]
		f.ip++

		var r types.Result
		switch in.Op {
		// Stack Operations
		case OP_CONST:
			f.push(consts[in.A])
		case OP_UNDEF:
			f.push(types.Undefined)
		case OP_NULL:
			f.push(types.Null)
		case OP_TRUE:
			f.push(types.True)
		case OP_FALSE:
			f.push(types.False)
		case OP_POP:
			f.pop()
		case OP_DUP:
			f.push(f.peek(0))
		case OP_DUP2:
			a, b := f.peek(1), f.peek(0)
			f.push(a)
			f.push(b)
		case OP_SWAP:
			n := len(f.stack)
			f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]
		case OP_ROT3:
			n := len(f.stack)
			s := f.stack[n-3:]
			s[0], s[1], s[2] = s[2], s[0], s[1]
		case OP_ROT4:
			n := len(f.stack)
			s := f.stack[n-4:]
			s[0], s[1], s[2], s[3] = s[3], s[0], s[1], s[2]

		// Variable Operations
		case OP_GET_LOCAL:
			f.push(f.Env.up(in.A).vars[in.B])
		case OP_SET_LOCAL:
			f.Env.up(in.A).vars[in.B] = f.peek(0)
		case OP_GET_GLOBAL:
			f.push(vm.globals[in.A])
		case OP_SET_GLOBAL:
			if in.A >= reservedSlots {
				vm.globals[in.A] = f.peek(0)
			}
		case OP_GET_NAME:
			name := consts[in.A].String()
			if v, ok := vm.global.Lookup(name); ok {
				f.push(v)
			} else {
				r = vm.throwError(types.ObjTypeReferenceError, "\"%s\" is not defined", name)
			}
		case OP_TYPEOF_NAME:
			v, _ := vm.global.Lookup(consts[in.A].String())
			f.push(types.NewStr(types.Typeof(v)))
		case OP_SET_NAME:
			r = vm.setProp(vm.global, consts[in.A].String(), f.peek(0))
		case OP_THIS:
			f.push(f.This)
		case OP_CALLEE:
			if f.Function != nil {
				f.push(f.Function)
			} else {
				f.push(types.Undefined)
			}
		case OP_THROW_CONST:
			r = vm.throwError(types.ObjTypeTypeError, "assignment to constant \"%s\"", consts[in.A].String())

		// Property Operations
		case OP_GET_PROP:
			var v types.Value
			if v, r = vm.getProp(f.pop(), consts[in.A].String()); !r.IsError() {
				f.push(v)
			}
		case OP_SET_PROP:
			v := f.pop()
			obj := f.pop()
			if r = vm.setProp(obj, consts[in.A].String(), v); !r.IsError() {
				f.push(v)
			}
		case OP_GET_INDEX:
			key := f.pop()
			var v types.Value
			if v, r = vm.getIndex(f.pop(), key); !r.IsError() {
				f.push(v)
			}
		case OP_SET_INDEX:
			v := f.pop()
			key := f.pop()
			if r = vm.setIndex(f.pop(), key, v); !r.IsError() {
				f.push(v)
			}
		case OP_DELETE_PROP:
			var v types.Value
			if v, r = vm.deleteProp(f.pop(), consts[in.A].String()); !r.IsError() {
				f.push(v)
			}
		case OP_DELETE_INDEX:
			key := f.pop()
			obj := f.pop()
			var k string
			if k, r = vm.propertyKey(key); !r.IsError() {
				var v types.Value
				if v, r = vm.deleteProp(obj, k); !r.IsError() {
					f.push(v)
				}
			}
		case OP_ARRAY:
			items := f.popN(in.A)
			if err := vm.arena.Alloc(types.ObjectSize + int64(in.A)*frameSlotSize); err != nil {
				r = vm.throwMemory()
				break
			}
			f.push(types.NewArray(vm.Proto(types.ObjTypeArray), items))
		case OP_OBJECT:
			if err := vm.arena.Alloc(types.ObjectSize); err != nil {
				r = vm.throwMemory()
				break
			}
			f.push(types.NewObject(vm.Proto(types.ObjTypeObject)))
		case OP_INIT_PROP:
			v := f.pop()
			f.peek(0).(*types.Object).Set(consts[in.A].String(), v)
		case OP_INIT_INDEX:
			v := f.pop()
			key := f.pop()
			var k string
			if k, r = vm.propertyKey(key); !r.IsError() {
				f.peek(0).(*types.Object).Set(k, v)
			}
		case OP_CLOSURE:
			var fn types.Value
			if fn, r = vm.closure(f, f.Lambda.Funcs[in.A]); !r.IsError() {
				f.push(fn)
			}

		// Arithmetic, Comparison and Bitwise Operations
		case OP_ADD:
			b := f.pop()
			a := f.pop()
			var v types.Value
			if v, r = vm.add(a, b); !r.IsError() {
				f.push(v)
			}
		case OP_SUB, OP_MUL, OP_DIV, OP_MOD, OP_POW,
			OP_BITAND, OP_BITOR, OP_BITXOR, OP_SHL, OP_SHR, OP_USHR:
			b := f.pop()
			a := f.pop()
			var v types.Value
			if v, r = vm.arith(in.Op, a, b); !r.IsError() {
				f.push(v)
			}
		case OP_NEG, OP_PLUS, OP_INC, OP_DEC, OP_BITNOT:
			var v types.Value
			if v, r = vm.unary(in.Op, f.pop()); !r.IsError() {
				f.push(v)
			}
		case OP_EQ:
			b := f.pop()
			f.push(types.NewBool(types.LooseEqual(f.pop(), b)))
		case OP_NE:
			b := f.pop()
			f.push(types.NewBool(!types.LooseEqual(f.pop(), b)))
		case OP_STRICT_EQ:
			b := f.pop()
			f.push(types.NewBool(f.pop().Equal(b)))
		case OP_STRICT_NE:
			b := f.pop()
			f.push(types.NewBool(!f.pop().Equal(b)))
		case OP_LT, OP_LE, OP_GT, OP_GE:
			b := f.pop()
			a := f.pop()
			var v types.Value
			if v, r = vm.compare(in.Op, a, b); !r.IsError() {
				f.push(v)
			}
		case OP_IN:
			b := f.pop()
			a := f.pop()
			var v types.Value
			if v, r = vm.hasProperty(a, b); !r.IsError() {
				f.push(v)
			}
		case OP_INSTANCEOF:
			b := f.pop()
			a := f.pop()
			var v types.Value
			if v, r = vm.instanceOf(a, b); !r.IsError() {
				f.push(v)
			}
		case OP_NOT:
			f.push(types.NewBool(!f.pop().Truthy()))
		case OP_TYPEOF:
			f.push(types.NewStr(types.Typeof(f.pop())))
		case OP_VOID:
			f.pop()
			f.push(types.Undefined)

		// Control Flow
		case OP_JUMP:
			f.ip = in.A
		case OP_JUMP_IF_FALSE:
			if !f.pop().Truthy() {
				f.ip = in.A
			}
		case OP_JUMP_IF_TRUE:
			if f.pop().Truthy() {
				f.ip = in.A
			}
		case OP_JUMP_IF_FALSE_KEEP:
			if !f.peek(0).Truthy() {
				f.ip = in.A
			} else {
				f.pop()
			}
		case OP_JUMP_IF_TRUE_KEEP:
			if f.peek(0).Truthy() {
				f.ip = in.A
			} else {
				f.pop()
			}
		case OP_JUMP_IF_DEFINED:
			if !types.IsNullish(f.peek(0)) {
				f.ip = in.A
			} else {
				f.pop()
			}
		case OP_CALL:
			args := f.popN(in.A)
			this := f.pop()
			fn := f.pop()
			if r = vm.call(fn, this, args, false); !r.IsError() {
				f.push(r.Value())
			}
		case OP_NEW:
			args := f.popN(in.A)
			if r = vm.construct(f.pop(), args); !r.IsError() {
				f.push(r.Value())
			}
		case OP_RETURN:
			return types.Ok(f.pop())

		// Iteration
		case OP_ITER_KEYS:
			f.push(keyIterator(f.pop()))
		case OP_ITER_VALUES:
			var it *iterator
			if it, r = vm.valueIterator(f.pop()); !r.IsError() {
				f.push(it)
			}
		case OP_ITER_NEXT:
			if v, ok := f.peek(0).(*iterator).next(); ok {
				f.push(v)
			} else {
				f.pop()
				f.ip = in.A
			}

		// Exception Handling
		case OP_TRY:
			f.Catch = append(f.Catch, Handler{CatchIP: in.A, Depth: len(f.stack)})
		case OP_END_TRY:
			f.Catch = f.Catch[:len(f.Catch)-1]
		case OP_THROW:
			r = vm.throw(f.pop())

		// Modules and Completion
		case OP_IMPORT:
			var v types.Value
			if v, r = vm.importModule(consts[in.A].String()); !r.IsError() {
				f.push(v)
			}
		case OP_EXPORT:
			f.export = f.pop()
		case OP_STORE_RESULT:
			f.result = f.pop()
		case OP_LOAD_RESULT:
			if f.result == nil {
				f.push(types.Undefined)
			} else {
				f.push(f.result)
			}

		default:
			r = vm.throwError(types.ObjTypeInternalError, "unknown opcode %s", in.Op)
		}

		if r.Flow == types.FlowException && !vm.catch(f, r.Val) {
			return r
		}
	}
	return types.Ok(types.Undefined)
}

// catch transfers control to the innermost handler of f. The operand
// stack is unwound to the depth recorded by the handler and the exception
// is pushed for the catch code. It reports false when f has no handler.
func (vm *VM) catch(f *Frame, exc types.Value) bool {
	n := len(f.Catch)
	if n == 0 {
		return false
	}
	h := f.Catch[n-1]
	f.Catch = f.Catch[:n-1]
	clear(f.stack[h.Depth:])
	f.stack = f.stack[:h.Depth]
	f.push(exc)
	f.ip = h.CatchIP
	vm.exception = nil
	return true
}

// closure creates a function object for lam capturing the frame's scope
func (vm *VM) closure(f *Frame, lam *Lambda) (types.Value, types.Result) {
	if err := vm.arena.Alloc(types.ObjectSize); err != nil {
		return nil, vm.throwMemory()
	}
	fn := &types.Function{
		Name:   lam.Name,
		Length: lam.NumParams,
		Lambda: lam,
		Env:    f.Env,
		Ctor:   !lam.Arrow,
	}
	if lam.Arrow {
		fn.This = f.This
	}
	return types.NewFunctionObject(vm.Proto(types.ObjTypeFunction), fn), types.Ok(nil)
}
