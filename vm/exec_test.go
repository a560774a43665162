package vm

import (
	"errors"
	"strings"
	"testing"

	"ember/types"
)

func TestExecute(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "1 + 2 * 3", "7"},
		{"concat", "'a' + 1", "a1"},
		{"compound", "var x = 10; x -= 3; x;", "7"},
		{"exponent", "2 ** 10", "1024"},
		{"bitwise", "(5 & 3) | (1 << 4)", "17"},
		{"ternary", "var n = 4; n > 3 ? 'big' : 'small';", "big"},
		{"logical", "null || 0 || 'x';", "x"},
		{"nullish", "var u; u ?? 'fallback';", "fallback"},
		{"while", "var i = 0, s = 0;\nwhile (i < 5) { s += i; i++; }\ns;", "10"},
		{"do while", "var i = 0;\ndo { i++; } while (i < 3);\ni;", "3"},
		{"for break continue", `var out = '';
for (var i = 0; i < 10; i++) {
	if (i % 2) continue;
	if (i > 6) break;
	out += i;
}
out;`, "0246"},
		{"labeled", `var n = 0;
outer: for (var i = 0; i < 3; i++) {
	for (var j = 0; j < 3; j++) {
		if (j == 1) continue outer;
		if (i == 2) break outer;
		n++;
	}
}
n;`, "2"},
		{"for in", "var o = {a: 1, b: 2}; var ks = '';\nfor (var k in o) { ks += k; }\nks;", "ab"},
		{"for of", "var sum = 0;\nfor (var v of [1, 2, 3]) { sum += v; }\nsum;", "6"},
		{"for of break", "var seen = '';\nfor (var c of 'abc') { if (c == 'c') break; seen += c; }\nseen;", "ab"},
		{"closure", `function counter() {
	var n = 0;
	return function() { n++; return n; };
}
var c = counter();
c();
c();`, "2"},
		{"named function expression", "var f = function fact(n) { return n <= 1 ? 1 : n * fact(n - 1); };\nf(5);", "120"},
		{"hoisting", "var r = later();\nfunction later() { return 'hoisted'; }\nr;", "hoisted"},
		{"constructor", `function P(x) { this.x = x; }
P.prototype.get = function() { return this.x; };
var p = new P(5);
p.get();`, "5"},
		{"constructor returns object", "function Q() { this.a = 1; return { a: 2 }; }\nvar q = new Q();\nq.a;", "2"},
		{"instanceof", "function A() {}\nvar a = new A();\na instanceof A;", "true"},
		{"arrow this", `var o = { v: 3, f: function() { var g = () => this.v; return g(); } };
o.f();`, "3"},
		{"method this", "var o = { n: 'me', who: function() { return this.n; } };\no.who();", "me"},
		{"typeof undeclared", "typeof nothing;", "undefined"},
		{"typeof function", "typeof function() {};", "function"},
		{"array growth", "var a = [1, 2];\na.push(3);\na[5] = 6;\na.length;", "6"},
		{"postfix", "var i = 1;\nvar j = i++;\nj * 10 + i;", "12"},
		{"prefix member", "var o = { n: 1 };\n++o.n;\no.n;", "2"},
		{"postfix index", "var a = [5];\nvar old = a[0]++;\nold + a[0];", "11"},
		{"delete", "var o = { k: 1 };\ndelete o.k;\n'k' in o;", "false"},
		{"in", "'length' in [];", "true"},
		{"string index", "'hello'[1];", "e"},
		{"try catch", "var log = '';\ntry { throw new Error('boom'); } catch (e) { log += e.message; } finally { log += '!'; }\nlog;", "boom!"},
		{"finally rethrows", "var s = '';\ntry { try { throw 1; } finally { s += 'f'; } } catch (e) { s += e; }\ns;", "f1"},
		{"return through finally", `var log = '';
function f() { try { return 'a'; } finally { log = 'fin'; } }
f() + log;`, "afin"},
		{"break through finally", `var log = '';
for (var i = 0; i < 3; i++) { try { break; } finally { log += 'f'; } }
log + i;`, "f0"},
		{"catch in loop", `var caught = 0;
for (var i = 0; i < 3; i++) { try { throw i; } catch (e) { caught += e; } }
caught;`, "3"},
		{"catch shadows", "var e = 'outer';\ntry { throw 'inner'; } catch (e) {}\ne;", "outer"},
		{"let resets", "var out = '';\nfor (var i = 0; i < 2; i++) { let v; out += v; v = i; }\nout;", "undefinedundefined"},
		{"call apply", "function add(a, b) { return a + b; }\nadd.call(null, 1, 2) + add.apply(null, [3, 4]);", "10"},
		{"json", "JSON.stringify({ a: [1, 'x'] });", `{"a":[1,"x"]}`},
		{"globalThis", "var g = 7;\nglobalThis.g;", "7"},
		{"completion value", "var z = 1;", "undefined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, DefaultOptions())
			if got := eval(t, vm, tt.src); got.String() != tt.want {
				t.Errorf("result = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind types.ObjType
		msg  string
	}{
		{"undefined name", "missing + 1;", types.ObjTypeReferenceError, `"missing" is not defined`},
		{"const assignment", "const k = 1;\nk = 2;", types.ObjTypeTypeError, `assignment to constant "k"`},
		{"not a function", "var n = 1;\nn();", types.ObjTypeTypeError, "is not a function"},
		{"property of undefined", "var u;\nu.x;", types.ObjTypeTypeError, `cannot get property "x" of undefined`},
		{"arrow is not a constructor", "var f = () => 1;\nnew f();", types.ObjTypeTypeError, "is not a constructor"},
		{"invalid array length", "var a = [];\na.length = -1;", types.ObjTypeRangeError, "Invalid array length"},
		{"assign past array growth limit", "var a = [];\nObject.assign(a, {'200000000': 1});", types.ObjTypeRangeError, "Invalid array length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, DefaultOptions())
			if _, err := vm.Compile([]byte(tt.src)); err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			_, err := vm.Start()
			var verr *Error
			if !errors.As(err, &verr) || verr.Kind != KindRuntime {
				t.Fatalf("Start = %v, want runtime *Error", err)
			}
			exc, ok := vm.PeekException()
			if !ok {
				t.Fatal("exception slot is empty")
			}
			o, ok := exc.(*types.Object)
			if !ok || o.Kind != tt.kind {
				t.Fatalf("exception = %v, want %s", exc, tt.kind)
			}
			if !strings.Contains(verr.Message, tt.msg) {
				t.Errorf("message = %q, want it to contain %q", verr.Message, tt.msg)
			}
		})
	}
}

func TestStackBudget(t *testing.T) {
	src := "function f() { return g(); }\nfunction g() { return 1; }\nf();"

	vm := newTestVM(t, DefaultOptions())
	if v := eval(t, vm, src); v.String() != "1" {
		t.Fatalf("f() = %s, want 1", v)
	}

	// room for main and f, not for g
	opts := DefaultOptions()
	opts.MaxStackSize = 2*frameBaseSize + frameBaseSize/2
	small := newTestVM(t, opts)
	if _, err := small.Compile([]byte(src)); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	_, err := small.Start()
	if err == nil || !strings.Contains(err.Error(), "Maximum call stack size exceeded") {
		t.Errorf("Start = %v, want stack overflow", err)
	}
}

func TestUnboundedRecursion(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	if _, err := vm.Compile([]byte("function r() { return r(); }\nr();")); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	_, err := vm.Start()
	if err == nil || !strings.Contains(err.Error(), "RangeError") {
		t.Fatalf("Start = %v, want RangeError", err)
	}
	if vm.stackSize != 0 || vm.top != vm.base {
		t.Errorf("frames leaked: stackSize=%d", vm.stackSize)
	}
}

func TestInvoke(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "function add(a, b) { return a + b + this.base; }")

	fn, ok := vm.Binding("add")
	if !ok {
		t.Fatal("add is not bound")
	}
	this := vm.Runtime().NewObject()
	this.Set("base", types.NewInt(100))

	v, err := vm.Invoke(fn, this, []types.Value{types.NewInt(1), types.NewInt(2)})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if v.String() != "103" {
		t.Errorf("add = %s, want 103", v)
	}

	// a bare call binds undefined
	if err := vm.Call(fn, nil, nil); err == nil {
		t.Error("Call with undefined this should throw")
	}

	if _, err := vm.Invoke(types.NewInt(1), nil, nil); err == nil {
		t.Error("Invoke of a number should fail")
	}
}

func TestNativeSeesConstructorFlag(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	var calls []bool
	probe := vm.Runtime().NewFunction("Probe", 0, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		calls = append(calls, rt.IsConstructor())
		return types.Ok(rt.NewObject())
	})
	probe.Func.Ctor = true
	if err := vm.Bind("Probe", probe); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	eval(t, vm, "Probe();\nnew Probe();")
	if len(calls) != 2 || calls[0] || !calls[1] {
		t.Errorf("IsConstructor per call = %v, want [false true]", calls)
	}
}

func TestMemoryLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MemoryLimit = 64 * 1024
	vm := newTestVM(t, opts)

	if _, err := vm.Compile([]byte("var s = 'x';\nwhile (true) { s = s + s; }")); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	_, err := vm.Start()
	if !IsMemory(err) {
		t.Fatalf("Start = %v, want memory error", err)
	}
	exc, ok := vm.Exception()
	if !ok || exc != MemoryErrorValue {
		t.Errorf("exception = %v, want the MemoryError sentinel", exc)
	}
}

func TestMemoryErrorIsCatchable(t *testing.T) {
	opts := DefaultOptions()
	opts.MemoryLimit = 64 * 1024
	vm := newTestVM(t, opts)

	src := `var caught = false;
try { var s = 'x'; while (true) { s = s + s; } } catch (e) { caught = e === undefined ? false : true; s = ''; }
caught;`
	if v := eval(t, vm, src); v.String() != "true" {
		t.Errorf("caught = %s, want true", v)
	}
}

func TestDisassemble(t *testing.T) {
	var buf strings.Builder
	opts := DefaultOptions()
	opts.Disassemble = true
	opts.Output = &buf
	vm := newTestVM(t, opts)

	eval(t, vm, "function sq(x) { return x * x; }\nsq(3);")
	out := buf.String()
	for _, want := range []string{"main main", "function sq", "MUL", "CALL", "RETURN"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestObjectAssignArrayWrites(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	if v := eval(t, vm, "Object.assign([1], {'2': 3, tag: 'x'}).join('|')"); v.String() != "1||3" {
		t.Errorf("assigned array = %s, want 1||3", v)
	}

	opts := DefaultOptions()
	opts.MemoryLimit = 1 << 20
	limited := newTestVM(t, opts)
	if _, err := limited.Compile([]byte("var arr = [];\nObject.assign(arr, {'100000': 1});")); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, err := limited.Start(); !IsMemory(err) {
		t.Errorf("Start = %v, want memory error", err)
	}
}
