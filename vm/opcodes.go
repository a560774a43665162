package vm

import "fmt"

// OpCode represents a bytecode instruction
type OpCode byte

// Stack Operations
const (
	OP_CONST OpCode = iota // Push constant [index]
	OP_UNDEF               // Push undefined
	OP_NULL                // Push null
	OP_TRUE                // Push true
	OP_FALSE               // Push false
	OP_POP                 // Discard top of stack
	OP_DUP                 // Duplicate top of stack
	OP_DUP2                // Duplicate the top two values
	OP_SWAP                // Swap the top two values
	OP_ROT3                // Move top below the next two: a b c -> c a b
	OP_ROT4                // Move top below the next three: a b c d -> d a b c
)

// Variable Operations
const (
	OP_GET_LOCAL   OpCode = OP_ROT4 + 1 + iota // Push env slot [depth, index]
	OP_SET_LOCAL                               // Store top to env slot [depth, index]
	OP_GET_GLOBAL                              // Push global scope slot [index]
	OP_SET_GLOBAL                              // Store top to global scope slot [index]
	OP_GET_NAME                                // Push global object property, ReferenceError if missing [name]
	OP_TYPEOF_NAME                             // Push typeof of global object property [name]
	OP_SET_NAME                                // Store top to global object property [name]
	OP_THIS                                    // Push this
	OP_CALLEE                                  // Push the running function
	OP_THROW_CONST                             // Raise assignment to constant [name]
)

// Property Operations
const (
	OP_GET_PROP     OpCode = OP_THROW_CONST + 1 + iota // Pop obj, push obj.name [name]
	OP_SET_PROP                                        // Pop value, obj; set obj.name; push value [name]
	OP_GET_INDEX                                       // Pop key, obj; push obj[key]
	OP_SET_INDEX                                       // Pop value, key, obj; set obj[key]; push value
	OP_DELETE_PROP                                     // Pop obj; push delete obj.name [name]
	OP_DELETE_INDEX                                    // Pop key, obj; push delete obj[key]
	OP_ARRAY                                           // Pop N items, push array [count]
	OP_OBJECT                                          // Push empty object
	OP_INIT_PROP                                       // Pop value; define on object below [name]
	OP_INIT_INDEX                                      // Pop value, key; define on object below
	OP_CLOSURE                                         // Push function object [func index]
)

// Arithmetic Operations
const (
	OP_ADD OpCode = OP_CLOSURE + 1 + iota // Pop b, a; push a + b
	OP_SUB                                // Pop b, a; push a - b
	OP_MUL                                // Pop b, a; push a * b
	OP_DIV                                // Pop b, a; push a / b
	OP_MOD                                // Pop b, a; push a % b
	OP_POW                                // Pop b, a; push a ** b
	OP_NEG                                // Pop a; push -a
	OP_PLUS                               // Pop a; push +a
	OP_INC                                // Pop a; push +a + 1
	OP_DEC                                // Pop a; push +a - 1
)

// Comparison Operations
const (
	OP_EQ         OpCode = OP_DEC + 1 + iota // Pop b, a; push a == b
	OP_NE                                    // Pop b, a; push a != b
	OP_STRICT_EQ                             // Pop b, a; push a === b
	OP_STRICT_NE                             // Pop b, a; push a !== b
	OP_LT                                    // Pop b, a; push a < b
	OP_LE                                    // Pop b, a; push a <= b
	OP_GT                                    // Pop b, a; push a > b
	OP_GE                                    // Pop b, a; push a >= b
	OP_IN                                    // Pop b, a; push a in b
	OP_INSTANCEOF                            // Pop b, a; push a instanceof b
)

// Logical and Unary Operations
const (
	OP_NOT    OpCode = OP_INSTANCEOF + 1 + iota // Pop a; push !a
	OP_TYPEOF                                   // Pop a; push typeof a
	OP_VOID                                     // Pop a; push undefined
)

// Bitwise Operations
const (
	OP_BITAND OpCode = OP_VOID + 1 + iota // Pop b, a; push a & b
	OP_BITOR                              // Pop b, a; push a | b
	OP_BITXOR                             // Pop b, a; push a ^ b
	OP_BITNOT                             // Pop a; push ~a
	OP_SHL                                // Pop b, a; push a << b
	OP_SHR                                // Pop b, a; push a >> b
	OP_USHR                               // Pop b, a; push a >>> b
)

// Control Flow
const (
	OP_JUMP               OpCode = OP_USHR + 1 + iota // Jump [target]
	OP_JUMP_IF_FALSE                                  // Pop; jump if falsy [target]
	OP_JUMP_IF_TRUE                                   // Pop; jump if truthy [target]
	OP_JUMP_IF_FALSE_KEEP                             // Jump keeping the value if falsy, else pop [target]
	OP_JUMP_IF_TRUE_KEEP                              // Jump keeping the value if truthy, else pop [target]
	OP_JUMP_IF_DEFINED                                // Jump keeping the value unless nullish, else pop [target]
	OP_CALL                                           // Pop args, this, fn; push result [argc]
	OP_NEW                                            // Pop args, fn; push constructed object [argc]
	OP_RETURN                                         // Pop and return
)

// Iteration
const (
	OP_ITER_KEYS   OpCode = OP_RETURN + 1 + iota // Pop obj; push key iterator
	OP_ITER_VALUES                               // Pop obj; push value iterator
	OP_ITER_NEXT                                 // Push next item, or pop iterator and jump [target]
)

// Exception Handling
const (
	OP_TRY     OpCode = OP_ITER_NEXT + 1 + iota // Push exception handler [catch target]
	OP_END_TRY                                  // Pop exception handler
	OP_THROW                                    // Pop and raise
)

// Modules and Completion
const (
	OP_IMPORT       OpCode = OP_THROW + 1 + iota // Push module export [name]
	OP_EXPORT                                    // Pop into the module export
	OP_STORE_RESULT                              // Pop into the completion value
	OP_LOAD_RESULT                               // Push the completion value
)

var opNames = map[OpCode]string{
	OP_CONST: "CONST", OP_UNDEF: "UNDEF", OP_NULL: "NULL", OP_TRUE: "TRUE", OP_FALSE: "FALSE",
	OP_POP: "POP", OP_DUP: "DUP", OP_DUP2: "DUP2", OP_SWAP: "SWAP", OP_ROT3: "ROT3", OP_ROT4: "ROT4",

	OP_GET_LOCAL: "GET_LOCAL", OP_SET_LOCAL: "SET_LOCAL", OP_GET_GLOBAL: "GET_GLOBAL",
	OP_SET_GLOBAL: "SET_GLOBAL", OP_GET_NAME: "GET_NAME", OP_TYPEOF_NAME: "TYPEOF_NAME",
	OP_SET_NAME: "SET_NAME", OP_THIS: "THIS", OP_CALLEE: "CALLEE", OP_THROW_CONST: "THROW_CONST",

	OP_GET_PROP: "GET_PROP", OP_SET_PROP: "SET_PROP", OP_GET_INDEX: "GET_INDEX",
	OP_SET_INDEX: "SET_INDEX", OP_DELETE_PROP: "DELETE_PROP", OP_DELETE_INDEX: "DELETE_INDEX",
	OP_ARRAY: "ARRAY", OP_OBJECT: "OBJECT", OP_INIT_PROP: "INIT_PROP", OP_INIT_INDEX: "INIT_INDEX",
	OP_CLOSURE: "CLOSURE",

	OP_ADD: "ADD", OP_SUB: "SUB", OP_MUL: "MUL", OP_DIV: "DIV", OP_MOD: "MOD", OP_POW: "POW",
	OP_NEG: "NEG", OP_PLUS: "PLUS", OP_INC: "INC", OP_DEC: "DEC",

	OP_EQ: "EQ", OP_NE: "NE", OP_STRICT_EQ: "STRICT_EQ", OP_STRICT_NE: "STRICT_NE",
	OP_LT: "LT", OP_LE: "LE", OP_GT: "GT", OP_GE: "GE", OP_IN: "IN", OP_INSTANCEOF: "INSTANCEOF",

	OP_NOT: "NOT", OP_TYPEOF: "TYPEOF", OP_VOID: "VOID",

	OP_BITAND: "BITAND", OP_BITOR: "BITOR", OP_BITXOR: "BITXOR", OP_BITNOT: "BITNOT",
	OP_SHL: "SHL", OP_SHR: "SHR", OP_USHR: "USHR",

	OP_JUMP: "JUMP", OP_JUMP_IF_FALSE: "JUMP_IF_FALSE", OP_JUMP_IF_TRUE: "JUMP_IF_TRUE",
	OP_JUMP_IF_FALSE_KEEP: "JUMP_IF_FALSE_KEEP", OP_JUMP_IF_TRUE_KEEP: "JUMP_IF_TRUE_KEEP",
	OP_JUMP_IF_DEFINED: "JUMP_IF_DEFINED", OP_CALL: "CALL", OP_NEW: "NEW", OP_RETURN: "RETURN",

	OP_ITER_KEYS: "ITER_KEYS", OP_ITER_VALUES: "ITER_VALUES", OP_ITER_NEXT: "ITER_NEXT",

	OP_TRY: "TRY", OP_END_TRY: "END_TRY", OP_THROW: "THROW",

	OP_IMPORT: "IMPORT", OP_EXPORT: "EXPORT", OP_STORE_RESULT: "STORE_RESULT", OP_LOAD_RESULT: "LOAD_RESULT",
}

// String returns the opcode name
func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", op)
}

// operands returns how many of A and B an opcode uses
func (op OpCode) operands() int {
	switch op {
	case OP_GET_LOCAL, OP_SET_LOCAL:
		return 2
	case OP_CONST, OP_GET_GLOBAL, OP_SET_GLOBAL, OP_GET_NAME, OP_TYPEOF_NAME, OP_SET_NAME,
		OP_THROW_CONST, OP_GET_PROP, OP_SET_PROP, OP_DELETE_PROP, OP_ARRAY, OP_INIT_PROP,
		OP_CLOSURE, OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE, OP_JUMP_IF_FALSE_KEEP,
		OP_JUMP_IF_TRUE_KEEP, OP_JUMP_IF_DEFINED, OP_CALL, OP_NEW, OP_ITER_NEXT, OP_TRY, OP_IMPORT:
		return 1
	}
	return 0
}

// usesConstant reports whether operand A indexes the constant pool
func (op OpCode) usesConstant() bool {
	switch op {
	case OP_CONST, OP_GET_NAME, OP_TYPEOF_NAME, OP_SET_NAME, OP_THROW_CONST,
		OP_GET_PROP, OP_SET_PROP, OP_DELETE_PROP, OP_INIT_PROP, OP_IMPORT:
		return true
	}
	return false
}
