package types

// ObjType indexes the constructor and prototype tables. The builtin types
// occupy the fixed range below ObjTypeMax; addons append after it.
type ObjType int

const (
	ObjTypeObject ObjType = iota
	ObjTypeFunction
	ObjTypeArray
	ObjTypeBoolean
	ObjTypeNumber
	ObjTypeString
	ObjTypePromise
	ObjTypeError
	ObjTypeEvalError
	ObjTypeInternalError
	ObjTypeRangeError
	ObjTypeReferenceError
	ObjTypeSyntaxError
	ObjTypeTypeError
	ObjTypeURIError
	ObjTypeMemoryError
	ObjTypeMax
)

var objTypeNames = [ObjTypeMax]string{
	ObjTypeObject:         "Object",
	ObjTypeFunction:       "Function",
	ObjTypeArray:          "Array",
	ObjTypeBoolean:        "Boolean",
	ObjTypeNumber:         "Number",
	ObjTypeString:         "String",
	ObjTypePromise:        "Promise",
	ObjTypeError:          "Error",
	ObjTypeEvalError:      "EvalError",
	ObjTypeInternalError:  "InternalError",
	ObjTypeRangeError:     "RangeError",
	ObjTypeReferenceError: "ReferenceError",
	ObjTypeSyntaxError:    "SyntaxError",
	ObjTypeTypeError:      "TypeError",
	ObjTypeURIError:       "URIError",
	ObjTypeMemoryError:    "MemoryError",
}

// String returns the constructor name of a builtin type
func (t ObjType) String() string {
	if t >= 0 && t < ObjTypeMax {
		return objTypeNames[t]
	}
	return "Object"
}

// IsError returns true for the Error family
func (t ObjType) IsError() bool {
	return t >= ObjTypeError && t <= ObjTypeMemoryError
}
