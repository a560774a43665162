package builtins

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"

	"ember/types"
)

func buildJSON() *types.Object {
	return namespace([]Method{
		{"stringify", 3, builtinJSONStringify},
		{"parse", 2, builtinJSONParse},
	}, nil)
}

// errSkip marks values that stringify omits (undefined, functions)
var errSkip = errors.New("skip")

// orderedMap preserves property order when marshaled to JSON
type orderedMapEntry struct {
	key   string
	value interface{}
}

type orderedMap struct {
	entries []orderedMapEntry
}

// MarshalJSON implements json.Marshaler for orderedMap
func (om *orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range om.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := marshal(entry.key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := marshal(entry.value)
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal encodes without HTML escaping
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// stringifier converts script values into Go values for encoding/json
type stringifier struct {
	rt       types.Runtime
	replacer *types.Object
	seen     []*types.Object
	thrown   types.Result
}

func (s *stringifier) fail(r types.Result) error {
	s.thrown = r
	return errors.New("thrown")
}

func (s *stringifier) convert(holder *types.Object, key string, v types.Value) (interface{}, error) {
	if o, ok := v.(*types.Object); ok && !o.IsCallable() {
		if toJSON := callable(o.Get("toJSON")); toJSON != nil {
			r := s.rt.Call(toJSON, o, []types.Value{types.NewStr(key)})
			if r.IsError() {
				return nil, s.fail(r)
			}
			v = r.Val
		}
	}
	if s.replacer != nil {
		r := s.rt.Call(s.replacer, holder, []types.Value{types.NewStr(key), v})
		if r.IsError() {
			return nil, s.fail(r)
		}
		v = r.Val
	}

	switch val := v.(type) {
	case types.UndefinedValue:
		return nil, errSkip
	case types.NullValue:
		return nil, nil
	case types.BoolValue:
		return val.Val, nil
	case types.NumValue:
		if math.IsNaN(val.Val) || math.IsInf(val.Val, 0) {
			return nil, nil
		}
		return json.Number(types.FormatNumber(val.Val)), nil
	case types.StrValue:
		return val.Value(), nil
	case *types.Object:
		return s.convertObject(val)
	}
	return nil, errSkip
}

func (s *stringifier) convertObject(o *types.Object) (interface{}, error) {
	if o.IsCallable() {
		return nil, errSkip
	}
	switch inner := o.Internal.(type) {
	case types.NumValue, types.StrValue, types.BoolValue:
		return s.convert(nil, "", inner.(types.Value))
	}
	for _, p := range s.seen {
		if p == o {
			return nil, s.fail(s.rt.ThrowError(types.ObjTypeTypeError, "Nested too deep or a cyclic structure"))
		}
	}
	s.seen = append(s.seen, o)
	defer func() { s.seen = s.seen[:len(s.seen)-1] }()

	if o.IsArray() {
		arr := make([]interface{}, len(o.Items))
		for i, item := range o.Items {
			v, err := s.convert(o, types.FormatNumber(float64(i)), item)
			if errors.Is(err, errSkip) {
				v, err = nil, nil
			}
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	}

	om := &orderedMap{}
	for _, k := range o.Keys() {
		v, err := s.convert(o, k, ownValue(o, k))
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		om.entries = append(om.entries, orderedMapEntry{key: k, value: v})
	}
	return om, nil
}

// builtinJSONStringify implements JSON.stringify(value[, replacer[, indent]])
func builtinJSONStringify(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s := &stringifier{rt: rt, replacer: callable(types.Arg(args, 1))}

	indent := ""
	switch sp := types.Arg(args, 2).(type) {
	case types.NumValue:
		n := int(math.Min(10, math.Max(0, sp.Val)))
		indent = strings.Repeat(" ", n)
	case types.StrValue:
		indent = sp.Value()
		if len(indent) > 10 {
			indent = indent[:10]
		}
	}

	holder := rt.NewObject()
	v, err := s.convert(holder, "", types.Arg(args, 0))
	if errors.Is(err, errSkip) {
		return types.Ok(types.Undefined)
	}
	if err != nil {
		return s.thrown
	}

	data, err := marshal(v)
	if err != nil {
		return rt.ThrowError(types.ObjTypeTypeError, "JSON.stringify: %s", err.Error())
	}
	if indent != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", indent); err == nil {
			data = buf.Bytes()
		}
	}
	if err := rt.Alloc(int64(len(data))); err != nil {
		return types.Thrown(types.MemoryError)
	}
	return types.Ok(types.NewStr(string(data)))
}

// builtinJSONParse implements JSON.parse(text[, reviver])
func builtinJSONParse(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	text, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeValue(rt, dec)
	if err == nil {
		if _, extra := dec.Token(); extra != io.EOF {
			err = errors.New("unexpected data after JSON value")
		}
	}
	if err != nil {
		return rt.ThrowError(types.ObjTypeSyntaxError, "JSON.parse: %s", err.Error())
	}

	if reviver := callable(types.Arg(args, 1)); reviver != nil {
		holder := rt.NewObject()
		holder.Set("", v)
		return revive(rt, reviver, holder, "")
	}
	return types.Ok(v)
}

// decodeValue builds script values token by token so object key order is kept
func decodeValue(rt types.Runtime, dec *json.Decoder) (types.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var items []types.Value
			for dec.More() {
				v, err := decodeValue(rt, dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return rt.NewArray(items), nil
		case '{':
			o := rt.NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errors.New("object key must be a string")
				}
				v, err := decodeValue(rt, dec)
				if err != nil {
					return nil, err
				}
				o.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return o, nil
		}
		return nil, errors.New("unexpected delimiter")
	case json.Number:
		return types.NewNum(types.ParseNumber(string(t))), nil
	case string:
		return types.NewStr(t), nil
	case bool:
		return types.NewBool(t), nil
	case nil:
		return types.Null, nil
	}
	return nil, errors.New("unexpected token")
}

func revive(rt types.Runtime, reviver *types.Object, holder *types.Object, key string) types.Result {
	v := ownValue(holder, key)
	if o, ok := v.(*types.Object); ok {
		for _, k := range o.Keys() {
			r := revive(rt, reviver, o, k)
			if r.IsError() {
				return r
			}
			if _, undef := r.Val.(types.UndefinedValue); undef {
				if !o.IsArray() {
					o.Delete(k)
				}
				continue
			}
			if idx, isIdx := types.ArrayIndex(k); isIdx && o.IsArray() {
				o.Items[idx] = r.Val
			} else {
				o.Set(k, r.Val)
			}
		}
	}
	return rt.Call(reviver, holder, []types.Value{types.NewStr(key), v})
}
