// Package crypto provides the "crypto" module: incremental hashes and
// HMACs over a fixed set of digest algorithms.
package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"ember/builtins"
	"ember/types"
	"ember/vm"
)

const (
	hashTypeName = "Hash"
	hmacTypeName = "Hmac"
)

// algorithms maps algorithm names accepted by createHash and createHmac
var algorithms = map[string]func() hash.Hash{
	"md5":       md5.New,
	"sha1":      sha1.New,
	"sha224":    sha256.New224,
	"sha256":    sha256.New,
	"sha384":    sha512.New384,
	"sha512":    sha512.New,
	"ripemd160": ripemd160.New,
	"sha3-256":  sha3.New256,
	"sha3-512":  sha3.New512,
}

// Algorithms returns the supported algorithm names
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	return names
}

// Addon returns the crypto addon. Its preinit pushes the Hash and Hmac
// prototypes; its init registers the module for import.
func Addon() *vm.Addon {
	return &vm.Addon{
		Name:    "crypto",
		Preinit: preinit,
		Init:    initModule,
	}
}

func preinit(v *vm.VM) error {
	if _, err := v.PushType(builtins.TypeSpec{
		Name:      hashTypeName,
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Methods: []builtins.Method{
			{Name: "update", Length: 2, Fn: hashUpdate},
			{Name: "digest", Length: 1, Fn: hashDigest},
			{Name: "copy", Length: 0, Fn: hashCopy},
		},
	}); err != nil {
		return err
	}
	_, err := v.PushType(builtins.TypeSpec{
		Name:      hmacTypeName,
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Methods: []builtins.Method{
			{Name: "update", Length: 2, Fn: hmacUpdate},
			{Name: "digest", Length: 1, Fn: hmacDigest},
		},
	})
	return err
}

func initModule(v *vm.VM) error {
	hashType, ok := v.LookupType(hashTypeName)
	if !ok {
		return fmt.Errorf("crypto: type %s was not pushed", hashTypeName)
	}
	hmacType, ok := v.LookupType(hmacTypeName)
	if !ok {
		return fmt.Errorf("crypto: type %s was not pushed", hmacTypeName)
	}

	rt := v.Runtime()
	mod := rt.NewObject()
	mod.Define("createHash", rt.NewFunction("createHash", 1, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		return createHash(rt, hashType, args)
	}), false)
	mod.Define("createHmac", rt.NewFunction("createHmac", 2, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		return createHmac(rt, hmacType, args)
	}), false)

	v.AddModule("crypto", mod)
	v.Logger().Debug("registered module", "module", "crypto", "algorithms", len(algorithms))
	return nil
}

// digest is the state behind a Hash or Hmac object. h is nil once the
// digest has been produced.
type digest struct {
	alg  string
	hmac bool
	h    hash.Hash
	// input replayed by copy when the hash cannot marshal its state
	replay []byte
}

func (d *digest) write(p []byte) {
	d.h.Write(p)
	if _, ok := d.h.(encoding.BinaryMarshaler); !ok && !d.hmac {
		d.replay = append(d.replay, p...)
	}
}

// clone returns an independent digest with the same accumulated input
func (d *digest) clone() (*digest, error) {
	h := algorithms[d.alg]()
	if m, ok := d.h.(encoding.BinaryMarshaler); ok {
		state, err := m.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if err := h.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
			return nil, err
		}
		return &digest{alg: d.alg, h: h}, nil
	}
	h.Write(d.replay)
	return &digest{alg: d.alg, h: h, replay: append([]byte(nil), d.replay...)}, nil
}

func algorithm(rt types.Runtime, v types.Value) (string, types.Result) {
	s, ok := v.(types.StrValue)
	if !ok {
		return "", rt.ThrowError(types.ObjTypeTypeError, "algorithm must be a string")
	}
	if _, ok := algorithms[s.Value()]; !ok {
		return "", rt.ThrowError(types.ObjTypeTypeError, "not supported algorithm: \"%s\"", s.Value())
	}
	return s.Value(), types.Ok(nil)
}

func newDigestObject(rt types.Runtime, proto *types.Object, d *digest) types.Result {
	o := rt.NewObject()
	o.Proto = proto
	o.Internal = d
	return types.Ok(o)
}

func createHash(rt types.Runtime, t types.ObjType, args []types.Value) types.Result {
	alg, r := algorithm(rt, types.Arg(args, 0))
	if r.IsError() {
		return r
	}
	return newDigestObject(rt, rt.Proto(t), &digest{alg: alg, h: algorithms[alg]()})
}

func createHmac(rt types.Runtime, t types.ObjType, args []types.Value) types.Result {
	alg, r := algorithm(rt, types.Arg(args, 0))
	if r.IsError() {
		return r
	}
	key, r := data(rt, types.Arg(args, 1), types.Undefined)
	if r.IsError() {
		return r
	}
	return newDigestObject(rt, rt.Proto(t), &digest{alg: alg, hmac: true, h: hmac.New(algorithms[alg], key)})
}

// thisDigest resolves the digest state of a Hash or Hmac receiver
func thisDigest(rt types.Runtime, this types.Value, kind string) (*digest, types.Result) {
	if o, ok := this.(*types.Object); ok {
		if d, ok := o.Internal.(*digest); ok && d.hmac == (kind == "hmac") {
			return d, types.Ok(nil)
		}
	}
	return nil, rt.ThrowError(types.ObjTypeTypeError, "\"this\" is not a %s object", kind)
}

func hashUpdate(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return update(rt, this, args, "hash")
}

func hmacUpdate(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return update(rt, this, args, "hmac")
}

func hashDigest(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return finish(rt, this, args, "hash")
}

func hmacDigest(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return finish(rt, this, args, "hmac")
}

// update implements update(data[, inputEncoding]) and returns this
func update(rt types.Runtime, this types.Value, args []types.Value, kind string) types.Result {
	d, r := thisDigest(rt, this, kind)
	if r.IsError() {
		return r
	}
	if d.h == nil {
		return rt.ThrowError(types.ObjTypeError, "Digest already called")
	}
	p, r := data(rt, types.Arg(args, 0), types.Arg(args, 1))
	if r.IsError() {
		return r
	}
	d.write(p)
	return types.Ok(this)
}

// finish implements digest([encoding]). The state is spent afterwards.
func finish(rt types.Runtime, this types.Value, args []types.Value, kind string) types.Result {
	d, r := thisDigest(rt, this, kind)
	if r.IsError() {
		return r
	}
	if d.h == nil {
		return rt.ThrowError(types.ObjTypeError, "Digest already called")
	}
	enc, r := outputEncoding(rt, types.Arg(args, 0))
	if r.IsError() {
		return r
	}

	sum := d.h.Sum(nil)
	d.h = nil
	d.replay = nil

	out := enc(sum)
	if err := rt.Alloc(int64(len(out))); err != nil {
		return rt.Throw(types.MemoryError)
	}
	return types.Ok(types.NewStr(out))
}

func hashCopy(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	d, r := thisDigest(rt, this, "hash")
	if r.IsError() {
		return r
	}
	if d.h == nil {
		return rt.ThrowError(types.ObjTypeError, "Digest already called")
	}
	c, err := d.clone()
	if err != nil {
		return rt.ThrowError(types.ObjTypeInternalError, "cannot copy %s state: %s", d.alg, err)
	}
	return newDigestObject(rt, this.(*types.Object).Proto, c)
}

// data converts an update argument to bytes. Strings are decoded with the
// given input encoding, utf8 by default.
func data(rt types.Runtime, v, enc types.Value) ([]byte, types.Result) {
	s, ok := v.(types.StrValue)
	if !ok {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "data is not a string")
	}
	name := "utf8"
	if e, ok := enc.(types.StrValue); ok {
		name = e.Value()
	} else if enc != types.Undefined && enc != nil {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "encoding must be a string")
	}

	var (
		p   []byte
		err error
	)
	switch name {
	case "utf8", "utf-8":
		p = []byte(s.Value())
	case "hex":
		p, err = hex.DecodeString(s.Value())
	case "base64":
		p, err = base64.StdEncoding.DecodeString(s.Value())
	case "base64url":
		p, err = base64.RawURLEncoding.DecodeString(s.Value())
	default:
		return nil, rt.ThrowError(types.ObjTypeTypeError, "Unknown encoding: \"%s\"", name)
	}
	if err != nil {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "invalid %s string", name)
	}
	return p, types.Ok(nil)
}

// outputEncoding resolves the digest encoding; undefined yields the raw
// bytes as a string of one character per byte
func outputEncoding(rt types.Runtime, v types.Value) (func([]byte) string, types.Result) {
	if v == types.Undefined || v == nil {
		return byteString, types.Ok(nil)
	}
	s, ok := v.(types.StrValue)
	if !ok {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "encoding must be a string")
	}
	switch s.Value() {
	case "hex":
		return hex.EncodeToString, types.Ok(nil)
	case "base64":
		return base64.StdEncoding.EncodeToString, types.Ok(nil)
	case "base64url":
		return base64.RawURLEncoding.EncodeToString, types.Ok(nil)
	}
	return nil, rt.ThrowError(types.ObjTypeTypeError, "Unknown digest encoding: \"%s\"", s.Value())
}

// byteString maps every byte to the code point of the same value, so
// length and charCodeAt see the digest bytes
func byteString(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
