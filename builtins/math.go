package builtins

import (
	"math"
	"math/rand/v2"

	"ember/types"
)

func buildMath() *types.Object {
	return namespace([]Method{
		{"abs", 1, mathFunc(math.Abs)},
		{"floor", 1, mathFunc(math.Floor)},
		{"ceil", 1, mathFunc(math.Ceil)},
		{"round", 1, mathFunc(jsRound)},
		{"trunc", 1, mathFunc(math.Trunc)},
		{"sign", 1, mathFunc(sign)},
		{"sqrt", 1, mathFunc(math.Sqrt)},
		{"cbrt", 1, mathFunc(math.Cbrt)},
		{"exp", 1, mathFunc(math.Exp)},
		{"log", 1, mathFunc(math.Log)},
		{"log2", 1, mathFunc(math.Log2)},
		{"log10", 1, mathFunc(math.Log10)},
		{"sin", 1, mathFunc(math.Sin)},
		{"cos", 1, mathFunc(math.Cos)},
		{"tan", 1, mathFunc(math.Tan)},
		{"atan", 1, mathFunc(math.Atan)},
		{"atan2", 2, builtinMathAtan2},
		{"pow", 2, builtinMathPow},
		{"hypot", 2, builtinMathHypot},
		{"min", 2, builtinMathMin},
		{"max", 2, builtinMathMax},
		{"random", 0, builtinMathRandom},
	}, []Prop{
		{"PI", types.NewNum(math.Pi)},
		{"E", types.NewNum(math.E)},
		{"LN2", types.NewNum(math.Ln2)},
		{"LN10", types.NewNum(math.Ln10)},
		{"LOG2E", types.NewNum(math.Log2E)},
		{"LOG10E", types.NewNum(math.Log10E)},
		{"SQRT2", types.NewNum(math.Sqrt2)},
		{"SQRT1_2", types.NewNum(math.Sqrt2 / 2)},
	})
}

// mathFunc adapts a unary float function
func mathFunc(fn func(float64) float64) types.NativeFunc {
	return func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		return types.Ok(types.NewNum(fn(types.ToNumber(types.Arg(args, 0)))))
	}
}

// jsRound rounds half up, unlike math.Round which rounds half away from zero
func jsRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r := math.Floor(f + 0.5)
	if r == 0 && math.Signbit(f) {
		return math.Copysign(0, -1)
	}
	return r
}

func sign(f float64) float64 {
	switch {
	case math.IsNaN(f), f == 0:
		return f
	case f > 0:
		return 1
	}
	return -1
}

// builtinMathAtan2 implements Math.atan2(y, x)
func builtinMathAtan2(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return types.Ok(types.NewNum(math.Atan2(types.ToNumber(types.Arg(args, 0)), types.ToNumber(types.Arg(args, 1)))))
}

// builtinMathPow implements Math.pow(x, y)
func builtinMathPow(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return types.Ok(types.NewNum(Pow(types.ToNumber(types.Arg(args, 0)), types.ToNumber(types.Arg(args, 1)))))
}

// Pow is exponentiation with the script language's NaN rules
func Pow(x, y float64) float64 {
	if math.IsNaN(y) || ((x == 1 || x == -1) && math.IsInf(y, 0)) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

// builtinMathHypot implements Math.hypot(...values)
func builtinMathHypot(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	sum := 0.0
	for _, a := range args {
		f := types.ToNumber(a)
		if math.IsInf(f, 0) {
			return types.Ok(types.NewNum(math.Inf(1)))
		}
		sum += f * f
	}
	return types.Ok(types.NewNum(math.Sqrt(sum)))
}

// builtinMathMin implements Math.min(...values)
func builtinMathMin(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	out := math.Inf(1)
	for _, a := range args {
		f := types.ToNumber(a)
		if math.IsNaN(f) {
			return types.Ok(types.NewNum(f))
		}
		out = math.Min(out, f)
	}
	return types.Ok(types.NewNum(out))
}

// builtinMathMax implements Math.max(...values)
func builtinMathMax(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	out := math.Inf(-1)
	for _, a := range args {
		f := types.ToNumber(a)
		if math.IsNaN(f) {
			return types.Ok(types.NewNum(f))
		}
		out = math.Max(out, f)
	}
	return types.Ok(types.NewNum(out))
}

// builtinMathRandom implements Math.random()
func builtinMathRandom(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return types.Ok(types.NewNum(rand.Float64()))
}
