package vm

import (
	"fmt"
	"io"

	"ember/types"
)

// Disassemble writes a listing of the lambda and its nested functions
func (l *Lambda) Disassemble(w io.Writer) {
	name := l.Name
	if name == "" {
		name = "anonymous"
	}
	fmt.Fprintf(w, "%s %s (%s) params=%d locals=%d\n", l.Entry, name, l.File, l.NumParams, l.NumLocals)

	line := 0
	for ip, in := range l.Code {
		src := "    "
		if n := l.LineForIP(ip); n != line {
			line = n
			src = fmt.Sprintf("%4d", n)
		}
		fmt.Fprintf(w, "%s %05d %-22s", src, ip, in.Op)
		switch in.Op.operands() {
		case 2:
			fmt.Fprintf(w, " %d %d", in.A, in.B)
		case 1:
			fmt.Fprintf(w, " %d", in.A)
			if in.Op.usesConstant() && in.A < len(l.Constants) {
				fmt.Fprintf(w, "\t; %s", constantString(l.Constants[in.A]))
			}
		}
		fmt.Fprintln(w)
	}

	for _, fn := range l.Funcs {
		fmt.Fprintln(w)
		fn.Disassemble(w)
	}
}

func constantString(v types.Value) string {
	if s, ok := v.(types.StrValue); ok {
		return types.Quote(s.Value())
	}
	return v.String()
}
