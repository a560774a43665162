package main

import (
	"fmt"
	"io"
	"strings"

	"ember/types"
	"ember/vm"
)

// consoleAddon binds a console object whose log, info, warn and error
// methods print their arguments, space separated, to w
func consoleAddon(w io.Writer) *vm.Addon {
	return &vm.Addon{
		Name: "console",
		Init: func(v *vm.VM) error {
			rt := v.Runtime()
			console := rt.NewObject()
			for _, name := range []string{"log", "info", "warn", "error"} {
				console.Define(name, rt.NewFunction(name, 0, printer(w)), false)
			}
			return v.Bind("console", console)
		},
	}
}

func printer(w io.Writer) types.NativeFunc {
	return func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		parts := make([]string, len(args))
		for i, arg := range args {
			s, r := rt.ToString(arg)
			if r.IsError() {
				return r
			}
			parts[i] = s
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
		return types.Ok(types.Undefined)
	}
}
