package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"ember/addons/timers"
	"ember/builtins"
	"ember/parser"
	"ember/vm"
)

const (
	historyFile = ".ember_history"
	promptMain  = ">> "
	promptCont  = ".. "
)

// runShell runs the interactive shell until EOF. Every entry is compiled
// into the same instance, so bindings persist between lines.
func runShell(ctx context.Context, driver *timers.Driver, opts vm.Options) int {
	v, err := vm.Create(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		v.Destroy()
		driver.Forget(v)
	}()

	fmt.Printf("interactive ember %s\n", builtins.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readEntry(ln, opts.File)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if out := evalEntry(ctx, driver, v, code); out != "" {
			fmt.Println(out)
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// evalEntry compiles and runs one shell entry and renders its value or
// the exception it raised
func evalEntry(ctx context.Context, driver *timers.Driver, v *vm.VM, code string) string {
	if _, err := v.Compile([]byte(code)); err != nil {
		return v.ExceptionString()
	}
	val, err := v.Start()
	if err != nil {
		return v.ExceptionString()
	}
	if driver.Pending(v) > 0 || v.Waiting() {
		if err := driver.Loop(ctx, v); err != nil {
			if s := v.ExceptionString(); s != "" {
				return s
			}
			return err.Error()
		}
	}
	if val == nil {
		return "undefined"
	}
	return val.String()
}

// readEntry reads lines until they form a complete script or a real
// syntax error
func readEntry(ln *liner.State, file string) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := parser.Parse(src, file, parser.ModeScript); err != nil && incomplete(err) {
			continue
		}
		return src, true
	}
}

// incomplete reports whether a parse error means more input is needed
func incomplete(err error) bool {
	var se *parser.SyntaxError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Message {
	case "Unexpected end of input", "unterminated comment":
		return true
	}
	return false
}
