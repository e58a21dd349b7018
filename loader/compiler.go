package loader

import (
	"context"
	"fmt"
	"io"
	"reflect"
)

// Compiler is the structural contract of a loaded compiler entry point: it
// writes diagnostics to out and returns an exit-code object.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: out belongs to the caller and must not be closed.
// - Errors: an error means the compiler could not run, not that the sources
//   failed to compile.
type Compiler interface {
	Exec(ctx context.Context, out io.Writer, args []string) (any, error)
}

// ExitCode is the exit-code object returned by the drivers in this package.
type ExitCode int

// Code returns the numeric exit code.
func (e ExitCode) Code() int {
	return int(e)
}

// ExitCodeOf extracts a numeric exit code from an object returned by a loaded
// compiler. It accepts integers, values with a Code() or GetCode() method
// returning an integer, and structs with an exported integer Code field.
func ExitCodeOf(v any) (int, error) {
	switch c := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: nil exit code", ErrIncompatible)
	case int:
		return c, nil
	case int32:
		return int(c), nil
	case int64:
		return int(c), nil
	case interface{ Code() int }:
		return c.Code(), nil
	case interface{ GetCode() int }:
		return c.GetCode(), nil
	}

	rv := reflect.ValueOf(v)
	for _, name := range []string{"Code", "GetCode"} {
		m := rv.MethodByName(name)
		if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
			continue
		}
		if out := m.Call(nil)[0]; out.CanInt() {
			return int(out.Int()), nil
		}
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, fmt.Errorf("%w: nil exit code", ErrIncompatible)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName("Code"); f.IsValid() && f.CanInt() && f.CanInterface() {
			return int(f.Int()), nil
		}
	}
	return 0, fmt.Errorf("%w: cannot read exit code from %T", ErrIncompatible, v)
}

// AsCompiler checks that v satisfies Compiler.
func AsCompiler(v any) (Compiler, error) {
	c, ok := v.(Compiler)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no Exec(context.Context, io.Writer, []string) (any, error)", ErrIncompatible, v)
	}
	return c, nil
}
