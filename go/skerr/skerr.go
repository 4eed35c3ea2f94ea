// Package skerr provides errors that carry the call stack of the place they
// were created or wrapped, plus any context added while they propagate.
package skerr

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const maxStackDepth = 4

// StackTrace identifies a filename (base filename only) and line number.
type StackTrace struct {
	File string
	Line int
}

func (st *StackTrace) String() string {
	return fmt.Sprintf("%s:%d", st.File, st.Line)
}

// CallStack returns a slice of StackTrace representing the current stack trace.
// The lines returned start at the depth specified by startAt: 0 means the call
// to CallStack, 1 means CallStack's caller, 2 means CallStack's caller's
// caller and so on. height means how many lines to include, counting deeper
// into the stack, with zero meaning to include all stack frames.
func CallStack(height, startAt int) []StackTrace {
	stack := []StackTrace{}
	for i := 0; height == 0 || i < height; i++ {
		_, file, line, ok := runtime.Caller(startAt + i)
		if !ok {
			break
		}
		stack = append(stack, StackTrace{File: filepath.Base(file), Line: line})
	}
	return stack
}

// ErrorWithContext contains an original error with context info and a stack
// trace.
type ErrorWithContext struct {
	// Wrapped is the original error. Never nil.
	Wrapped error
	// CallStack is the stack trace at the point the error was first wrapped.
	CallStack []StackTrace
	// Context is added with Wrapf, in the order it was added.
	Context []string
}

// Error returns the context, the original error's message and the call stack.
func (err *ErrorWithContext) Error() string {
	var out strings.Builder
	for i := len(err.Context) - 1; i >= 0; i-- {
		out.WriteString(err.Context[i])
		out.WriteString(": ")
	}
	out.WriteString(err.Wrapped.Error())
	out.WriteString(". At")
	for _, st := range err.CallStack {
		out.WriteString(" ")
		out.WriteString(st.String())
	}
	return out.String()
}

// Unwrap lets errors.Is and errors.As see the original error.
func (err *ErrorWithContext) Unwrap() error {
	return err.Wrapped
}

// Wrap adds stack trace info to err if not already present. Returns nil if err
// is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ErrorWithContext); ok {
		return err
	}
	return &ErrorWithContext{
		Wrapped:   err,
		CallStack: CallStack(maxStackDepth, 2),
	}
}

// Wrapf adds context and stack trace info to err. Existing stack trace info
// is preserved. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if ewc, ok := err.(*ErrorWithContext); ok {
		ctx := make([]string, 0, len(ewc.Context)+1)
		ctx = append(ctx, ewc.Context...)
		return &ErrorWithContext{
			Wrapped:   ewc.Wrapped,
			CallStack: ewc.CallStack,
			Context:   append(ctx, msg),
		}
	}
	return &ErrorWithContext{
		Wrapped:   err,
		CallStack: CallStack(maxStackDepth, 2),
		Context:   []string{msg},
	}
}

// Fmt is equivalent to Wrap(fmt.Errorf(...)).
func Fmt(format string, args ...interface{}) error {
	return &ErrorWithContext{
		Wrapped:   fmt.Errorf(format, args...),
		CallStack: CallStack(maxStackDepth, 2),
	}
}
