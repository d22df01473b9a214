// Package errwrap annotates errors with the function that returned them.
package errwrap

import (
	"runtime"
	"strings"
)

// Error is an error annotated with the calling function and an optional
// context, such as the reference being loaded.
type Error struct {
	Func    string
	Context string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Func)
	b.WriteString(": ")
	if e.Context != "" {
		b.WriteString(e.Context)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns an error annotated with the caller function name.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Func: callerName(2), Err: err}
}

// WrapWith returns an error annotated with caller function name and context.
func WrapWith(err error, context string) error {
	if err == nil {
		return nil
	}
	return &Error{Func: callerName(2), Context: context, Err: err}
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
