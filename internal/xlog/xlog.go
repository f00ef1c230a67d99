// Package xlog provides terse call-site diagnostics: small helpers for
// logging a swallowed error with its call site, and for panicking on an
// engine-internal invariant violation. They are never used to validate
// caller-supplied data — that always returns a typed error instead.
package xlog

import (
	"fmt"
	"log"
	"path/filepath"
	"runtime"
)

// Err logs err annotated with its caller's file:line and returns it
// unchanged, so it can be used inline: `return xlog.Err(err)`.
func Err(err error) error {
	if err != nil {
		log.Printf("%s %+v", location(2), err)
	}
	return err
}

// CondPanic panics with err if condition is true. Reserved for
// conditions that indicate a bug in this module, never for malformed
// caller input.
func CondPanic(condition bool, err error) {
	if condition {
		panic(err)
	}
}

// AssertTrue panics if b is false. Same scope as CondPanic.
func AssertTrue(b bool, format string, args ...interface{}) {
	if !b {
		panic(fmt.Sprintf(format, args...))
	}
}

func location(deep int) string {
	_, file, line, ok := runtime.Caller(deep)
	if !ok {
		return "???"
	}
	return filepath.Base(file) + ":" + itoa(line)
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
