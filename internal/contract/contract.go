// Package contract implements the precondition-check primitive used by
// block and its collaborators.
//
// block's primitives have no recoverable error path: a precondition
// violation is a programming bug, not a runtime condition a caller can be
// expected to handle (spec §7, "Contract violation"). The teacher this
// module is built from expresses the same idea with the runtime's own
// fatal-abort builtins, throw("...") and print("..."), which this module
// cannot link (they are assembly stubs private to package runtime). A
// panic carrying the same message is the direct idiomatic substitute.
package contract

import "fmt"

// Require panics with msg if cond is false. Callers pass a fully-formed
// message; Require does no formatting itself so that the fast path (cond
// true) never builds a string.
func Require(cond bool, msg string) {
	if !cond {
		panic("blockcore: contract violation: " + msg)
	}
}

// Requiref is Require with fmt.Sprintf-style formatting, for call sites
// where the message needs the offending values. The format is only
// evaluated when cond is false.
func Requiref(cond bool, format string, args ...any) {
	if !cond {
		panic("blockcore: contract violation: " + fmt.Sprintf(format, args...))
	}
}
