// Package errors implements namespaced, numbered errors in the style used
// throughout this module's collaborator packages: each package declares a
// moduleName and a small registry of New(moduleName, code, message) values so
// that error identity survives wrapping and logging.
package errors

import "fmt"

// Error is a namespaced, numbered error.
type Error struct {
	module  string
	code    uint
	message string
}

// New declares a new namespaced error. code must be unique within module.
func New(module string, code uint, message string) *Error {
	return &Error{module: module, code: code, message: message}
}

func (e *Error) Error() string {
	return e.message
}

// Module returns the namespace the error was declared in.
func (e *Error) Module() string { return e.module }

// Code returns the error's numeric code within its module.
func (e *Error) Code() uint { return e.code }

// Is reports whether target is the same declared error (by module+code),
// matching errors.Is semantics without requiring pointer identity across
// process boundaries.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.module == other.module && e.code == other.code
}

// Wrap annotates err with additional context while preserving Is()
// comparisons against the original declared Error.
func Wrap(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
