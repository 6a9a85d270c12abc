package manifest

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the loader wraps exactly one of them.
var (
	// version field missing or not supported
	ErrVersion = errors.New("unsupported version")
	// required field missing or of the wrong type
	ErrSchema = errors.New("schema error")
	// value fails its grammar or range
	ErrFormat = errors.New("format error")
	// value collides with an earlier one
	ErrUniqueness = errors.New("uniqueness error")
	// value names something that was not declared
	ErrReference = errors.New("reference error")
)

// Error describes the first violation found in a manifest, e.g.
// "containers[web].ports[1].hostPort is invalid: 70000".
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, a ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}
