package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBlockType matches UnknownBlockTypeError.
	ErrUnknownBlockType = errors.New("unknown block type")
	// ErrMalformedSocket matches MalformedSocketError.
	ErrMalformedSocket = errors.New("malformed socket")
	// ErrInvalidField matches InvalidFieldError.
	ErrInvalidField = errors.New("invalid field")
	// ErrBadPath is returned when a block path does not resolve.
	ErrBadPath = errors.New("bad block path")
)

// UnknownBlockTypeError reports a block whose type is not registered.
type UnknownBlockTypeError struct {
	Type string
	Path string
}

func (e *UnknownBlockTypeError) Error() string {
	return fmt.Sprintf("unknown block type %q at %s", e.Type, e.Path)
}

func (e *UnknownBlockTypeError) Is(target error) bool {
	return target == ErrUnknownBlockType
}

// MalformedSocketError reports a socket occupant the parent type does not
// allow.
type MalformedSocketError struct {
	Parent string
	Socket string
	Path   string
	Reason string
}

func (e *MalformedSocketError) Error() string {
	return fmt.Sprintf("malformed socket %s on %s at %s: %s", e.Socket, e.Parent, e.Path, e.Reason)
}

func (e *MalformedSocketError) Is(target error) bool {
	return target == ErrMalformedSocket
}

// InvalidFieldError reports an undeclared field or an unusable value.
type InvalidFieldError struct {
	Type   string
	Field  string
	Value  string
	Path   string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s=%q on %s at %s: %s", e.Field, e.Value, e.Type, e.Path, e.Reason)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidField
}
