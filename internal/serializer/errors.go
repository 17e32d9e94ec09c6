package serializer

import (
	"errors"

	"github.com/AaronLay10/OrbFi/internal/graph"
)

// Import failures. The typed errors live in graph so that programmatic
// edits and documents are checked by the same rules.
type (
	UnknownBlockTypeError = graph.UnknownBlockTypeError
	MalformedSocketError  = graph.MalformedSocketError
	InvalidFieldError     = graph.InvalidFieldError
)

var (
	ErrUnknownBlockType = graph.ErrUnknownBlockType
	ErrMalformedSocket  = graph.ErrMalformedSocket
	ErrInvalidField     = graph.ErrInvalidField

	// ErrMalformedDocument covers input that is not a block document at all:
	// bad XML, a block without a type, unparsable coordinates.
	ErrMalformedDocument = errors.New("malformed document")
)
