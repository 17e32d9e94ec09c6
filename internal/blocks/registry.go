// Package blocks defines the block vocabulary of the strategy editor.
package blocks

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

// ErrNotFound is returned by Get for an unregistered type name.
var ErrNotFound = errors.New("block type not found")

// RegistrationError reports a block type whose declaration contradicts itself.
type RegistrationError struct {
	Type   string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("invalid block type %q: %s", e.Type, e.Reason)
}

// Registry holds block types keyed by name, in registration order.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*BlockType
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*BlockType),
	}
}

// Default returns a registry holding every built-in block type.
func Default() (*Registry, error) {
	r := NewRegistry()
	if err := r.RegisterAll(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates and adds a block type.
// A name that is already registered is left as is.
func (r *Registry) Register(bt BlockType) error {
	if err := validate(&bt); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[bt.Type]; ok {
		return nil
	}
	bt.Args = append([]Arg(nil), bt.Args...)
	r.types[bt.Type] = &bt
	r.order = append(r.order, bt.Type)
	return nil
}

// RegisterAll registers the generic logic, math and control blocks followed
// by the trading vocabulary. Safe to call more than once.
func (r *Registry) RegisterAll() error {
	for _, group := range [][]BlockType{builtinTypes(), tradingTypes(), chainTypes(), agentTypes(), limitOrderTypes()} {
		for _, bt := range group {
			if err := r.Register(bt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the named block type.
func (r *Registry) Get(name string) (*BlockType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bt, ok := r.types[name]; ok {
		return bt, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All yields every registered type in registration order. Each call to the
// returned sequence starts a fresh pass.
func (r *Registry) All() iter.Seq[*BlockType] {
	return func(yield func(*BlockType) bool) {
		r.mu.RLock()
		names := append([]string(nil), r.order...)
		r.mu.RUnlock()

		for _, name := range names {
			r.mu.RLock()
			bt := r.types[name]
			r.mu.RUnlock()
			if !yield(bt) {
				return
			}
		}
	}
}

func validate(bt *BlockType) error {
	fail := func(format string, args ...any) error {
		return &RegistrationError{Type: bt.Type, Reason: fmt.Sprintf(format, args...)}
	}

	if bt.Type == "" {
		return fail("type name is required")
	}

	switch bt.Shape {
	case ShapeValue:
		if bt.Output == "" {
			return fail("value block must declare an output type")
		}
		if bt.Previous || bt.Next {
			return fail("value block cannot have previous or next connectors")
		}
	case ShapeStatement:
		if !bt.Previous || !bt.Next {
			return fail("statement block must have previous and next connectors")
		}
		if bt.Output != "" {
			return fail("statement block cannot declare an output")
		}
	case ShapeHat:
		if bt.Previous || bt.Next {
			return fail("hat block cannot have previous or next connectors")
		}
		if bt.Output != "" {
			return fail("hat block cannot declare an output")
		}
		if n := len(bt.Sockets()); n != 1 {
			return fail("hat block must have exactly one statement socket, has %d sockets", n)
		}
		if bt.Sockets()[0].Kind != SocketStatement {
			return fail("hat block socket %s must be a statement socket", bt.Sockets()[0].Name)
		}
	default:
		return fail("unknown shape %q", bt.Shape)
	}

	seen := make(map[string]struct{}, len(bt.Args))
	for _, a := range bt.Args {
		name := a.ArgName()
		if name == "" {
			return fail("argument with empty name")
		}
		if _, dup := seen[name]; dup {
			return fail("duplicate argument %s", name)
		}
		seen[name] = struct{}{}

		switch arg := a.(type) {
		case Field:
			switch arg.Kind {
			case FieldDropdown:
				if len(arg.Options) == 0 {
					return fail("dropdown %s has no options", name)
				}
				if arg.Default != "" && !arg.HasOption(arg.Default) {
					return fail("dropdown %s default %q is not an option", name, arg.Default)
				}
			case FieldText, FieldMultiline, FieldNumber:
			default:
				return fail("field %s has unknown kind %q", name, arg.Kind)
			}
		case Socket:
			if arg.Kind != SocketValue && arg.Kind != SocketStatement {
				return fail("socket %s has unknown kind %q", name, arg.Kind)
			}
		default:
			return fail("argument %s has unsupported type %T", name, a)
		}
	}
	return nil
}
