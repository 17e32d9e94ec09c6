package graph

import (
	"fmt"

	"github.com/AaronLay10/OrbFi/internal/blocks"
)

// NewBlock creates a block of the given type with every field at its default.
func NewBlock(reg *blocks.Registry, typ string) (*Block, error) {
	bt, err := reg.Get(typ)
	if err != nil {
		return nil, &UnknownBlockTypeError{Type: typ, Path: "new"}
	}
	b := &Block{Type: typ}
	for _, f := range bt.Fields() {
		b.WithField(f.Name, f.DefaultValue())
	}
	return b, nil
}

// MustBlock is NewBlock for statically known types.
func MustBlock(reg *blocks.Registry, typ string) *Block {
	b, err := NewBlock(reg, typ)
	if err != nil {
		panic(err)
	}
	return b
}

// SetField assigns a field after checking it against the schema. Unlike
// Validate, dropdown values must be one of the declared options.
func SetField(reg *blocks.Registry, b *Block, name, value string) error {
	bt, err := reg.Get(b.Type)
	if err != nil {
		return &UnknownBlockTypeError{Type: b.Type, Path: "set"}
	}
	f, ok := bt.Field(name)
	if !ok {
		return &InvalidFieldError{Type: b.Type, Field: name, Value: value, Path: "set", Reason: "field not declared"}
	}

	if f.Kind == blocks.FieldDropdown && !f.HasOption(value) {
		return &InvalidFieldError{Type: b.Type, Field: name, Value: value, Path: "set", Reason: "not one of the dropdown options"}
	}
	if reason := checkValue(f, value); reason != "" {
		return &InvalidFieldError{Type: b.Type, Field: name, Value: value, Path: "set", Reason: reason}
	}

	b.WithField(name, value)
	return nil
}

// NewStart returns a graph holding a single empty entry block at (x, y).
func NewStart(reg *blocks.Registry, x, y int) (*Graph, error) {
	start, err := NewBlock(reg, blocks.StartType)
	if err != nil {
		return nil, fmt.Errorf("create entry block: %w", err)
	}
	g := New()
	g.AddStack(x, y, start)
	return g, nil
}
