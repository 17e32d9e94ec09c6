package graph

import (
	"maps"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/AaronLay10/OrbFi/internal/blocks"
)

// Validate checks every block against the registry and returns the first
// problem found. Socket value types are not compared; a Boolean block in a
// Number socket is accepted. Dropdown values are not checked either, so
// documents saved against an older option list still load.
func Validate(g *Graph, reg *blocks.Registry) error {
	for si, s := range g.Stacks {
		for bi, b := range s.Blocks {
			path := stackPath(si, bi)
			if b == nil {
				return &MalformedSocketError{Parent: "canvas", Socket: "next", Path: path, Reason: "empty entry in stack"}
			}
			bt, err := ValidateBlock(b, path, reg)
			if err != nil {
				return err
			}

			switch {
			case bt.Shape == blocks.ShapeHat && bi > 0:
				return &MalformedSocketError{Parent: s.Blocks[bi-1].Type, Socket: "next", Path: path, Reason: "hat block cannot follow another block"}
			case bt.Shape == blocks.ShapeValue && len(s.Blocks) > 1:
				return &MalformedSocketError{Parent: b.Type, Socket: "next", Path: path, Reason: "value block cannot be chained"}
			case bi+1 < len(s.Blocks) && !bt.Next:
				return &MalformedSocketError{Parent: b.Type, Socket: "next", Path: path, Reason: "block has no next connector"}
			}
		}
	}
	return nil
}

// ValidateBlock checks one block and its subtree. It returns the block's type.
func ValidateBlock(b *Block, path string, reg *blocks.Registry) (*blocks.BlockType, error) {
	bt, err := reg.Get(b.Type)
	if err != nil {
		return nil, &UnknownBlockTypeError{Type: b.Type, Path: path}
	}

	for _, name := range slices.Sorted(maps.Keys(b.Fields)) {
		value := b.Fields[name]
		f, ok := bt.Field(name)
		if !ok {
			return nil, &InvalidFieldError{Type: b.Type, Field: name, Value: value, Path: path, Reason: "field not declared"}
		}
		if reason := checkValue(f, value); reason != "" {
			return nil, &InvalidFieldError{Type: b.Type, Field: name, Value: value, Path: path, Reason: reason}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(b.Values)) {
		child := b.Values[name]
		if child == nil {
			continue
		}
		sock, ok := bt.Socket(name)
		if !ok || sock.Kind != blocks.SocketValue {
			return nil, &MalformedSocketError{Parent: b.Type, Socket: name, Path: path, Reason: "value socket not declared"}
		}
		cpath := valuePath(path, name)
		ct, err := ValidateBlock(child, cpath, reg)
		if err != nil {
			return nil, err
		}
		if !ct.HasOutput() {
			return nil, &MalformedSocketError{Parent: b.Type, Socket: name, Path: cpath, Reason: ct.Type + " has no output"}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(b.Statements)) {
		list := b.Statements[name]
		if len(list) == 0 {
			continue
		}
		sock, ok := bt.Socket(name)
		if !ok || sock.Kind != blocks.SocketStatement {
			return nil, &MalformedSocketError{Parent: b.Type, Socket: name, Path: path, Reason: "statement socket not declared"}
		}
		for i, child := range list {
			cpath := statementPath(path, name, i)
			if child == nil {
				return nil, &MalformedSocketError{Parent: b.Type, Socket: name, Path: cpath, Reason: "empty entry in statement list"}
			}
			ct, err := ValidateBlock(child, cpath, reg)
			if err != nil {
				return nil, err
			}
			if ct.Shape != blocks.ShapeStatement {
				return nil, &MalformedSocketError{Parent: b.Type, Socket: name, Path: cpath, Reason: ct.Type + " is not a statement block"}
			}
		}
	}

	return bt, nil
}

// checkValue returns why value cannot be stored in f, or "". Dropdown
// options are not consulted.
func checkValue(f blocks.Field, value string) string {
	if !xmlText(value) {
		return "contains characters a document cannot hold"
	}
	if f.Kind == blocks.FieldNumber {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "not a number"
		}
	}
	return ""
}

// xmlText reports whether s is valid UTF-8 made only of XML 1.0 Chars.
func xmlText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}
