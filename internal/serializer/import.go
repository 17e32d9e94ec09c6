package serializer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
)

// node keeps every child element in document order.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) blocks() []*node {
	var out []*node
	for i := range n.Children {
		if n.Children[i].XMLName.Local == "block" {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// ignored elements carry editor state that has no place in the graph.
var ignored = map[string]struct{}{
	"variables": {},
	"comment":   {},
	"data":      {},
	"mutation":  {},
}

// Import parses a document and checks it against the registry.
//
// The root element name and namespaces are not significant. A type name the
// registry does not know fails the whole import with UnknownBlockTypeError;
// nothing is dropped or guessed. On any error the returned graph is nil.
func Import(doc []byte, reg *blocks.Registry) (*graph.Graph, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}

	var root node
	if err := xml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	g := graph.New()
	for i := range root.Children {
		child := &root.Children[i]
		name := child.XMLName.Local
		if name != "block" {
			if _, ok := ignored[name]; ok {
				continue
			}
			return nil, fmt.Errorf("%w: unexpected top-level element <%s>", ErrMalformedDocument, name)
		}

		x, err := coordinate(child, "x")
		if err != nil {
			return nil, err
		}
		y, err := coordinate(child, "y")
		if err != nil {
			return nil, err
		}
		chain, err := readChain(child)
		if err != nil {
			return nil, err
		}
		g.AddStack(x, y, chain...)
	}

	if err := graph.Validate(g, reg); err != nil {
		return nil, err
	}
	return g, nil
}

// Normalize imports and re-exports a document.
func Normalize(doc []byte, reg *blocks.Registry) ([]byte, error) {
	g, err := Import(doc, reg)
	if err != nil {
		return nil, err
	}
	return Export(g, reg)
}

func coordinate(n *node, name string) (int, error) {
	v, ok := n.attr(name)
	if !ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: block %s=%q is not a number", ErrMalformedDocument, name, v)
	}
	f = math.Round(f)
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: block %s=%q is out of range", ErrMalformedDocument, name, v)
	}
	return int(f), nil
}

// readChain reads a block and whatever hangs off its <next>.
func readChain(n *node) ([]*graph.Block, error) {
	var chain []*graph.Block
	for cur := n; cur != nil; {
		b, next, err := readBlock(cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, b)
		cur = next
	}
	return chain, nil
}

// readBlock converts one <block> element. It returns the block in its
// <next> element, if any, without reading it.
func readBlock(n *node) (*graph.Block, *node, error) {
	typ, ok := n.attr("type")
	if !ok || typ == "" {
		return nil, nil, fmt.Errorf("%w: block without type", ErrMalformedDocument)
	}
	b := &graph.Block{Type: typ}
	if id, ok := n.attr("id"); ok {
		b.ID = id
	}

	var next *node
	for i := range n.Children {
		c := &n.Children[i]
		name, _ := c.attr("name")

		switch c.XMLName.Local {
		case "field":
			if _, dup := b.Fields[name]; dup {
				return nil, nil, &InvalidFieldError{Type: typ, Field: name, Value: c.Text, Path: typ, Reason: "field given twice"}
			}
			b.WithField(name, c.Text)

		case "value":
			if _, dup := b.Values[name]; dup {
				return nil, nil, &MalformedSocketError{Parent: typ, Socket: name, Path: typ, Reason: "socket given twice"}
			}
			kids := c.blocks()
			switch len(kids) {
			case 0:
				continue
			case 1:
			default:
				return nil, nil, &MalformedSocketError{Parent: typ, Socket: name, Path: typ, Reason: "value socket holds more than one block"}
			}
			chain, err := readChain(kids[0])
			if err != nil {
				return nil, nil, err
			}
			if len(chain) > 1 {
				return nil, nil, &MalformedSocketError{Parent: typ, Socket: name, Path: typ, Reason: "value socket holds a chain"}
			}
			b.WithValue(name, chain[0])

		case "statement":
			if _, dup := b.Statements[name]; dup {
				return nil, nil, &MalformedSocketError{Parent: typ, Socket: name, Path: typ, Reason: "socket given twice"}
			}
			// Sibling blocks are read as one sequence.
			var list []*graph.Block
			for _, k := range c.blocks() {
				chain, err := readChain(k)
				if err != nil {
					return nil, nil, err
				}
				list = append(list, chain...)
			}
			b.Append(name, list...)

		case "next":
			kids := c.blocks()
			if len(kids) > 1 {
				return nil, nil, &MalformedSocketError{Parent: typ, Socket: "next", Path: typ, Reason: "next holds more than one block"}
			}
			if len(kids) == 1 {
				next = kids[0]
			}

		default:
			if _, ok := ignored[c.XMLName.Local]; ok {
				continue
			}
			return nil, nil, &MalformedSocketError{Parent: typ, Socket: c.XMLName.Local, Path: typ, Reason: "unexpected element"}
		}
	}
	return b, next, nil
}
