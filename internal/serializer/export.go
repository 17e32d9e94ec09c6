// Package serializer converts strategy graphs to and from Blockly XML.
package serializer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
)

// Namespace is written on the root element of every exported document.
const Namespace = "https://developers.google.com/blockly/xml"

const indent = "  "

// Export writes g as a Blockly XML document.
//
// Fields and sockets are emitted in the order the block type declares them,
// never in map order, so exporting the same graph twice yields identical
// bytes. Only root blocks carry x/y. Statement lists are written as next
// chains. The graph is validated first; an invalid graph is not exported.
func Export(g *graph.Graph, reg *blocks.Registry) ([]byte, error) {
	if err := graph.Validate(g, reg); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := &writer{enc: xml.NewEncoder(&buf), reg: reg}
	w.enc.Indent("", indent)

	root := xml.StartElement{
		Name: xml.Name{Local: "xml"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: Namespace}},
	}
	w.start(root)
	for _, s := range g.Stacks {
		pos := [2]int{s.X, s.Y}
		w.chain(s.Blocks, &pos)
	}
	w.end(root.Name)

	if w.err == nil {
		w.err = w.enc.Flush()
	}
	if w.err != nil {
		return nil, fmt.Errorf("encode document: %w", w.err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	enc *xml.Encoder
	reg *blocks.Registry
	err error
}

func (w *writer) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *writer) start(se xml.StartElement) { w.token(se) }
func (w *writer) end(name xml.Name)         { w.token(xml.EndElement{Name: name}) }

func named(local, name string) xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: local},
		Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: name}},
	}
}

// chain writes chain[0] with the rest nested under <next>.
func (w *writer) chain(chain []*graph.Block, pos *[2]int) {
	if len(chain) == 0 {
		return
	}
	b := chain[0]
	bt, err := w.reg.Get(b.Type)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}

	se := xml.StartElement{
		Name: xml.Name{Local: "block"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: b.Type}},
	}
	if b.ID != "" {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: b.ID})
	}
	if pos != nil {
		se.Attr = append(se.Attr,
			xml.Attr{Name: xml.Name{Local: "x"}, Value: strconv.Itoa(pos[0])},
			xml.Attr{Name: xml.Name{Local: "y"}, Value: strconv.Itoa(pos[1])},
		)
	}
	w.start(se)

	for _, arg := range bt.Args {
		switch a := arg.(type) {
		case blocks.Field:
			v, ok := b.Fields[a.Name]
			if !ok {
				continue
			}
			fe := named("field", a.Name)
			w.start(fe)
			w.token(xml.CharData(v))
			w.end(fe.Name)
		case blocks.Socket:
			if a.Kind == blocks.SocketValue {
				child := b.Values[a.Name]
				if child == nil {
					continue
				}
				ve := named("value", a.Name)
				w.start(ve)
				w.chain([]*graph.Block{child}, nil)
				w.end(ve.Name)
				continue
			}
			list := b.Statements[a.Name]
			if len(list) == 0 {
				continue
			}
			st := named("statement", a.Name)
			w.start(st)
			w.chain(list, nil)
			w.end(st.Name)
		}
	}

	if len(chain) > 1 {
		next := xml.StartElement{Name: xml.Name{Local: "next"}}
		w.start(next)
		w.chain(chain[1:], nil)
		w.end(next.Name)
	}

	w.end(se.Name)
}
