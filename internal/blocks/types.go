package blocks

// Shape determines which connectors a block exposes.
type Shape string

const (
	// ShapeValue plugs into a value socket and yields a typed result.
	ShapeValue Shape = "value"
	// ShapeStatement chains before and after other statements.
	ShapeStatement Shape = "statement"
	// ShapeHat is a sequence root with no previous or next connector.
	ShapeHat Shape = "hat"
)

// FieldKind is the editor widget used for a field.
type FieldKind string

const (
	FieldDropdown  FieldKind = "dropdown"
	FieldText      FieldKind = "text"
	FieldMultiline FieldKind = "multiline"
	FieldNumber    FieldKind = "number"
)

// SocketKind distinguishes single-expression sockets from statement lists.
type SocketKind string

const (
	SocketValue     SocketKind = "value"
	SocketStatement SocketKind = "statement"
)

// Value types used by sockets and outputs.
const (
	TypeNumber  = "Number"
	TypeBoolean = "Boolean"
)

// Option is one dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Arg is a field or a socket, in the order the block declares them.
type Arg interface {
	ArgName() string
	isArg()
}

// Field is a leaf input holding a literal value.
type Field struct {
	Name    string    `json:"name"`
	Kind    FieldKind `json:"kind"`
	Options []Option  `json:"options,omitempty"`
	Default string    `json:"default,omitempty"`
}

func (f Field) ArgName() string { return f.Name }
func (Field) isArg()            {}

// HasOption reports whether v is one of the dropdown values.
func (f Field) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// DefaultValue returns the value a new block starts with.
func (f Field) DefaultValue() string {
	if f.Default != "" {
		return f.Default
	}
	if f.Kind == FieldDropdown && len(f.Options) > 0 {
		return f.Options[0].Value
	}
	if f.Kind == FieldNumber {
		return "0"
	}
	return ""
}

// Socket is a connection point for nested blocks.
type Socket struct {
	Name string     `json:"name"`
	Kind SocketKind `json:"kind"`
	// Check is the declared value type. It is informational: documents are
	// not rejected when a nested block outputs a different type.
	Check string `json:"check,omitempty"`
}

func (s Socket) ArgName() string { return s.Name }
func (Socket) isArg()            {}

// BlockType is the schema of one kind of block.
// Registered types are shared; callers must not mutate them.
type BlockType struct {
	Type         string
	Shape        Shape
	Output       string
	Previous     bool
	Next         bool
	Args         []Arg
	Colour       string
	Tooltip      string
	Deletable    bool
	InputsInline bool
}

// Field returns the named field declaration.
func (bt *BlockType) Field(name string) (Field, bool) {
	for _, a := range bt.Args {
		if f, ok := a.(Field); ok && f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Socket returns the named socket declaration.
func (bt *BlockType) Socket(name string) (Socket, bool) {
	for _, a := range bt.Args {
		if s, ok := a.(Socket); ok && s.Name == name {
			return s, true
		}
	}
	return Socket{}, false
}

// Fields returns the field declarations in order.
func (bt *BlockType) Fields() []Field {
	var out []Field
	for _, a := range bt.Args {
		if f, ok := a.(Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Sockets returns the socket declarations in order.
func (bt *BlockType) Sockets() []Socket {
	var out []Socket
	for _, a := range bt.Args {
		if s, ok := a.(Socket); ok {
			out = append(out, s)
		}
	}
	return out
}

// HasOutput reports whether the block can occupy a value socket.
func (bt *BlockType) HasOutput() bool {
	return bt.Output != ""
}

// valueBlock, statementBlock and hatBlock set the connector flags that go
// with each shape.
func valueBlock(name, output, colour, tooltip string, args ...Arg) BlockType {
	return BlockType{
		Type:         name,
		Shape:        ShapeValue,
		Output:       output,
		Args:         args,
		Colour:       colour,
		Tooltip:      tooltip,
		Deletable:    true,
		InputsInline: true,
	}
}

func statementBlock(name, colour, tooltip string, args ...Arg) BlockType {
	return BlockType{
		Type:         name,
		Shape:        ShapeStatement,
		Previous:     true,
		Next:         true,
		Args:         args,
		Colour:       colour,
		Tooltip:      tooltip,
		Deletable:    true,
		InputsInline: true,
	}
}

func hatBlock(name, colour, tooltip string, body Socket) BlockType {
	return BlockType{
		Type:    name,
		Shape:   ShapeHat,
		Args:    []Arg{body},
		Colour:  colour,
		Tooltip: tooltip,
	}
}

func dropdown(name string, opts ...Option) Field {
	return Field{Name: name, Kind: FieldDropdown, Options: opts}
}

// same builds options whose label equals the value.
func same(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Label: v, Value: v}
	}
	return out
}

func number(name, def string) Field {
	return Field{Name: name, Kind: FieldNumber, Default: def}
}

func valueIn(name, check string) Socket {
	return Socket{Name: name, Kind: SocketValue, Check: check}
}

func statementIn(name string) Socket {
	return Socket{Name: name, Kind: SocketStatement}
}
