package blocks

const (
	colourLogic = "#5B80A5"
	colourMath  = "#5B67A5"
	colourLoops = "#5BA55B"
)

// BuiltinNames lists the generic blocks needed to compose conditions.
var BuiltinNames = []string{
	"math_number",
	"math_arithmetic",
	"logic_boolean",
	"logic_compare",
	"logic_operation",
	"logic_negate",
	"controls_if",
	"controls_repeat_ext",
}

func builtinTypes() []BlockType {
	return []BlockType{
		valueBlock("math_number", TypeNumber, colourMath, "A number.",
			number("NUM", "0"),
		),
		valueBlock("math_arithmetic", TypeNumber, colourMath, "Arithmetic on two numbers.",
			dropdown("OP",
				Option{"+", "ADD"},
				Option{"-", "MINUS"},
				Option{"×", "MULTIPLY"},
				Option{"÷", "DIVIDE"},
				Option{"^", "POWER"},
			),
			valueIn("A", TypeNumber),
			valueIn("B", TypeNumber),
		),
		valueBlock("logic_boolean", TypeBoolean, colourLogic, "Returns either true or false.",
			dropdown("BOOL", Option{"true", "TRUE"}, Option{"false", "FALSE"}),
		),
		valueBlock("logic_compare", TypeBoolean, colourLogic, "Compare two values.",
			dropdown("OP",
				Option{"=", "EQ"},
				Option{"≠", "NEQ"},
				Option{"<", "LT"},
				Option{"≤", "LTE"},
				Option{">", "GT"},
				Option{"≥", "GTE"},
			),
			valueIn("A", ""),
			valueIn("B", ""),
		),
		valueBlock("logic_operation", TypeBoolean, colourLogic, "Both or either inputs are true.",
			dropdown("OP", Option{"and", "AND"}, Option{"or", "OR"}),
			valueIn("A", TypeBoolean),
			valueIn("B", TypeBoolean),
		),
		valueBlock("logic_negate", TypeBoolean, colourLogic, "Returns true if the input is false.",
			valueIn("BOOL", TypeBoolean),
		),
		statementBlock("controls_if", colourLogic, "If a value is true, do some statements.",
			valueIn("IF0", TypeBoolean),
			statementIn("DO0"),
		),
		statementBlock("controls_repeat_ext", colourLoops, "Do some statements several times.",
			valueIn("TIMES", TypeNumber),
			statementIn("DO"),
		),
	}
}
