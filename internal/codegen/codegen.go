// Package codegen turns a strategy graph into a readable program preview.
//
// Output targets the runtime context object the OrbFi executor exposes
// (ctx.executeAction, ctx.evaluateIndicator and friends). Generation is
// best effort: blocks without a translation rule are left out and listed in
// Program.Skipped.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
)

// GenerationIssue records a block that was left out of the program.
type GenerationIssue struct {
	Type   string `json:"type"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (i GenerationIssue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Type, i.Path, i.Reason)
}

// Entry is the generated function for one strategy_start stack.
type Entry struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Source string `json:"source"`
}

// Program is the generated output for a whole graph.
type Program struct {
	Entries []Entry           `json:"entries"`
	Skipped []GenerationIssue `json:"skipped,omitempty"`
}

// Source joins every entry into one listing.
func (p *Program) Source() string {
	parts := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		parts[i] = e.Source
	}
	return strings.Join(parts, "\n")
}

const indentUnit = "  "

// Generate validates g and emits one function per strategy_start stack, in
// document order. Every block of any other top-level stack is recorded as
// skipped. Skipped follows document order.
func Generate(g *graph.Graph, reg *blocks.Registry) (*Program, error) {
	if err := graph.Validate(g, reg); err != nil {
		return nil, err
	}

	p := &Program{}
	n := 0
	for si, s := range g.Stacks {
		root := s.Root()
		if root == nil {
			continue
		}
		path := fmt.Sprintf("%d.0", si)
		if root.Type != blocks.StartType {
			for bi, b := range s.Blocks {
				p.Skipped = append(p.Skipped, GenerationIssue{
					Type:   b.Type,
					Path:   fmt.Sprintf("%d.%d", si, bi),
					Reason: "not attached to a strategy_start block",
				})
			}
			continue
		}

		n++
		gen := &generator{}
		name := "strategy" + strconv.Itoa(n)
		fmt.Fprintf(&gen.buf, "// %s at (%d, %d)\n", name, s.X, s.Y)
		fmt.Fprintf(&gen.buf, "async function %s(ctx) {\n", name)
		gen.statements(root.Statements["DO"], path+"/DO", 1)
		gen.buf.WriteString("}\n")

		p.Entries = append(p.Entries, Entry{Name: name, X: s.X, Y: s.Y, Source: gen.buf.String()})
		p.Skipped = append(p.Skipped, gen.issues...)
	}
	return p, nil
}

type generator struct {
	buf    strings.Builder
	issues []GenerationIssue
}

func (g *generator) skip(b *graph.Block, path, reason string) {
	g.issues = append(g.issues, GenerationIssue{Type: b.Type, Path: path, Reason: reason})
}

func (g *generator) line(depth int, format string, args ...any) {
	g.buf.WriteString(strings.Repeat(indentUnit, depth))
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

func (g *generator) statements(list []*graph.Block, path string, depth int) {
	for i, b := range list {
		p := path + "." + strconv.Itoa(i)
		rule, ok := statementRules[b.Type]
		if !ok {
			g.skip(b, p, "no translation rule")
			continue
		}
		rule(g, b, p, depth)
	}
}

// expr returns the expression for the block in a value socket, or def when
// the socket is empty.
func (g *generator) expr(b *graph.Block, socket, path, def string) string {
	child := b.Values[socket]
	p := path + "/" + socket
	if child == nil {
		return def
	}
	rule, ok := valueRules[child.Type]
	if !ok {
		g.skip(child, p, "no translation rule")
		return def
	}
	return rule(g, child, p)
}

func quote(b *graph.Block, field string) string {
	return strconv.Quote(b.Fields[field])
}

type statementRule func(g *generator, b *graph.Block, path string, depth int)

type valueRule func(g *generator, b *graph.Block, path string) string

// call emits an awaited ctx primitive with quoted fields and value sockets
// as arguments, in the order given.
func call(fn string, args ...string) statementRule {
	return func(g *generator, b *graph.Block, path string, depth int) {
		parts := make([]string, len(args))
		for i, a := range args {
			if socket, ok := strings.CutPrefix(a, "$"); ok {
				parts[i] = g.expr(b, socket, path, "0")
				continue
			}
			parts[i] = quote(b, a)
		}
		g.line(depth, "await ctx.%s(%s);", fn, strings.Join(parts, ", "))
	}
}

// lookup is the value form of call, without await.
func lookup(fn string, args ...string) valueRule {
	return func(g *generator, b *graph.Block, path string) string {
		parts := make([]string, len(args))
		for i, a := range args {
			if socket, ok := strings.CutPrefix(a, "$"); ok {
				parts[i] = g.expr(b, socket, path, "0")
				continue
			}
			parts[i] = quote(b, a)
		}
		return fmt.Sprintf("ctx.%s(%s)", fn, strings.Join(parts, ", "))
	}
}

var statementRules map[string]statementRule

var valueRules map[string]valueRule

func init() {
	statementRules = map[string]statementRule{
		"controls_if": func(g *generator, b *graph.Block, path string, depth int) {
			g.line(depth, "if (%s) {", g.expr(b, "IF0", path, "false"))
			g.statements(b.Statements["DO0"], path+"/DO0", depth+1)
			g.line(depth, "}")
		},
		"controls_repeat_ext": func(g *generator, b *graph.Block, path string, depth int) {
			v := "i" + strconv.Itoa(depth)
			g.line(depth, "for (let %s = 0; %s < %s; %s++) {", v, v, g.expr(b, "TIMES", path, "0"), v)
			g.statements(b.Statements["DO"], path+"/DO", depth+1)
			g.line(depth, "}")
		},
		"trading_action":       call("executeAction", "ACTION", "ORDER_TYPE", "$AMOUNT", "ASSET"),
		"risk_management":      call("setRiskRule", "RISK_TYPE", "$PERCENTAGE"),
		"blockchain_operation": call("chainOperation", "OPERATION", "$AMOUNT", "CHAIN"),
		"defi_operation":       call("defiOperation", "DEFI_ACTION", "$AMOUNT", "TOKEN", "PROTOCOL"),
		"swap_operation":       call("swap", "$FROM_AMOUNT", "FROM_TOKEN", "$TO_AMOUNT", "TO_TOKEN"),
		"staking_operation":    call("stake", "STAKING_ACTION", "$AMOUNT", "TOKEN", "VALIDATOR"),
		"gas_optimization":     call("setGasStrategy", "GAS_STRATEGY", "NETWORK"),
		"limit_order_1inch":    call("placeLimitOrder", "ORDER_SIDE", "$AMOUNT", "FROM_TOKEN", "TO_TOKEN", "$LIMIT_PRICE", "EXPIRY"),
	}

	valueRules = map[string]valueRule{
		"math_number": func(g *generator, b *graph.Block, path string) string {
			return b.Fields["NUM"]
		},
		"math_arithmetic": func(g *generator, b *graph.Block, path string) string {
			a := g.expr(b, "A", path, "0")
			c := g.expr(b, "B", path, "0")
			switch b.Fields["OP"] {
			case "ADD":
				return "(" + a + " + " + c + ")"
			case "MINUS":
				return "(" + a + " - " + c + ")"
			case "MULTIPLY":
				return "(" + a + " * " + c + ")"
			case "DIVIDE":
				return "(" + a + " / " + c + ")"
			case "POWER":
				return "Math.pow(" + a + ", " + c + ")"
			}
			g.skip(b, path, "unknown operator "+b.Fields["OP"])
			return "0"
		},
		"logic_boolean": func(g *generator, b *graph.Block, path string) string {
			if b.Fields["BOOL"] == "TRUE" {
				return "true"
			}
			return "false"
		},
		"logic_compare": func(g *generator, b *graph.Block, path string) string {
			op, ok := compareOps[b.Fields["OP"]]
			if !ok {
				g.skip(b, path, "unknown operator "+b.Fields["OP"])
				return "false"
			}
			return "(" + g.expr(b, "A", path, "0") + " " + op + " " + g.expr(b, "B", path, "0") + ")"
		},
		"logic_operation": func(g *generator, b *graph.Block, path string) string {
			op := "&&"
			if b.Fields["OP"] == "OR" {
				op = "||"
			}
			return "(" + g.expr(b, "A", path, "false") + " " + op + " " + g.expr(b, "B", path, "false") + ")"
		},
		"logic_negate": func(g *generator, b *graph.Block, path string) string {
			return "!" + g.expr(b, "BOOL", path, "false")
		},
		"technical_indicator":   lookup("evaluateIndicator", "INDICATOR", "OPERATOR", "$VALUE", "TIMEFRAME"),
		"portfolio_balance":     lookup("getBalance", "BALANCE_TYPE", "ASSET"),
		"market_data":           lookup("getMarketData", "DATA_TYPE", "ASSET", "TIMEFRAME"),
		"get_price":             lookup("getPrice", "ASSET", "EXCHANGE"),
		"limit_order_condition": lookup("checkLimitCondition", "CONDITION_TYPE", "$THRESHOLD", "TOKEN_PAIR", "TIMEFRAME", "EXECUTION_TYPE"),
	}
}

var compareOps = map[string]string{
	"EQ":  "==",
	"NEQ": "!=",
	"LT":  "<",
	"LTE": "<=",
	"GT":  ">",
	"GTE": ">=",
}

// Supported reports whether the type has a translation rule.
func Supported(typ string) bool {
	if typ == blocks.StartType {
		return true
	}
	if _, ok := statementRules[typ]; ok {
		return true
	}
	_, ok := valueRules[typ]
	return ok
}
