package serializer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
)

func testRegistry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg, err := blocks.Default()
	require.NoError(t, err)
	return reg
}

func num(reg *blocks.Registry, v string) *graph.Block {
	return graph.MustBlock(reg, "math_number").WithField("NUM", v)
}

// sampleGraph exercises every socket kind, a next chain, a loose value type
// and a second stack.
func sampleGraph(reg *blocks.Registry) *graph.Graph {
	cond := graph.MustBlock(reg, "logic_operation").
		WithField("OP", "AND").
		WithValue("A", graph.MustBlock(reg, "technical_indicator").
			WithField("OPERATOR", "CROSS_ABOVE").
			WithValue("VALUE", num(reg, "50"))).
		WithValue("B", graph.MustBlock(reg, "logic_negate").
			WithValue("BOOL", graph.MustBlock(reg, "logic_boolean").WithField("BOOL", "FALSE")))

	loop := graph.MustBlock(reg, "controls_repeat_ext").
		WithValue("TIMES", num(reg, "3")).
		Append("DO",
			graph.MustBlock(reg, "swap_operation").
				WithValue("FROM_AMOUNT", num(reg, "1.5")).
				WithValue("TO_AMOUNT", graph.MustBlock(reg, "get_price")),
			graph.MustBlock(reg, "gas_optimization"),
		)

	start := graph.MustBlock(reg, blocks.StartType).Append("DO",
		graph.MustBlock(reg, "risk_management").WithValue("PERCENTAGE", num(reg, "2")),
		graph.MustBlock(reg, "controls_if").
			WithValue("IF0", cond).
			Append("DO0", loop, graph.MustBlock(reg, "trading_action").
				WithValue("AMOUNT", graph.MustBlock(reg, "technical_indicator"))),
	)

	prompt := graph.MustBlock(reg, "ai_prompt").
		WithField("PROMPT_TEXT", "Buy when \"fear\" & greed < 20\nand hold")

	g := graph.New()
	g.AddStack(200, 100, start)
	g.AddStack(-40, 620, prompt, graph.MustBlock(reg, "staking_operation"))
	g.AddStack(10, 10, num(reg, "7"))
	return g
}

func TestRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	g := sampleGraph(reg)

	doc, err := Export(g, reg)
	require.NoError(t, err)

	back, err := Import(doc, reg)
	require.NoError(t, err)
	assert.True(t, graph.Equal(g, back), "round trip changed the graph:\n%s", doc)
}

func TestExportDeterministic(t *testing.T) {
	reg := testRegistry(t)
	g := sampleGraph(reg)

	first, err := Export(g, reg)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Export(g, reg)
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestExportLayout(t *testing.T) {
	reg := testRegistry(t)
	g := graph.New()
	g.AddStack(50, 50, graph.MustBlock(reg, blocks.StartType).
		Append("DO", graph.MustBlock(reg, "trading_action").WithValue("AMOUNT", num(reg, "100"))))

	doc, err := Export(g, reg)
	require.NoError(t, err)

	want := `<xml xmlns="https://developers.google.com/blockly/xml">
  <block type="strategy_start" x="50" y="50">
    <statement name="DO">
      <block type="trading_action">
        <field name="ACTION">BUY</field>
        <field name="ORDER_TYPE">MARKET</field>
        <value name="AMOUNT">
          <block type="math_number">
            <field name="NUM">100</field>
          </block>
        </value>
        <field name="ASSET">BTC_USDT</field>
      </block>
    </statement>
  </block>
</xml>`
	assert.Equal(t, want, string(doc))
}

func TestExportStatementListAsNextChain(t *testing.T) {
	reg := testRegistry(t)
	g := graph.New()
	g.AddStack(0, 0, graph.MustBlock(reg, blocks.StartType).Append("DO",
		graph.MustBlock(reg, "gas_optimization"),
		graph.MustBlock(reg, "gas_optimization").WithField("GAS_STRATEGY", "L2"),
	))

	doc, err := Export(g, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(doc), "<next>"))
	assert.Equal(t, 1, strings.Count(string(doc), "<statement"))
}

func TestExportRejectsInvalidGraph(t *testing.T) {
	reg := testRegistry(t)
	g := graph.New()
	g.AddStack(0, 0, &graph.Block{Type: "mystery"})

	_, err := Export(g, reg)
	assert.ErrorIs(t, err, ErrUnknownBlockType)
}

func TestImportUnknownBlockType(t *testing.T) {
	reg := testRegistry(t)

	g, err := Import([]byte(`<doc><block type="not_a_real_type"/></doc>`), reg)
	assert.Nil(t, g)
	require.ErrorIs(t, err, ErrUnknownBlockType)

	var ute *UnknownBlockTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "not_a_real_type", ute.Type)
}

func TestImportUnknownNestedTypeFailsWholeDocument(t *testing.T) {
	reg := testRegistry(t)
	doc := `<xml>
  <block type="strategy_start" x="0" y="0">
    <statement name="DO">
      <block type="trading_action">
        <value name="AMOUNT"><block type="future_block"/></value>
      </block>
    </statement>
  </block>
</xml>`
	g, err := Import([]byte(doc), reg)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrUnknownBlockType)
}

func TestImportMalformed(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "undeclared value socket",
			doc:  `<xml><block type="trading_action"><value name="PRICE"><block type="math_number"/></value></block></xml>`,
			want: ErrMalformedSocket,
		},
		{
			name: "statement socket used as value",
			doc:  `<xml><block type="strategy_start"><value name="DO"><block type="math_number"/></value></block></xml>`,
			want: ErrMalformedSocket,
		},
		{
			name: "value child without output",
			doc:  `<xml><block type="trading_action"><value name="AMOUNT"><block type="gas_optimization"/></value></block></xml>`,
			want: ErrMalformedSocket,
		},
		{
			name: "two blocks in value socket",
			doc:  `<xml><block type="trading_action"><value name="AMOUNT"><block type="math_number"/><block type="math_number"/></value></block></xml>`,
			want: ErrMalformedSocket,
		},
		{
			name: "unexpected child element",
			doc:  `<xml><block type="trading_action"><widget name="X"/></block></xml>`,
			want: ErrMalformedSocket,
		},
		{
			name: "undeclared field",
			doc:  `<xml><block type="math_number"><field name="DIGITS">3</field></block></xml>`,
			want: ErrInvalidField,
		},
		{
			name: "number field not numeric",
			doc:  `<xml><block type="math_number"><field name="NUM">lots</field></block></xml>`,
			want: ErrInvalidField,
		},
		{
			name: "not xml",
			doc:  `this is not xml`,
			want: ErrMalformedDocument,
		},
		{
			name: "empty",
			doc:  "   ",
			want: ErrMalformedDocument,
		},
		{
			name: "block without type",
			doc:  `<xml><block x="1" y="2"/></xml>`,
			want: ErrMalformedDocument,
		},
		{
			name: "bad coordinate",
			doc:  `<xml><block type="math_number" x="left"/></xml>`,
			want: ErrMalformedDocument,
		},
		{
			name: "NaN coordinate",
			doc:  `<xml><block type="math_number" x="NaN"/></xml>`,
			want: ErrMalformedDocument,
		},
		{
			name: "infinite coordinate",
			doc:  `<xml><block type="math_number" y="-Inf"/></xml>`,
			want: ErrMalformedDocument,
		},
		{
			name: "huge coordinate",
			doc:  `<xml><block type="math_number" x="1e300"/></xml>`,
			want: ErrMalformedDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Import([]byte(tt.doc), reg)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImportAcceptsSiblingStatementBlocks(t *testing.T) {
	reg := testRegistry(t)
	doc := `<xml xmlns="https://developers.google.com/blockly/xml">
  <block type="strategy_start" x="1" y="2">
    <statement name="DO">
      <block type="gas_optimization"/>
      <block type="risk_management">
        <next><block type="trading_action"/></next>
      </block>
    </statement>
  </block>
</xml>`
	g, err := Import([]byte(doc), reg)
	require.NoError(t, err)

	list := g.Stacks[0].Root().Statements["DO"]
	require.Len(t, list, 3)
	assert.Equal(t, "gas_optimization", list[0].Type)
	assert.Equal(t, "risk_management", list[1].Type)
	assert.Equal(t, "trading_action", list[2].Type)
}

func TestImportIgnoresNestedPositionsAndEditorState(t *testing.T) {
	reg := testRegistry(t)
	doc := `<xml>
  <variables/>
  <block type="strategy_start" id="s1" x="12.6" y="30">
    <statement name="DO">
      <block type="controls_if" x="999" y="999">
        <mutation elseif="0"/>
      </block>
    </statement>
  </block>
</xml>`
	g, err := Import([]byte(doc), reg)
	require.NoError(t, err)
	require.Len(t, g.Stacks, 1)
	assert.Equal(t, 12, g.Stacks[0].X)
	assert.Equal(t, 30, g.Stacks[0].Y)
	assert.Equal(t, "s1", g.Stacks[0].Root().ID)
}

func TestImportKeepsUnknownDropdownValues(t *testing.T) {
	reg := testRegistry(t)
	doc := `<xml><block type="get_price"><field name="EXCHANGE">CURVE</field></block></xml>`

	g, err := Import([]byte(doc), reg)
	require.NoError(t, err)
	assert.Equal(t, "CURVE", g.Stacks[0].Root().Fields["EXCHANGE"])
}

func TestNormalize(t *testing.T) {
	reg := testRegistry(t)
	doc := `<xml><block type="math_number" x="5" y="6"><field name="NUM">4</field></block></xml>`

	out, err := Normalize([]byte(doc), reg)
	require.NoError(t, err)

	again, err := Normalize(out, reg)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
	assert.True(t, strings.HasPrefix(string(out), `<xml xmlns="`+Namespace+`">`))
}

func TestImportRoundsCoordinates(t *testing.T) {
	reg := testRegistry(t)

	g, err := Import([]byte(`<xml><block type="math_number" x="12.6" y="-3.5"/></xml>`), reg)
	require.NoError(t, err)
	assert.Equal(t, 13, g.Stacks[0].X)
	assert.Equal(t, -4, g.Stacks[0].Y)
}

func TestTextFieldsOnlyHoldDocumentCharacters(t *testing.T) {
	reg := testRegistry(t)

	for _, value := range []string{"buy\x01now", "stop\x00", "bad \xff byte", "\ufffe"} {
		b := graph.MustBlock(reg, "ai_prompt")
		err := graph.SetField(reg, b, "PROMPT_TEXT", value)
		assert.ErrorIs(t, err, ErrInvalidField, "%q", value)

		// Built directly, the same value is refused at export.
		g := graph.New()
		g.AddStack(0, 0, graph.MustBlock(reg, "ai_prompt").WithField("PROMPT_TEXT", value))
		_, err = Export(g, reg)
		assert.ErrorIs(t, err, ErrInvalidField, "%q", value)
	}

	g, err := Import([]byte(`<xml><block type="ai_prompt"><field name="PROMPT_TEXT">buy&#x1;now</field></block></xml>`), reg)
	assert.Nil(t, g)
	assert.Error(t, err)

	// Tabs, newlines and carriage returns survive a round trip.
	b := graph.MustBlock(reg, "ai_prompt")
	require.NoError(t, graph.SetField(reg, b, "PROMPT_TEXT", "line one\r\n\tline two ✓"))
	g = graph.New()
	g.AddStack(0, 0, b)
	doc, err := Export(g, reg)
	require.NoError(t, err)
	back, err := Import(doc, reg)
	require.NoError(t, err)
	assert.True(t, graph.Equal(g, back))
}
