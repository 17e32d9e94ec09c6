package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
	"github.com/AaronLay10/OrbFi/internal/serializer"
	"github.com/AaronLay10/OrbFi/internal/templates"
)

func testRegistry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg, err := blocks.Default()
	require.NoError(t, err)
	return reg
}

func TestGenerateRSITemplate(t *testing.T) {
	reg := testRegistry(t)
	lib, err := templates.Load()
	require.NoError(t, err)
	tpl, ok := lib.Get("rsi-scalp")
	require.True(t, ok)

	g, err := serializer.Import(tpl.Document, reg)
	require.NoError(t, err)

	p, err := Generate(g, reg)
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	assert.Empty(t, p.Skipped)

	want := `// strategy1 at (200, 100)
async function strategy1(ctx) {
  if (ctx.evaluateIndicator("RSI", "LT", 30, "15m")) {
    await ctx.executeAction("BUY", "MARKET", 100, "BTC_USDT");
  }
  if (ctx.evaluateIndicator("RSI", "GT", 70, "15m")) {
    await ctx.executeAction("SELL", "MARKET", 100, "BTC_USDT");
  }
}
`
	assert.Equal(t, want, p.Source())
}

func TestGenerateRecordsSkippedBlocks(t *testing.T) {
	reg := testRegistry(t)

	g := graph.New()
	g.AddStack(0, 0, graph.MustBlock(reg, blocks.StartType).Append("DO",
		graph.MustBlock(reg, "ai_agent"),
		graph.MustBlock(reg, "gas_optimization"),
	))
	g.AddStack(300, 0,
		graph.MustBlock(reg, "trading_action"),
		graph.MustBlock(reg, "risk_management"),
	)

	p, err := Generate(g, reg)
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	assert.Contains(t, p.Entries[0].Source, `await ctx.setGasStrategy("LOW", "ETH");`)
	assert.NotContains(t, p.Entries[0].Source, "ai_agent")

	detached := "not attached to a strategy_start block"
	assert.Equal(t, []GenerationIssue{
		{Type: "ai_agent", Path: "0.0/DO.0", Reason: "no translation rule"},
		{Type: "trading_action", Path: "1.0", Reason: detached},
		{Type: "risk_management", Path: "1.1", Reason: detached},
	}, p.Skipped)

	// Skipped paths resolve in the graph.
	for _, issue := range p.Skipped {
		b, err := g.Locate(issue.Path)
		require.NoError(t, err, issue.Path)
		assert.Equal(t, issue.Type, b.Type)
	}
}

func TestGenerateOneEntryPerStartBlock(t *testing.T) {
	reg := testRegistry(t)

	g := graph.New()
	g.AddStack(0, 0, graph.MustBlock(reg, blocks.StartType))
	g.AddStack(400, 0, graph.MustBlock(reg, blocks.StartType))

	p, err := Generate(g, reg)
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)
	assert.Equal(t, "strategy1", p.Entries[0].Name)
	assert.Equal(t, "strategy2", p.Entries[1].Name)
	assert.Equal(t, 400, p.Entries[1].X)
}

func TestGenerateExpressions(t *testing.T) {
	reg := testRegistry(t)
	num := func(v string) *graph.Block { return graph.MustBlock(reg, "math_number").WithField("NUM", v) }

	cond := graph.MustBlock(reg, "logic_operation").WithField("OP", "OR").
		WithValue("A", graph.MustBlock(reg, "logic_compare").WithField("OP", "GTE").
			WithValue("A", graph.MustBlock(reg, "get_price").WithField("ASSET", "ETH")).
			WithValue("B", graph.MustBlock(reg, "math_arithmetic").WithField("OP", "POWER").
				WithValue("A", num("2")).WithValue("B", num("10")))).
		WithValue("B", graph.MustBlock(reg, "logic_negate"))

	loop := graph.MustBlock(reg, "controls_repeat_ext").WithValue("TIMES", num("3")).
		Append("DO", graph.MustBlock(reg, "swap_operation").WithValue("FROM_AMOUNT", num("1.5")))

	g := graph.New()
	g.AddStack(0, 0, graph.MustBlock(reg, blocks.StartType).Append("DO",
		graph.MustBlock(reg, "controls_if").WithValue("IF0", cond).Append("DO0", loop)))

	p, err := Generate(g, reg)
	require.NoError(t, err)
	assert.Empty(t, p.Skipped)

	want := `// strategy1 at (0, 0)
async function strategy1(ctx) {
  if (((ctx.getPrice("ETH", "BINANCE") >= Math.pow(2, 10)) || !false)) {
    for (let i2 = 0; i2 < 3; i2++) {
      await ctx.swap(1.5, "USDT", 0, "USDT");
    }
  }
}
`
	assert.Equal(t, want, p.Source())
}

func TestGenerateRejectsInvalidGraph(t *testing.T) {
	reg := testRegistry(t)
	g := graph.New()
	g.AddStack(0, 0, &graph.Block{Type: "nope"})

	_, err := Generate(g, reg)
	assert.ErrorIs(t, err, graph.ErrUnknownBlockType)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(blocks.StartType))
	assert.True(t, Supported("trading_action"))
	assert.True(t, Supported("technical_indicator"))
	assert.False(t, Supported("ai_prompt"))
}
