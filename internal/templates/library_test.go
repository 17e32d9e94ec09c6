package templates

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
	"github.com/AaronLay10/OrbFi/internal/serializer"
)

func testRegistry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg, err := blocks.Default()
	require.NoError(t, err)
	return reg
}

func TestLoadBuiltinCatalog(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 19, lib.Len())
	assert.Equal(t, []string{"Technical", "DCA", "DeFi", "Risk Management", "AI", "1inch"}, lib.Categories())
	assert.Len(t, lib.ByCategory("AI"), 5)
	assert.Len(t, lib.ByCategory("1inch"), 5)

	rsi, ok := lib.Get("rsi-scalp")
	require.True(t, ok)
	assert.Equal(t, "RSI Scalping", rsi.Name)
	assert.NotEmpty(t, rsi.Prompt)
}

func TestEveryTemplateImports(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)
	reg := testRegistry(t)

	assert.Empty(t, lib.Validate(reg))

	for _, tpl := range lib.All() {
		g, err := serializer.Import(tpl.Document, reg)
		require.NoError(t, err, tpl.ID)
		roots := g.RootsOfType(blocks.StartType)
		assert.Len(t, roots, 1, "%s should have one entry block", tpl.ID)
	}
}

var nestedPosition = regexp.MustCompile(`(?m)^(\s{3,}<block type="[^"]+") x="-?\d+" y="-?\d+"`)

func TestRSITemplateRoundTrip(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)
	reg := testRegistry(t)

	rsi, ok := lib.Get("rsi-scalp")
	require.True(t, ok)

	g, err := serializer.Import(rsi.Document, reg)
	require.NoError(t, err)

	require.Len(t, g.Stacks, 1)
	root := g.Stacks[0].Root()
	assert.Equal(t, blocks.StartType, root.Type)
	assert.Equal(t, 200, g.Stacks[0].X)
	assert.Equal(t, 100, g.Stacks[0].Y)

	body := root.Statements["DO"]
	require.Len(t, body, 2)
	for i, want := range []struct{ op, action, threshold string }{
		{"LT", "BUY", "30"},
		{"GT", "SELL", "70"},
	} {
		ifBlock := body[i]
		assert.Equal(t, "controls_if", ifBlock.Type)
		cond := ifBlock.Values["IF0"]
		require.NotNil(t, cond)
		assert.Equal(t, "RSI", cond.Fields["INDICATOR"])
		assert.Equal(t, want.op, cond.Fields["OPERATOR"])
		assert.Equal(t, want.threshold, cond.Values["VALUE"].Fields["NUM"])

		action := ifBlock.Statements["DO0"]
		require.Len(t, action, 1)
		assert.Equal(t, want.action, action[0].Fields["ACTION"])
		assert.Equal(t, "100", action[0].Values["AMOUNT"].Fields["NUM"])
	}

	out, err := serializer.Export(g, reg)
	require.NoError(t, err)
	want := nestedPosition.ReplaceAllString(string(rsi.Document), "$1")
	assert.Equal(t, want, string(out))

	back, err := serializer.Import(out, reg)
	require.NoError(t, err)
	assert.True(t, graph.Equal(g, back))
}

func writeOverride(t *testing.T, dir, id, name, doc string) {
	t.Helper()
	manifest := "version: 1\ntemplates:\n  - id: " + id + "\n    name: \"" + name + "\"\n    category: \"Custom\"\n    file: " + id + ".xml\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".xml"), []byte(doc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644))
}

const startOnly = `<xml><block type="strategy_start" x="0" y="0"></block></xml>`

func TestMergeOverridesByID(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	dir := t.TempDir()
	writeOverride(t, dir, "rsi-scalp", "RSI (house rules)", startOnly)
	over, err := LoadDir(dir)
	require.NoError(t, err)

	merged := base.Merge(over)
	assert.Equal(t, base.Len(), merged.Len())
	rsi, _ := merged.Get("rsi-scalp")
	assert.Equal(t, "RSI (house rules)", rsi.Name)
	assert.Equal(t, "rsi-scalp", merged.All()[0].ID)

	orig, _ := base.Get("rsi-scalp")
	assert.Equal(t, "RSI Scalping", orig.Name)
}

func TestLoadDirRejectsBadManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("version: 3\n"), 0644))
	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestWatcherReload(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)
	reg := testRegistry(t)
	dir := t.TempDir()

	w := NewWatcher(base, dir, reg)
	assert.Same(t, base, w.Current())

	writeOverride(t, dir, "my-start", "Mine", startOnly)
	require.NoError(t, w.Reload())
	_, ok := w.Current().Get("my-start")
	assert.True(t, ok)
	assert.Equal(t, base.Len()+1, w.Current().Len())

	// A broken override keeps the previous catalog.
	writeOverride(t, dir, "my-start", "Mine", `<xml><block type="warp_drive"/></xml>`)
	assert.ErrorIs(t, w.Reload(), serializer.ErrUnknownBlockType)
	_, ok = w.Current().Get("my-start")
	assert.True(t, ok)
}

func TestWatcherRunPicksUpChanges(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)
	dir := t.TempDir()
	w := NewWatcher(base, dir, testRegistry(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeOverride(t, dir, "live", "Live", startOnly)

	assert.Eventually(t, func() bool {
		_, ok := w.Current().Get("live")
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
