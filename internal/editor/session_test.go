package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/graph"
	"github.com/AaronLay10/OrbFi/internal/serializer"
)

type fakeSaver struct {
	mu   sync.Mutex
	docs [][]byte
	fail error
}

func (f *fakeSaver) SaveDocument(ctx context.Context, draftID string, doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.docs = append(f.docs, append([]byte(nil), doc...))
	return nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeSaver) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.docs) == 0 {
		return nil
	}
	return f.docs[len(f.docs)-1]
}

func testRegistry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg, err := blocks.Default()
	require.NoError(t, err)
	return reg
}

var fast = Options{Debounce: 30 * time.Millisecond, SuppressWindow: 150 * time.Millisecond}

func openSession(t *testing.T, saver Saver, initial []byte, opts Options) *Session {
	t.Helper()
	s := NewSession(testRegistry(t), saver, "d-1", opts)
	require.NoError(t, s.Open(context.Background(), initial))
	t.Cleanup(s.Close)
	return s
}

func TestOpenEmptyCreatesStartBlock(t *testing.T) {
	s := openSession(t, &fakeSaver{}, nil, fast)

	assert.Equal(t, Ready, s.State())
	g, err := s.Graph()
	require.NoError(t, err)
	require.Len(t, g.Stacks, 1)
	assert.Equal(t, blocks.StartType, g.Stacks[0].Root().Type)
	assert.Equal(t, DefaultStartX, g.Stacks[0].X)
	assert.Equal(t, DefaultStartY, g.Stacks[0].Y)
	assert.Empty(t, g.Stacks[0].Root().Statements["DO"])
}

func TestOpenBadDocumentFallsBack(t *testing.T) {
	s := NewSession(testRegistry(t), &fakeSaver{}, "d-1", fast)
	defer s.Close()

	err := s.Open(context.Background(), []byte(`<xml><block type="quantum_oracle"/></xml>`))
	require.ErrorIs(t, err, ErrInitialLoad)
	assert.ErrorIs(t, err, serializer.ErrUnknownBlockType)
	assert.Contains(t, err.Error(), "failed to load initial blocks")

	assert.Equal(t, Ready, s.State())
	g, err := s.Graph()
	require.NoError(t, err)
	require.Len(t, g.Stacks, 1)
	assert.Equal(t, blocks.StartType, g.Stacks[0].Root().Type)
}

func TestOpenTwiceFails(t *testing.T) {
	s := openSession(t, &fakeSaver{}, nil, fast)
	assert.Error(t, s.Open(context.Background(), nil))
}

func TestDebounceCoalescesChanges(t *testing.T) {
	saver := &fakeSaver{}
	s := openSession(t, saver, nil, Options{Debounce: 80 * time.Millisecond, SuppressWindow: time.Second})

	_, err := s.AddBlock("trading_action", Rect{})
	require.NoError(t, err)
	for _, v := range []string{"SELL", "BUY_LONG", "CLOSE", "SELL_SHORT", "BUY"} {
		require.NoError(t, s.SetField("1.0", "ACTION", v))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return saver.count() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, saver.count(), "a burst of edits should produce one write")
	assert.Equal(t, Idle, s.AutosaveState())

	g, err := serializer.Import(saver.last(), testRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, "BUY", g.Stacks[1].Root().Fields["ACTION"])
}

func TestFieldChangeIsPersisted(t *testing.T) {
	reg := testRegistry(t)
	saver := &fakeSaver{}

	g := graph.New()
	g.AddStack(50, 50, graph.MustBlock(reg, blocks.StartType).Append("DO", graph.MustBlock(reg, "trading_action")))
	doc, err := serializer.Export(g, reg)
	require.NoError(t, err)

	s := openSession(t, saver, doc, fast)
	require.NoError(t, s.SetField("0.0/DO.0", "ACTION", "SELL"))

	require.Eventually(t, func() bool { return saver.count() == 1 }, time.Second, 10*time.Millisecond)
	back, err := serializer.Import(saver.last(), reg)
	require.NoError(t, err)
	assert.Equal(t, "SELL", back.Stacks[0].Root().Statements["DO"][0].Fields["ACTION"])
}

func TestUnchangedDocumentIsNotAutosaved(t *testing.T) {
	reg := testRegistry(t)
	saver := &fakeSaver{}

	g, err := graph.NewStart(reg, 50, 50)
	require.NoError(t, err)
	doc, err := serializer.Export(g, reg)
	require.NoError(t, err)

	s := openSession(t, saver, doc, fast)
	// A no-op update still schedules an export, which finds nothing new.
	require.NoError(t, s.Update(func(*graph.Graph) error { return nil }))
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, saver.count())

	// A manual save writes even when nothing changed.
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, 1, saver.count())
	assert.Equal(t, string(doc), string(saver.last()))
}

func TestEveryManualSaveWrites(t *testing.T) {
	saver := &fakeSaver{}
	s := openSession(t, saver, nil, fast)

	require.NoError(t, s.Save(context.Background()))
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, 2, saver.count())
	assert.Equal(t, string(saver.docs[0]), string(saver.docs[1]))
}

func TestInvalidSetFieldLeavesCanvas(t *testing.T) {
	saver := &fakeSaver{}
	s := openSession(t, saver, nil, fast)
	_, err := s.AddBlock("trading_action", Rect{})
	require.NoError(t, err)

	err = s.SetField("1.0", "ACTION", "HODL")
	assert.ErrorIs(t, err, graph.ErrInvalidField)
	err = s.SetField("9.0", "ACTION", "SELL")
	assert.ErrorIs(t, err, graph.ErrBadPath)

	g, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, "BUY", g.Stacks[1].Root().Fields["ACTION"])
}

func TestLoadKeepsGraphOnFailure(t *testing.T) {
	s := openSession(t, &fakeSaver{}, nil, fast)
	before, err := s.Export()
	require.NoError(t, err)

	err = s.Load([]byte(`<xml><block type="strategy_start"><value name="DO"/></block>`))
	assert.Error(t, err)

	after, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	require.NoError(t, s.Load([]byte(`<xml><block type="math_number" x="1" y="2"/></xml>`)))
	g, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, "math_number", g.Stacks[0].Root().Type)
}

func TestManualSaveCancelsPendingAndSuppresses(t *testing.T) {
	saver := &fakeSaver{}
	s := openSession(t, saver, nil, Options{Debounce: 50 * time.Millisecond, SuppressWindow: 200 * time.Millisecond})

	_, err := s.AddBlock("gas_optimization", Rect{})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return s.AutosaveState() == PendingExport }, time.Second, 2*time.Millisecond)

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, 1, saver.count())
	assert.Equal(t, SuppressedManualSave, s.AutosaveState())

	// The cancelled autosave never fires.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, saver.count())

	// An edit inside the window is held, then written after it.
	require.NoError(t, s.SetField("1.0", "GAS_STRATEGY", "HIGH"))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, saver.count())
	assert.Equal(t, SuppressedManualSave, s.AutosaveState())

	assert.Eventually(t, func() bool { return saver.count() == 2 }, time.Second, 10*time.Millisecond)
	g, err := serializer.Import(saver.last(), testRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, "HIGH", g.Stacks[1].Root().Fields["GAS_STRATEGY"])
	assert.Eventually(t, func() bool { return s.AutosaveState() == Idle }, time.Second, 10*time.Millisecond)
}

func TestSaveFailureIsReported(t *testing.T) {
	saver := &fakeSaver{fail: errors.New("disk full")}
	s := openSession(t, saver, nil, Options{Debounce: 200 * time.Millisecond})
	_, err := s.AddBlock("gas_optimization", Rect{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.AutosaveState() == PendingExport }, time.Second, 2*time.Millisecond)

	assert.EqualError(t, s.Save(context.Background()), "disk full")
	assert.Equal(t, Idle, s.AutosaveState())

	saver.mu.Lock()
	saver.fail = nil
	saver.mu.Unlock()
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, 1, saver.count())
}

func TestCloseDropsPendingExport(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(testRegistry(t), saver, "d-1", Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, s.Open(context.Background(), nil))

	_, err := s.AddBlock("gas_optimization", Rect{})
	require.NoError(t, err)
	s.Close()
	s.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, saver.count())
	assert.Equal(t, Disposed, s.State())

	assert.ErrorIs(t, s.SetField("0.0", "GAS_STRATEGY", "HIGH"), ErrNotReady)
	assert.ErrorIs(t, s.Save(context.Background()), ErrNotReady)
	_, err = s.Export()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestAddBlockCentersInViewport(t *testing.T) {
	s := openSession(t, &fakeSaver{}, nil, fast)

	path, err := s.AddBlock("risk_management", Rect{X: 100, Y: 0, Width: 800, Height: 600})
	require.NoError(t, err)
	assert.Equal(t, "1.0", path)

	g, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, 100+(800-200)/2, g.Stacks[1].X)
	assert.Equal(t, (600-40)/2, g.Stacks[1].Y)

	_, err = s.AddBlock("teleporter", Rect{})
	assert.ErrorIs(t, err, graph.ErrUnknownBlockType)
}

func TestPlaceInViewport(t *testing.T) {
	x, y := PlaceInViewport(Size{Width: 100, Height: 20}, Rect{X: -50, Y: 10, Width: 300, Height: 100})
	assert.Equal(t, 50, x)
	assert.Equal(t, 50, y)

	x, y = PlaceInViewport(DefaultBlockSize, Rect{})
	assert.Equal(t, DefaultStartX, x)
	assert.Equal(t, DefaultStartY, y)
}
