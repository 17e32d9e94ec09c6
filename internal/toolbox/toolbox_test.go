package toolbox

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/AaronLay10/OrbFi/internal/blocks"
)

func TestDefaultToolboxCoversRegistry(t *testing.T) {
	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}

	tb, err := Build(reg, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if unlisted := tb.Unlisted(reg); len(unlisted) != 0 {
		t.Errorf("registered types missing from the toolbox: %v", unlisted)
	}
	if got := tb.Categories[0].TypeNames()[0]; got != blocks.StartType {
		t.Errorf("first palette entry = %s, want %s", got, blocks.StartType)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}

	a, err := Build(reg, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(reg, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Categories) != len(b.Categories) {
		t.Fatalf("category count differs: %d vs %d", len(a.Categories), len(b.Categories))
	}
	for i := range a.Categories {
		if a.Categories[i].Name != b.Categories[i].Name {
			t.Errorf("category %d: %s vs %s", i, a.Categories[i].Name, b.Categories[i].Name)
		}
		if !reflect.DeepEqual(a.Categories[i].TypeNames(), b.Categories[i].TypeNames()) {
			t.Errorf("category %s order differs", a.Categories[i].Name)
		}
	}
}

func TestBuildRejectsUnknownType(t *testing.T) {
	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{Version: 1, Categories: []CategoryConfig{{Name: "Extra", Types: []string{"flux_capacitor"}}}}
	_, err = Build(reg, cfg)
	if !errors.Is(err, blocks.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildRejectsDuplicateCategory(t *testing.T) {
	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Version: 1, Categories: []CategoryConfig{{Name: "A"}, {Name: "A"}}}
	if _, err := Build(reg, cfg); err == nil {
		t.Fatal("expected error for duplicate category")
	}
}

func TestUnlistedReportsNewTypes(t *testing.T) {
	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Version: 1, Categories: []CategoryConfig{{Name: "Only", Types: []string{blocks.StartType}}}}
	tb, err := Build(reg, cfg)
	if err != nil {
		t.Fatal(err)
	}

	unlisted := tb.Unlisted(reg)
	if len(unlisted) != reg.Len()-1 {
		t.Errorf("expected %d unlisted, got %d", reg.Len()-1, len(unlisted))
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolbox.yaml")
	content := `version: 1
categories:
  - name: Signals
    colour: "#FF0000"
    types: [technical_indicator, logic_compare]
  - name: Orders
    colour: "#00FF00"
    types: [trading_action]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cfg.Categories))
	}
	if got, want := cfg.Categories[0].Types, []string{"technical_indicator", "logic_compare"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}
	tb, err := Build(reg, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := tb.Category("Orders"); !ok || c.Colour != "#00FF00" {
		t.Errorf("Orders category not resolved: %+v", c)
	}
}

func TestLoadConfigVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolbox.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestBuiltinTypesAreRegistered(t *testing.T) {
	reg, err := blocks.Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range BuiltinTypes() {
		if !reg.Has(name) {
			t.Errorf("builtin %s not registered", name)
		}
	}
}
