// Package toolbox groups registered block types into the editor palette.
package toolbox

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/OrbFi/internal/blocks"
)

// CategoryConfig is one palette category as curated in configuration.
type CategoryConfig struct {
	Name   string   `yaml:"name" json:"name"`
	Colour string   `yaml:"colour" json:"colour"`
	Types  []string `yaml:"types" json:"blockTypeNames"`
}

// Config is the ordered list of categories.
type Config struct {
	Version    int              `yaml:"version"`
	Categories []CategoryConfig `yaml:"categories"`
}

// Category is a resolved palette category.
type Category struct {
	Name   string              `json:"name"`
	Colour string              `json:"colour"`
	Blocks []*blocks.BlockType `json:"-"`
}

// TypeNames returns the category's block type names in order.
func (c *Category) TypeNames() []string {
	names := make([]string, len(c.Blocks))
	for i, bt := range c.Blocks {
		names[i] = bt.Type
	}
	return names
}

// Toolbox is the palette shown to the user.
type Toolbox struct {
	Categories []Category
}

// Build resolves every configured type name against the registry.
// Membership comes only from cfg, so a new block type shows up in the
// palette only once it is listed.
func Build(reg *blocks.Registry, cfg Config) (*Toolbox, error) {
	tb := &Toolbox{Categories: make([]Category, 0, len(cfg.Categories))}
	seen := make(map[string]struct{})

	for _, cc := range cfg.Categories {
		if cc.Name == "" {
			return nil, fmt.Errorf("toolbox category without name")
		}
		if _, dup := seen[cc.Name]; dup {
			return nil, fmt.Errorf("duplicate toolbox category: %s", cc.Name)
		}
		seen[cc.Name] = struct{}{}

		cat := Category{Name: cc.Name, Colour: cc.Colour}
		for _, name := range cc.Types {
			bt, err := reg.Get(name)
			if err != nil {
				return nil, fmt.Errorf("toolbox category %s: %w", cc.Name, err)
			}
			cat.Blocks = append(cat.Blocks, bt)
		}
		tb.Categories = append(tb.Categories, cat)
	}
	return tb, nil
}

// Category returns the named category.
func (tb *Toolbox) Category(name string) (*Category, bool) {
	for i := range tb.Categories {
		if tb.Categories[i].Name == name {
			return &tb.Categories[i], true
		}
	}
	return nil, false
}

// Unlisted returns registered types that no category lists, in registry order.
func (tb *Toolbox) Unlisted(reg *blocks.Registry) []string {
	listed := make(map[string]struct{})
	for _, c := range tb.Categories {
		for _, bt := range c.Blocks {
			listed[bt.Type] = struct{}{}
		}
	}
	var out []string
	for bt := range reg.All() {
		if _, ok := listed[bt.Type]; !ok {
			out = append(out, bt.Type)
		}
	}
	return out
}

// BuiltinTypes returns the generic block types that are not trading blocks.
func BuiltinTypes() []string {
	return slices.Clone(blocks.BuiltinNames)
}

// LoadConfig reads a toolbox override file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Version != 1 {
		return Config{}, fmt.Errorf("unsupported toolbox.yaml version: %d", cfg.Version)
	}

	return cfg, nil
}

// DefaultConfig is the OrbFi palette.
func DefaultConfig() Config {
	return Config{
		Version: 1,
		Categories: []CategoryConfig{
			{Name: "🎯 Strategy", Colour: "#5C81A6", Types: []string{blocks.StartType, "controls_if", "controls_repeat_ext"}},
			{Name: "📊 Technical Analysis", Colour: "#FF6B6B", Types: []string{"technical_indicator", "logic_compare", "logic_operation"}},
			{Name: "⚡ Trading Actions", Colour: "#4ECDC4", Types: []string{"trading_action"}},
			{Name: "🛡️ Risk Management", Colour: "#FF9F43", Types: []string{"risk_management"}},
			{Name: "💰 Portfolio", Colour: "#A55EEA", Types: []string{"portfolio_balance", "market_data", "get_price"}},
			{Name: "🔗 Blockchain", Colour: "#6C5CE7", Types: []string{"blockchain_operation", "gas_optimization"}},
			{Name: "🔄 DeFi", Colour: "#FD79A8", Types: []string{"defi_operation", "swap_operation"}},
			{Name: "🔒 Staking", Colour: "#E17055", Types: []string{"staking_operation"}},
			{Name: "🤖 AI Agents", Colour: "#8E44AD", Types: []string{"ai_agent", "ai_agent_config", "ai_prompt", "ai_data_source", "ai_condition", "ai_optimization"}},
			{Name: "📈 1inch Limit Orders", Colour: "#1F6FEB", Types: []string{"limit_order_strategy", "limit_order_config", "limit_order_1inch", "limit_order_condition"}},
			{Name: "🔢 Math & Logic", Colour: "#745CA6", Types: []string{"math_number", "math_arithmetic", "logic_boolean", "logic_negate"}},
		},
	}
}
