package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AaronLay10/OrbFi/internal/storage"
)

func TestParsePerformance(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "valid v1 report",
			json: `{
				"version": 1,
				"pnl": "234.56",
				"pnl_percent": 12.4,
				"trades": 47,
				"win_rate": "68.1",
				"reported_at": "2026-03-01T12:00:00Z"
			}`,
		},
		{
			name:    "unsupported version",
			json:    `{"version": 2, "pnl": "1"}`,
			wantErr: true,
		},
		{
			name:    "missing version",
			json:    `{"pnl": "1"}`,
			wantErr: true,
		},
		{
			name:    "bad decimal",
			json:    `{"version": 1, "pnl": "lots"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			json:    `{invalid}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ParsePerformance([]byte(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !report.PnL.Equal(decimal.RequireFromString("234.56")) {
				t.Errorf("pnl = %s", report.PnL)
			}
			if report.Trades != 47 {
				t.Errorf("trades = %d", report.Trades)
			}
			if !report.ReportedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
				t.Errorf("reported_at = %s", report.ReportedAt)
			}
		})
	}
}

func TestValidatePerformance(t *testing.T) {
	tests := []struct {
		name         string
		report       PerformanceReport
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{
			name:      "plausible",
			report:    PerformanceReport{Trades: 12, WinRate: decimal.NewFromInt(75), PnLPercent: decimal.NewFromFloat(8.9)},
			wantValid: true,
		},
		{
			name:       "negative trades",
			report:     PerformanceReport{Trades: -1},
			wantErrors: 1,
		},
		{
			name:       "win rate above 100",
			report:     PerformanceReport{Trades: 3, WinRate: decimal.NewFromInt(101)},
			wantErrors: 1,
		},
		{
			name:         "win rate without trades",
			report:       PerformanceReport{WinRate: decimal.NewFromInt(50)},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:         "leveraged loss",
			report:       PerformanceReport{Trades: 2, PnLPercent: decimal.NewFromInt(-140)},
			wantValid:    true,
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePerformance(&tt.report)
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("got %d errors, want %d: %v", len(result.Errors), tt.wantErrors, result.Errors)
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Errorf("got %d warnings, want %d: %v", len(result.Warnings), tt.wantWarnings, result.Warnings)
			}
		})
	}
}

func TestOrbIDFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"orbfi/orbs/o-1/performance", "o-1", true},
		{"orbfi/orbs/o-1/status", "o-1", true},
		{"orbfi/orbs//performance", "", false},
		{"orbfi/orbs/o-1", "", false},
		{"orbfi/orbs/o-1/performance/extra", "", false},
		{"devices/o-1/performance", "", false},
	}

	for _, tt := range tests {
		id, ok := OrbIDFromTopic(tt.topic)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("OrbIDFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestStatusMessage(t *testing.T) {
	orb := &storage.Orb{
		ID:           "o-9",
		Name:         "ETH Scalp Bot",
		Emoji:        "🔮",
		Status:       storage.OrbPaused,
		LastModified: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Performance:  storage.Performance{PnL: decimal.RequireFromString("-12.5"), Trades: 3},
	}

	data, err := json.Marshal(NewStatusMessage(orb))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["version"] != float64(1) {
		t.Errorf("version = %v", decoded["version"])
	}
	if decoded["status"] != "paused" {
		t.Errorf("status = %v", decoded["status"])
	}
	perf := decoded["performance"].(map[string]interface{})
	if perf["pnl"] != "-12.5" {
		t.Errorf("pnl = %v, want decimal string", perf["pnl"])
	}
	if got := StatusTopic(orb.ID); got != "orbfi/orbs/o-9/status" {
		t.Errorf("StatusTopic = %q", got)
	}
}
