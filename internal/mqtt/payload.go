package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AaronLay10/OrbFi/internal/storage"
)

const (
	topicPrefix = "orbfi/orbs/"

	// PerformanceFilter matches performance reports for every orb.
	PerformanceFilter = topicPrefix + "+/performance"
)

// StatusTopic is the retained status topic for one orb.
func StatusTopic(orbID string) string {
	return topicPrefix + orbID + "/status"
}

// OrbIDFromTopic extracts the orb id from orbfi/orbs/{id}/{kind}.
func OrbIDFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return "", false
	}
	id, kind, ok := strings.Cut(rest, "/")
	if !ok || id == "" || kind == "" || strings.Contains(kind, "/") {
		return "", false
	}
	return id, true
}

// StatusMessage is the retained v1 payload published for each orb.
type StatusMessage struct {
	Version     int                 `json:"version"`
	OrbID       string              `json:"orb_id"`
	Name        string              `json:"name"`
	Emoji       string              `json:"emoji"`
	Status      storage.OrbStatus   `json:"status"`
	Performance storage.Performance `json:"performance"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewStatusMessage builds the status payload for orb.
func NewStatusMessage(orb *storage.Orb) StatusMessage {
	return StatusMessage{
		Version:     1,
		OrbID:       orb.ID,
		Name:        orb.Name,
		Emoji:       orb.Emoji,
		Status:      orb.Status,
		Performance: orb.Performance,
		UpdatedAt:   orb.LastModified,
	}
}

// PerformanceReport is a v1 performance message from a strategy runner.
type PerformanceReport struct {
	Version    int             `json:"version"`
	PnL        decimal.Decimal `json:"pnl"`
	PnLPercent decimal.Decimal `json:"pnl_percent"`
	Trades     int             `json:"trades"`
	WinRate    decimal.Decimal `json:"win_rate"`
	ReportedAt time.Time       `json:"reported_at"`
}

// Performance converts the report into the stored form.
func (r *PerformanceReport) Performance() storage.Performance {
	return storage.Performance{
		PnL:        r.PnL,
		PnLPercent: r.PnLPercent,
		Trades:     r.Trades,
		WinRate:    r.WinRate,
	}
}

// ParsePerformance parses a performance report from JSON bytes.
func ParsePerformance(data []byte) (*PerformanceReport, error) {
	var report PerformanceReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("invalid performance JSON: %w", err)
	}

	if report.Version != 1 {
		return nil, fmt.Errorf("unsupported performance version: %d", report.Version)
	}

	return &report, nil
}

// ValidationResult contains validation outcome.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

var hundred = decimal.NewFromInt(100)

// ValidatePerformance checks that a report's figures are plausible.
// Losses past -100% are allowed with a warning since leveraged orbs can
// produce them.
func ValidatePerformance(r *PerformanceReport) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if r.Trades < 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("trades must not be negative, got %d", r.Trades))
		result.Valid = false
	}
	if r.WinRate.IsNegative() || r.WinRate.GreaterThan(hundred) {
		result.Errors = append(result.Errors, fmt.Sprintf("win_rate %s outside 0..100", r.WinRate))
		result.Valid = false
	}
	if r.Trades == 0 && !r.WinRate.IsZero() {
		result.Warnings = append(result.Warnings, "win_rate reported without trades")
	}
	if r.PnLPercent.LessThan(hundred.Neg()) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("pnl_percent %s below -100", r.PnLPercent))
	}

	return result
}
