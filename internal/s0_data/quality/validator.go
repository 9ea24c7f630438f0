package quality

import (
	"fmt"
	"sort"

	"github.com/wonny/multibagger/internal/contracts"
)

// Gate checks a normalization snapshot against coverage thresholds
type Gate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MaxRejectRate float64            // share of raw statements allowed to fail identity checks
	MinCoverage   map[string]float64 // field -> minimum share of accepted records with a value
}

// DefaultConfig covers the fields every hard filter depends on
func DefaultConfig() Config {
	return Config{
		MaxRejectRate: 0.10,
		MinCoverage: map[string]float64{
			"market_cap":     0.95,
			"free_cash_flow": 0.80,
			"total_equity":   0.80,
			"net_income":     0.80,
		},
	}
}

// Result is the gate verdict
type Result struct {
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
}

// NewGate creates a new Gate instance
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check validates a normalization snapshot
// ⭐ SSOT: S0 → S2 품질 검증
func (g *Gate) Check(snapshot *contracts.NormalizationSnapshot) Result {
	var violations []string

	if snapshot.TotalRaw == 0 {
		return Result{Passed: false, Violations: []string{"no statements"}}
	}

	if rate := snapshot.RejectRate(); rate > g.config.MaxRejectRate {
		violations = append(violations, fmt.Sprintf("reject rate %.2f%% > %.2f%%", rate*100, g.config.MaxRejectRate*100))
	}

	fields := make([]string, 0, len(g.config.MinCoverage))
	for field := range g.config.MinCoverage {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		want := g.config.MinCoverage[field]
		if got := snapshot.Coverage[field]; got < want {
			violations = append(violations, fmt.Sprintf("%s coverage %.2f%% < %.2f%%", field, got*100, want*100))
		}
	}

	return Result{
		Passed:     len(violations) == 0,
		Violations: violations,
	}
}
