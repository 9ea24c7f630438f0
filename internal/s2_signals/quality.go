package s2_signals

import (
	"github.com/wonny/multibagger/internal/contracts"
)

// QualityFlagEvaluator computes strict boolean quality flags
// ⭐ SSOT: 퀄리티 플래그는 여기서만
type QualityFlagEvaluator struct{}

// NewQualityFlagEvaluator creates a new quality flag evaluator
func NewQualityFlagEvaluator() *QualityFlagEvaluator {
	return &QualityFlagEvaluator{}
}

// Evaluate never returns unknown: an undefined input resolves the flag to false
func (e *QualityFlagEvaluator) Evaluate(r contracts.PeriodRecord) contracts.QualityFlags {
	netIncome, hasNetIncome := r.NetIncome.Get()
	equity, hasEquity := r.TotalEquity.Get()

	return contracts.QualityFlags{
		IsProfitable:      hasNetIncome && netIncome > 0,
		HasNegativeEquity: hasEquity && equity < 0,
	}
}
