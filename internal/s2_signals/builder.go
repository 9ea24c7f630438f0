package s2_signals

import (
	"fmt"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/pkg/logger"
)

// Deriver combines ratio, growth and quality calculators into DerivedMetrics
// ⭐ SSOT: DerivedMetrics 생성 오케스트레이션은 여기서만
type Deriver struct {
	ratio   *RatioCalculator
	growth  *GrowthCalculator
	quality *QualityFlagEvaluator

	logger *logger.Logger
}

// NewDeriver creates a new deriver
func NewDeriver(log *logger.Logger) *Deriver {
	return &Deriver{
		ratio:   NewRatioCalculator(),
		growth:  NewGrowthCalculator(),
		quality: NewQualityFlagEvaluator(),
		logger:  log,
	}
}

// Derive computes DerivedMetrics for one record.
// Without a prior record growth rates stay undefined and reinvestment quality unknown.
func (d *Deriver) Derive(record contracts.PeriodRecord, prior *contracts.PeriodRecord) (contracts.DerivedMetrics, error) {
	metrics := contracts.DerivedMetrics{
		EntityID:     record.EntityID,
		Period:       record.Period,
		MarketCap:    record.MarketCap,
		Ratios:       d.ratio.Calculate(record),
		QualityFlags: d.quality.Evaluate(record),
	}

	if prior != nil {
		growth, err := d.growth.Calculate(record, *prior)
		if err != nil {
			return contracts.DerivedMetrics{}, fmt.Errorf("derive %s: %w", record.EntityID, err)
		}
		metrics.GrowthRates = growth
	}

	d.logger.WithFields(map[string]interface{}{
		"entity_id":      record.EntityID,
		"period":         record.Period.Key(),
		"fcf_price":      metrics.FCFPrice.String(),
		"book_to_market": metrics.BookToMarket.String(),
		"roa":            metrics.ROA.String(),
		"reinvestment":   metrics.ReinvestmentQuality.String(),
	}).Debug("Derived metrics")

	return metrics, nil
}

// DeriveLatest pairs the newest record with its predecessor and derives metrics.
// It returns nil when the entity has no usable record.
func (d *Deriver) DeriveLatest(records []contracts.PeriodRecord, cadences ...contracts.Cadence) (*contracts.PeriodRecord, *contracts.DerivedMetrics, error) {
	latest, prior := PairLatest(records, cadences...)
	if latest == nil {
		return nil, nil, nil
	}

	metrics, err := d.Derive(*latest, prior)
	if err != nil {
		return nil, nil, err
	}
	return latest, &metrics, nil
}
