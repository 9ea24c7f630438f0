package s2_signals

import (
	"context"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/pkg/logger"
)

const (
	// LowWindow is the trailing window for the 52-week low (trading days)
	LowWindow = 252
	// MomentumWindow is the lookback for 6-month momentum (trading days)
	MomentumWindow = 126
)

// TimingCalculator computes entry-timing inputs from daily bars
// ⭐ SSOT: 타이밍 지표 계산은 여기서만
type TimingCalculator struct {
	lowWindow      int
	momentumWindow int
	logger         *logger.Logger
}

// NewTimingCalculator creates a new timing calculator with the default windows
func NewTimingCalculator(log *logger.Logger) *TimingCalculator {
	return &TimingCalculator{
		lowWindow:      LowWindow,
		momentumWindow: MomentumWindow,
		logger:         log,
	}
}

// Calculate expects bars oldest first. Windows shrink to the available history;
// fewer than two bars leaves both inputs undefined.
func (c *TimingCalculator) Calculate(bars []contracts.PriceBar) contracts.TimingInputs {
	inputs := contracts.TimingInputs{}
	if len(bars) < 2 {
		return inputs
	}

	closes := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		lows[i] = b.Low
		if lows[i] <= 0 {
			lows[i] = b.Close
		}
	}
	last := len(bars) - 1
	current := closes[last]
	if current <= 0 {
		return inputs
	}

	// Distance from trailing low
	lowWindow := c.lowWindow
	if lowWindow > len(lows) {
		lowWindow = len(lows)
	}
	mins := talib.Min(lows, lowWindow)
	low := mins[last]
	if low > 0 && !math.IsNaN(low) {
		inputs.DistanceFromLow = contracts.Defined((current - low) / low)
	}

	// Momentum over the lookback
	momentumWindow := c.momentumWindow
	if momentumWindow > last {
		momentumWindow = last
	}
	if base := closes[last-momentumWindow]; base > 0 {
		rocp := talib.Rocp(closes, momentumWindow)
		inputs.Momentum = contracts.Defined(rocp[last])
	}

	c.logger.WithFields(map[string]interface{}{
		"bars":              len(bars),
		"distance_from_low": inputs.DistanceFromLow.String(),
		"momentum":          inputs.Momentum.String(),
	}).Debug("Calculated timing inputs")

	return inputs
}

// BarTimingSource adapts a PriceSource into a TimingSource
type BarTimingSource struct {
	prices contracts.PriceSource
	calc   *TimingCalculator
}

// NewBarTimingSource creates a timing source backed by daily bars
func NewBarTimingSource(prices contracts.PriceSource, calc *TimingCalculator) *BarTimingSource {
	return &BarTimingSource{
		prices: prices,
		calc:   calc,
	}
}

// Timing returns nil without error when the entity has no bars
func (s *BarTimingSource) Timing(ctx context.Context, entityID string) (*contracts.TimingInputs, error) {
	bars, err := s.prices.Bars(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", entityID, err)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	inputs := s.calc.Calculate(bars)
	return &inputs, nil
}
