package s2_signals

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/multibagger/internal/contracts"
)

// GrowthCalculator computes period-over-period growth between adjacent records
// ⭐ SSOT: 성장률 계산은 여기서만
type GrowthCalculator struct{}

// NewGrowthCalculator creates a new growth calculator
func NewGrowthCalculator() *GrowthCalculator {
	return &GrowthCalculator{}
}

// Calculate requires current and prior to share entity and cadence, with prior
// exactly one cadence step earlier. Anything else fails with ErrInvalidPeriodPairing.
func (c *GrowthCalculator) Calculate(current, prior contracts.PeriodRecord) (contracts.GrowthRates, error) {
	if err := checkPairing(current, prior); err != nil {
		return contracts.GrowthRates{}, err
	}

	rates := contracts.GrowthRates{
		AssetGrowth:   GrowthRate(current.TotalAssets, prior.TotalAssets),
		EBITDAGrowth:  GrowthRate(current.EBITDA, prior.EBITDA),
		RevenueGrowth: GrowthRate(current.Revenue, prior.Revenue),
	}

	// Reinvestment quality: asset growth must not outpace EBITDA growth
	asset, okAsset := rates.AssetGrowth.Get()
	ebitda, okEBITDA := rates.EBITDAGrowth.Get()
	if okAsset && okEBITDA {
		rates.ReinvestmentQuality = contracts.FlagOf(asset <= ebitda)
	}

	return rates, nil
}

// GrowthRate returns (current - prior) / |prior|, undefined when prior is zero
// or either value is undefined
func GrowthRate(current, prior contracts.Metric) contracts.Metric {
	cur, ok := current.Get()
	if !ok {
		return contracts.Undefined()
	}
	p, ok := prior.Get()
	if !ok || p == 0 {
		return contracts.Undefined()
	}
	return contracts.Defined((cur - p) / math.Abs(p))
}

func checkPairing(current, prior contracts.PeriodRecord) error {
	if current.EntityID != prior.EntityID {
		return fmt.Errorf("%w: entity %s vs %s", contracts.ErrInvalidPeriodPairing, current.EntityID, prior.EntityID)
	}
	if current.Period.Cadence != prior.Period.Cadence {
		return fmt.Errorf("%w: cadence %s vs %s", contracts.ErrInvalidPeriodPairing, current.Period.Cadence, prior.Period.Cadence)
	}
	if !current.Period.Follows(prior.Period) {
		return fmt.Errorf("%w: %s does not immediately follow %s", contracts.ErrInvalidPeriodPairing, current.Period.Key(), prior.Period.Key())
	}
	return nil
}

// PairLatest picks the newest record and, only if it is exactly one cadence step
// older, its predecessor. Among the given cadences the one whose newest period
// ends last wins; on equal end dates the earlier cadence in the list wins. With
// no cadences given, quarterly is listed before annual.
// Records for one period fetched more than once resolve to the latest report date.
func PairLatest(records []contracts.PeriodRecord, cadences ...contracts.Cadence) (latest, prior *contracts.PeriodRecord) {
	if len(cadences) == 0 {
		cadences = []contracts.Cadence{contracts.CadenceQuarterly, contracts.CadenceAnnual}
	}

	for _, cadence := range cadences {
		l, p := pairCadence(records, cadence)
		if l == nil {
			continue
		}
		// 분기 데이터가 연간보다 오래되면 연간을 사용
		if latest == nil || l.Period.End().After(latest.Period.End()) {
			latest, prior = l, p
		}
	}

	return latest, prior
}

func pairCadence(records []contracts.PeriodRecord, cadence contracts.Cadence) (latest, prior *contracts.PeriodRecord) {
	byPeriod := make(map[string]contracts.PeriodRecord)
	for _, r := range records {
		if r.Period.Cadence != cadence {
			continue
		}
		key := r.Period.Key()
		if existing, ok := byPeriod[key]; ok && r.ReportDate.Before(existing.ReportDate) {
			continue
		}
		byPeriod[key] = r
	}
	if len(byPeriod) == 0 {
		return nil, nil
	}

	ordered := make([]contracts.PeriodRecord, 0, len(byPeriod))
	for _, r := range byPeriod {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Period.Before(ordered[j].Period)
	})

	last := ordered[len(ordered)-1]
	latest = &last
	if len(ordered) > 1 {
		prev := ordered[len(ordered)-2]
		if last.Period.Follows(prev.Period) {
			prior = &prev
		}
	}
	return latest, prior
}
