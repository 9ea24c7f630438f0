package strategyconfig

import (
	"fmt"

	"github.com/wonny/multibagger/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, contracts.ErrConfiguration) match
func (e ValidationError) Unwrap() error {
	return contracts.ErrConfiguration
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Screening ===
	if err := validateScreening(cfg.Screening); err != nil {
		return err
	}

	// === Scoring ===
	if err := validateScoring(cfg.Screening, resolveScoring(cfg.Screening, cfg.Scoring)); err != nil {
		return err
	}

	// === Ranking ===
	if cfg.Ranking.Limit < 0 {
		return ValidationError{"ranking.limit", "must be >= 0"}
	}

	// === Universe ===
	return validateUniverse(cfg.Universe)
}

func validateScreening(s Screening) error {
	if s.MinBookToMarket < 0 {
		return ValidationError{"screening.min_book_to_market", "must be >= 0"}
	}
	if s.MinMarketCap < 0 {
		return ValidationError{"screening.min_market_cap", "must be >= 0"}
	}
	if s.MaxMarketCap < 0 {
		return ValidationError{"screening.max_market_cap", "must be >= 0"}
	}
	if s.MinMarketCap > s.MaxMarketCap {
		return ValidationError{"screening", "min_market_cap must be <= max_market_cap"}
	}
	return nil
}

func validateScoring(s Screening, sc ScoringPolicy) error {
	if sc.Model != ModelMultibagger && sc.Model != ModelFactor {
		return ValidationError{"scoring.model", fmt.Sprintf("must be %q or %q, got %q", ModelMultibagger, ModelFactor, sc.Model)}
	}
	if sc.FCFPriceCeiling <= s.MinFCFPrice {
		return ValidationError{"scoring.fcf_price_ceiling", fmt.Sprintf("must be > min_fcf_price=%.4f, got %.4f", s.MinFCFPrice, sc.FCFPriceCeiling)}
	}
	if sc.BookToMarketCeiling <= s.MinBookToMarket {
		return ValidationError{"scoring.book_to_market_ceiling", fmt.Sprintf("must be > min_book_to_market=%.4f, got %.4f", s.MinBookToMarket, sc.BookToMarketCeiling)}
	}
	if sc.CashProfitabilityCeiling <= s.MinCashProfitability {
		return ValidationError{"scoring.cash_profitability_ceiling", fmt.Sprintf("must be > min_cash_profitability=%.4f, got %.4f", s.MinCashProfitability, sc.CashProfitabilityCeiling)}
	}
	if sc.ROACeiling <= 0 {
		return ValidationError{"scoring.roa_ceiling", "must be > 0"}
	}
	if sc.EBITDAMarginCeiling <= 0 {
		return ValidationError{"scoring.ebitda_margin_ceiling", "must be > 0"}
	}

	t := sc.Timing
	if t.NearLowFull < 0 || t.NearLowFull > t.NearLowHalf {
		return ValidationError{"scoring.timing", "must satisfy 0 <= near_low_full <= near_low_half"}
	}
	if t.MomentumMild > 0 || t.MomentumDeep > t.MomentumMild {
		return ValidationError{"scoring.timing", "must satisfy momentum_deep <= momentum_mild <= 0"}
	}
	return nil
}

func validateUniverse(u Universe) error {
	if u.MinMarketCap < 0 {
		return ValidationError{"universe.min_market_cap", "must be >= 0"}
	}
	if u.MaxMarketCap < 0 {
		return ValidationError{"universe.max_market_cap", "must be >= 0"}
	}
	if u.MinMarketCap > u.MaxMarketCap {
		return ValidationError{"universe", "min_market_cap must be <= max_market_cap"}
	}
	if u.MaxAdditions < 0 {
		return ValidationError{"universe.max_additions", "must be >= 0"}
	}

	seen := make(map[string]struct{}, len(u.Anchors))
	for i, id := range u.Anchors {
		if id == "" {
			return ValidationError{fmt.Sprintf("universe.anchors[%d]", i), "must not be empty"}
		}
		if _, dup := seen[id]; dup {
			return ValidationError{fmt.Sprintf("universe.anchors[%d]", i), fmt.Sprintf("duplicate anchor %q", id)}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 성장률 데이터가 희소하면 재투자 필터가 대부분을 탈락시킴
	if cfg.Screening.RequireReinvestmentQuality {
		warnings = append(warnings, Warning{
			Code:    "REINVESTMENT_REQUIRED",
			Message: "require_reinvestment_quality: entities without an adjacent prior period always fail",
		})
	}

	// screening band와 universe band가 다르면 추적 종목 일부가 항상 탈락
	if cfg.Screening.MinMarketCap != cfg.Universe.MinMarketCap || cfg.Screening.MaxMarketCap != cfg.Universe.MaxMarketCap {
		warnings = append(warnings, Warning{
			Code:    "BAND_MISMATCH",
			Message: "screening market-cap bounds differ from the universe band",
		})
	}

	if !cfg.Screening.RequireProfitability && !cfg.Screening.ExcludeNegativeEquity {
		warnings = append(warnings, Warning{
			Code:    "NO_QUALITY_GATE",
			Message: "neither profitability nor negative-equity filter is enabled",
		})
	}

	// 상한이 있으면 남은 후보는 다음 실행에서 추가됨 → discover가 멱등이 아님
	if cfg.Universe.MaxAdditions > 0 {
		warnings = append(warnings, Warning{
			Code:    "DISCOVERY_NOT_IDEMPOTENT",
			Message: fmt.Sprintf("universe.max_additions=%d: deferred candidates are added by later runs, so repeated discovery is not idempotent until the backlog drains", cfg.Universe.MaxAdditions),
		})
	}

	// factor 모델은 현금수익성 필터 없이도 수익성 점수를 계산함
	if cfg.Scoring.Model == ModelFactor && !cfg.Screening.RequireCashProfitability {
		warnings = append(warnings, Warning{
			Code:    "FACTOR_WITHOUT_PROFITABILITY_SCREEN",
			Message: "scoring.model=factor without require_cash_profitability scores unscreened cash profitability",
		})
	}

	if cfg.Ranking.Limit == 0 {
		warnings = append(warnings, Warning{
			Code:    "UNBOUNDED_RANKING",
			Message: "ranking.limit=0 returns every passing candidate",
		})
	}

	return warnings
}
