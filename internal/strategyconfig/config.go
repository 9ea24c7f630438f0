package strategyconfig

import "time"

// Scoring models
const (
	ModelMultibagger = "multibagger" // concentrated value: FCF yield led, timing aware
	ModelFactor      = "factor"      // diversified factor: value + cash profitability, no timing
)

// Config는 스크리닝 전략의 전체 설정 (YAML 1:1)
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Universe  Universe  `yaml:"universe" json:"universe"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Screening S3: hard-pass thresholds
type Screening struct {
	MinFCFPrice                float64 `yaml:"min_fcf_price" json:"min_fcf_price"`
	MinBookToMarket            float64 `yaml:"min_book_to_market" json:"min_book_to_market"`
	MinMarketCap               float64 `yaml:"min_market_cap" json:"min_market_cap"`
	MaxMarketCap               float64 `yaml:"max_market_cap" json:"max_market_cap"`
	RequireProfitability       bool    `yaml:"require_profitability" json:"require_profitability"`
	ExcludeNegativeEquity      bool    `yaml:"exclude_negative_equity" json:"exclude_negative_equity"`
	RequireReinvestmentQuality bool    `yaml:"require_reinvestment_quality" json:"require_reinvestment_quality"`
	RequireCashProfitability   bool    `yaml:"require_cash_profitability" json:"require_cash_profitability"`
	MinCashProfitability       float64 `yaml:"min_cash_profitability" json:"min_cash_profitability"`
}

// Scoring S4: model and band ceilings. A nil ratio ceiling defaults to twice a
// positive threshold, or threshold plus a fixed span otherwise.
type Scoring struct {
	Model                    string   `yaml:"model" json:"model"` // multibagger | factor
	FCFPriceCeiling          *float64 `yaml:"fcf_price_ceiling" json:"fcf_price_ceiling"`
	BookToMarketCeiling      *float64 `yaml:"book_to_market_ceiling" json:"book_to_market_ceiling"`
	CashProfitabilityCeiling *float64 `yaml:"cash_profitability_ceiling" json:"cash_profitability_ceiling"`
	ROACeiling               float64  `yaml:"roa_ceiling" json:"roa_ceiling"`
	EBITDAMarginCeiling      float64  `yaml:"ebitda_margin_ceiling" json:"ebitda_margin_ceiling"`
	FCFBonusMin              float64  `yaml:"fcf_bonus_min" json:"fcf_bonus_min"` // factor model: FCF/Price bonus threshold
	ROABonusMin              float64  `yaml:"roa_bonus_min" json:"roa_bonus_min"` // factor model: ROA bonus threshold
	Timing                   Timing   `yaml:"timing" json:"timing"`
}

// Timing entry-timing tiers
type Timing struct {
	NearLowFull  float64 `yaml:"near_low_full" json:"near_low_full"` // distance from low <= this → full proximity points
	NearLowHalf  float64 `yaml:"near_low_half" json:"near_low_half"` // distance from low <= this → half proximity points
	MomentumMild float64 `yaml:"momentum_mild" json:"momentum_mild"` // momentum in [mild, 0) → full momentum points
	MomentumDeep float64 `yaml:"momentum_deep" json:"momentum_deep"` // momentum in [deep, mild) → reduced momentum points
}

// Ranking S5
type Ranking struct {
	Limit int `yaml:"limit" json:"limit"` // 0 = no truncation
}

// Universe S1: market-cap band
type Universe struct {
	MinMarketCap float64  `yaml:"min_market_cap" json:"min_market_cap"`
	MaxMarketCap float64  `yaml:"max_market_cap" json:"max_market_cap"`
	Anchors      []string `yaml:"anchors" json:"anchors"`
	MaxAdditions int      `yaml:"max_additions" json:"max_additions"` // 0 = unlimited; > 0 defers the overflow to later runs
}

// Default returns the configuration used for every key the YAML omits
func Default() Config {
	return Config{
		Meta: Meta{
			StrategyID: "multibagger",
			Version:    "1",
		},
		Screening: Screening{
			MinFCFPrice:                0.05,
			MinBookToMarket:            0.40,
			MinMarketCap:               300_000_000,
			MaxMarketCap:               2_000_000_000,
			RequireProfitability:       true,
			ExcludeNegativeEquity:      true,
			RequireReinvestmentQuality: false,
			RequireCashProfitability:   false,
			MinCashProfitability:       0.10,
		},
		Scoring: Scoring{
			Model:               ModelMultibagger,
			ROACeiling:          0.15,
			EBITDAMarginCeiling: 0.20,
			FCFBonusMin:         0.05,
			ROABonusMin:         0.10,
			Timing: Timing{
				NearLowFull:  0.10,
				NearLowHalf:  0.20,
				MomentumMild: -0.10,
				MomentumDeep: -0.20,
			},
		},
		Ranking: Ranking{
			Limit: 50,
		},
		Universe: Universe{
			MinMarketCap: 300_000_000,
			MaxMarketCap: 2_000_000_000,
			MaxAdditions: 0,
		},
	}
}

// PolicySnapshot 정책 스냅샷 (재현성용)
type PolicySnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}
