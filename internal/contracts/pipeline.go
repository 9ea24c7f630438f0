package contracts

import "time"

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5
//   Normalize  Universe  Signals  Screener  Scorer  Ranker

// Stage represents a pipeline stage
type Stage string

const (
	// StageNormalize S0: statement normalization
	// 위치: internal/s0_data/
	StageNormalize Stage = "S0_NORMALIZE"

	// StageUniverse S1: tracked-universe maintenance by market-cap band
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageSignals S2: ratios, growth rates, quality flags, timing inputs
	// 위치: internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageScreener S3: hard-pass filters
	// 위치: internal/selection/screener.go
	StageScreener Stage = "S3_SCREENER"

	// StageScorer S4: composite 0-100 score
	// 위치: internal/selection/scorer.go
	StageScorer Stage = "S4_SCORER"

	// StageRanker S5: ordering, truncation, batch statistics
	// 위치: internal/selection/ranker.go
	StageRanker Stage = "S5_RANKER"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageNormalize:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageSignals:
		return "S2"
	case StageScreener:
		return "S3"
	case StageScorer:
		return "S4"
	case StageRanker:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human-readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageNormalize:
		return "statement normalization"
	case StageUniverse:
		return "universe maintenance"
	case StageSignals:
		return "metric derivation"
	case StageScreener:
		return "hard-pass filters"
	case StageScorer:
		return "composite scoring"
	case StageRanker:
		return "ranking and statistics"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageNormalize,
		StageUniverse,
		StageSignals,
		StageScreener,
		StageScorer,
		StageRanker,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ScreeningRun is the audit record of one end-to-end screening batch
type ScreeningRun struct {
	RunID         string                   `json:"run_id"`
	StartedAt     time.Time                `json:"started_at"`
	PolicyHash    string                   `json:"policy_hash"`
	Normalization *NormalizationSnapshot   `json:"normalization"`
	Ranked        []RankedCandidate        `json:"ranked"`
	Stats         ScreeningStats           `json:"stats"`
	Skipped       map[string]string        `json:"skipped,omitempty"` // entity id -> reason
	Results       map[Stage]PipelineResult `json:"results,omitempty"`
}
