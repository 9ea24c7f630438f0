package brain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/s0_data"
	"github.com/wonny/multibagger/internal/s0_data/quality"
	"github.com/wonny/multibagger/internal/s2_signals"
	"github.com/wonny/multibagger/internal/selection"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/logger"
)

// Skip reasons recorded per entity
const (
	SkipUntracked     = "untracked"
	SkipUnknownEntity = "unknown entity"
	SkipNoStatements  = "no usable statements"
)

// Orchestrator coordinates one screening run
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Stage components
	normalizer *s0_data.Normalizer
	gate       *quality.Gate
	deriver    *s2_signals.Deriver
	screener   *selection.Screener
	ranker     *selection.Ranker

	// Downstream collaborators (optional)
	runStore  contracts.RunStore
	publisher contracts.ResultPublisher

	workers int
	logger  *logger.Logger
}

// Batch is the already-resident input of one run
type Batch struct {
	Statements []contracts.RawStatement
	// Entities with membership status. Nil screens every entity found in Statements.
	Entities []contracts.Entity
	// Timing is optional; nil scores timing as 0 for everyone
	Timing contracts.TimingSource
}

// RunOptions holds the per-run settings
type RunOptions struct {
	RunID      string
	Policy     strategyconfig.ScreeningPolicy
	PolicyHash string
	Limit      int                 // 0 = no truncation
	Cadences   []contracts.Cadence // preferred cadences, quarterly then annual when empty
	StrictGate bool                // abort when the quality gate fails; otherwise violations are recorded and the run continues
	DryRun     bool                // skip persistence and publishing
}

// RunResult holds the results of a complete run
type RunResult struct {
	Run             *contracts.ScreeningRun
	Quality         quality.Result
	Candidates      []contracts.Candidate // every screened entity, ordered by id
	CompletedStages []string
	Success         bool
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	normalizer *s0_data.Normalizer,
	gate *quality.Gate,
	deriver *s2_signals.Deriver,
	screener *selection.Screener,
	ranker *selection.Ranker,
	runStore contracts.RunStore,
	publisher contracts.ResultPublisher,
	workers int,
	logger *logger.Logger,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		normalizer: normalizer,
		gate:       gate,
		deriver:    deriver,
		screener:   screener,
		ranker:     ranker,
		runStore:   runStore,
		publisher:  publisher,
		workers:    workers,
		logger:     logger,
	}
}

// Run executes S0 → S1 → S2 → S3 → S4 → S5 over one batch
func (o *Orchestrator) Run(ctx context.Context, batch Batch, opts RunOptions) (*RunResult, error) {
	startTime := time.Now()

	result := &RunResult{
		Run: &contracts.ScreeningRun{
			RunID:      opts.RunID,
			StartedAt:  startTime,
			PolicyHash: opts.PolicyHash,
			Skipped:    make(map[string]string),
			Results:    make(map[contracts.Stage]contracts.PipelineResult),
		},
		CompletedStages: make([]string, 0),
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      opts.RunID,
		"statements":  len(batch.Statements),
		"entities":    len(batch.Entities),
		"policy_hash": opts.PolicyHash,
		"limit":       opts.Limit,
		"dry_run":     opts.DryRun,
	}).Info("Starting screening run")

	// S0: Normalization + quality gate
	records, err := o.runS0(batch, opts, result)
	if err != nil {
		return result, fmt.Errorf("S0 failed: %w", err)
	}

	// S1: Tracked universe
	grouped := o.runS1(batch, records, result)

	// S2: Derivation (parallel per entity)
	candidates, err := o.runS2(ctx, batch, grouped, opts, result)
	if err != nil {
		return result, fmt.Errorf("S2 failed: %w", err)
	}

	// S3: Hard filters
	o.stage(result, contracts.StageScreener, len(candidates), func() int {
		return o.screener.Screen(candidates, opts.Policy)
	})

	// S4: Scoring
	scorer := selection.NewScorer(opts.Policy, o.logger)
	o.stage(result, contracts.StageScorer, len(candidates), func() int {
		scorer.ScoreAll(candidates)
		return len(candidates)
	})

	// S5: Ranking
	o.stage(result, contracts.StageRanker, len(candidates), func() int {
		result.Run.Ranked, result.Run.Stats = o.ranker.Rank(candidates, opts.Limit)
		return len(result.Run.Ranked)
	})
	result.Candidates = candidates

	if !opts.DryRun {
		if err := o.deliver(ctx, result.Run); err != nil {
			return result, err
		}
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"run_id":      opts.RunID,
		"duration":    result.Duration.Seconds(),
		"stages":      len(result.CompletedStages),
		"screened":    len(candidates),
		"passing_all": result.Run.Stats.PassingAll,
		"ranked":      len(result.Run.Ranked),
		"skipped":     len(result.Run.Skipped),
	}).Info("Screening run completed successfully")

	return result, nil
}

// runS0 normalizes raw statements and applies the quality gate
func (o *Orchestrator) runS0(batch Batch, opts RunOptions, result *RunResult) ([]contracts.PeriodRecord, error) {
	start := time.Now()

	records, snapshot := o.normalizer.NormalizeBatch(batch.Statements)
	result.Run.Normalization = snapshot
	result.Quality = o.gate.Check(snapshot)

	stageResult := contracts.PipelineResult{
		Stage:       contracts.StageNormalize,
		Success:     true,
		InputCount:  snapshot.TotalRaw,
		OutputCount: snapshot.Accepted,
		Duration:    time.Since(start).Milliseconds(),
		Metadata: map[string]interface{}{
			"rejected":    len(snapshot.Rejected),
			"gate_passed": result.Quality.Passed,
			"violations":  result.Quality.Violations,
		},
	}

	if !result.Quality.Passed {
		o.logger.WithFields(map[string]interface{}{
			"violations":  result.Quality.Violations,
			"strict_gate": opts.StrictGate,
		}).Warn("Quality gate not passed")

		if opts.StrictGate {
			stageResult.Success = false
			stageResult.Error = "quality gate not passed"
			result.Run.Results[contracts.StageNormalize] = stageResult
			return nil, fmt.Errorf("quality gate not passed: %v", result.Quality.Violations)
		}

		// 경고만 기록하고 계속 진행 (entity 단위 결측은 S3에서 걸러짐)
		stageResult.Error = "quality gate not passed (advisory)"
	}

	result.Run.Results[contracts.StageNormalize] = stageResult
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageNormalize))

	o.logger.WithFields(map[string]interface{}{
		"total_raw": snapshot.TotalRaw,
		"accepted":  snapshot.Accepted,
		"rejected":  len(snapshot.Rejected),
	}).Info("S0 completed")

	return records, nil
}

// runS1 groups records by tracked entity. Records of untracked or unknown
// entities are recorded as skipped.
func (o *Orchestrator) runS1(batch Batch, records []contracts.PeriodRecord, result *RunResult) map[string]*entityRecords {
	start := time.Now()

	grouped := make(map[string]*entityRecords)
	known := make(map[string]contracts.Entity, len(batch.Entities))
	for _, e := range batch.Entities {
		known[e.ID] = e
		if e.IsTracked() {
			grouped[e.ID] = &entityRecords{entity: e}
		}
	}

	for _, r := range records {
		group, ok := grouped[r.EntityID]
		if !ok {
			if batch.Entities != nil {
				if _, exists := known[r.EntityID]; exists {
					result.Run.Skipped[r.EntityID] = SkipUntracked
				} else {
					result.Run.Skipped[r.EntityID] = SkipUnknownEntity
				}
				continue
			}
			group = &entityRecords{entity: contracts.Entity{ID: r.EntityID, Status: contracts.StatusTracked}}
			grouped[r.EntityID] = group
		}
		group.records = append(group.records, r)
	}

	result.Run.Results[contracts.StageUniverse] = contracts.PipelineResult{
		Stage:       contracts.StageUniverse,
		Success:     true,
		InputCount:  len(records),
		OutputCount: len(grouped),
		Duration:    time.Since(start).Milliseconds(),
	}
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageUniverse))

	o.logger.WithFields(map[string]interface{}{
		"tracked": len(grouped),
		"skipped": len(result.Run.Skipped),
	}).Info("S1 completed")

	return grouped
}

type entityRecords struct {
	entity  contracts.Entity
	records []contracts.PeriodRecord
}

// runS2 derives metrics and fetches timing inputs for each entity in parallel.
// Each worker writes only its own slot; candidates come back ordered by id.
func (o *Orchestrator) runS2(ctx context.Context, batch Batch, grouped map[string]*entityRecords, opts RunOptions, result *RunResult) ([]contracts.Candidate, error) {
	start := time.Now()

	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	slots := make([]*contracts.Candidate, len(ids))
	skips := make([]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, id := range ids {
		i, group := i, grouped[id]
		g.Go(func() error {
			latest, metrics, err := o.deriver.DeriveLatest(group.records, opts.Cadences...)
			if err != nil {
				skips[i] = err.Error()
				return nil
			}
			if latest == nil {
				skips[i] = SkipNoStatements
				return nil
			}

			candidate := &contracts.Candidate{
				Entity:  group.entity,
				Record:  *latest,
				Metrics: *metrics,
			}

			if batch.Timing != nil {
				timing, err := batch.Timing.Timing(gctx, group.entity.ID)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					o.logger.WithFields(map[string]interface{}{
						"entity_id": group.entity.ID,
						"error":     err.Error(),
					}).Warn("Timing inputs unavailable")
				} else {
					candidate.Timing = timing
				}
			}

			slots[i] = candidate
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]contracts.Candidate, 0, len(ids))
	for i, id := range ids {
		if slots[i] == nil {
			result.Run.Skipped[id] = skips[i]
			continue
		}
		candidates = append(candidates, *slots[i])
	}

	result.Run.Results[contracts.StageSignals] = contracts.PipelineResult{
		Stage:       contracts.StageSignals,
		Success:     true,
		InputCount:  len(ids),
		OutputCount: len(candidates),
		Duration:    time.Since(start).Milliseconds(),
		Metadata:    map[string]interface{}{"workers": o.workers},
	}
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageSignals))

	o.logger.WithFields(map[string]interface{}{
		"derived": len(candidates),
		"workers": o.workers,
	}).Info("S2 completed")

	return candidates, nil
}

// stage runs an in-memory stage and records its result
func (o *Orchestrator) stage(result *RunResult, stage contracts.Stage, input int, fn func() int) {
	start := time.Now()
	output := fn()

	result.Run.Results[stage] = contracts.PipelineResult{
		Stage:       stage,
		Success:     true,
		InputCount:  input,
		OutputCount: output,
		Duration:    time.Since(start).Milliseconds(),
	}
	result.CompletedStages = append(result.CompletedStages, stageLabel(stage))
}

func stageLabel(s contracts.Stage) string {
	return s.ShortName() + ":" + s.Description()
}

// deliver persists and publishes the run. Both collaborators are optional.
func (o *Orchestrator) deliver(ctx context.Context, run *contracts.ScreeningRun) error {
	if o.runStore != nil {
		if err := o.runStore.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, run); err != nil {
			return fmt.Errorf("publish run: %w", err)
		}
	}

	return nil
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}
