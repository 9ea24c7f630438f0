package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/multibagger/internal/brain"
	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/s0_data"
	"github.com/wonny/multibagger/internal/s0_data/quality"
	"github.com/wonny/multibagger/internal/s1_universe"
	"github.com/wonny/multibagger/internal/s2_signals"
	"github.com/wonny/multibagger/internal/selection"
	"github.com/wonny/multibagger/pkg/database"
)

var (
	screenInput    string
	screenLimit    int
	screenCadence  string
	screenLookback int
	screenSave     bool
	screenDryRun   bool
	screenStrictGate bool
)

// screenCmd runs S0-S5 over one batch
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the screening pipeline (S0-S5)",
	Long: `재무제표 배치를 정규화하고 필터/스코어/랭킹을 실행합니다.

Pipeline Stages:
  S0: Statement normalization + quality gate
  S1: Tracked universe selection
  S2: Ratios, growth rates, quality flags, timing
  S3: Hard-pass filters
  S4: Composite score (0-100)
  S5: Ranking + batch statistics

Input:
  --input <file>   batch JSON (statements, entities, timing, prices)
  (없으면)          PostgreSQL (DATABASE_URL)

Example:
  go run ./cmd/screener screen --input batch.json
  go run ./cmd/screener screen --input batch.json --limit 20 --dry-run
  go run ./cmd/screener screen --save`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringVarP(&screenInput, "input", "i", "", "batch JSON file (default: database)")
	screenCmd.Flags().IntVar(&screenLimit, "limit", 0, "ranked list size, 0 = no truncation (default: strategy ranking.limit)")
	screenCmd.Flags().StringVar(&screenCadence, "cadence", "", "cadence for statements without one (quarterly|annual)")
	screenCmd.Flags().IntVar(&screenLookback, "lookback-days", 400, "price history used for timing when reading from the database")
	screenCmd.Flags().BoolVar(&screenSave, "save", false, "persist the run to PostgreSQL")
	screenCmd.Flags().BoolVar(&screenDryRun, "dry-run", false, "skip persistence and publishing")
	screenCmd.Flags().BoolVar(&screenStrictGate, "strict-gate", false, "abort the run when the quality gate fails (default: record violations and continue)")
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := loadEnv()
	if err != nil {
		return err
	}

	policy, err := env.strategy.Policy()
	if err != nil {
		return fmt.Errorf("build policy: %w", err)
	}

	var defaultCadence contracts.Cadence
	if screenCadence != "" {
		c, ok := contracts.ParseCadence(screenCadence)
		if !ok {
			return fmt.Errorf("unknown cadence %q", screenCadence)
		}
		defaultCadence = c
	}

	limit := env.strategy.Ranking.Limit
	if cmd.Flags().Changed("limit") {
		limit = screenLimit
	}

	// Database is needed to read the batch or to save the run
	var db *database.DB
	if screenInput == "" || (screenSave && !screenDryRun) {
		if err := env.cfg.RequireDatabase(); err != nil {
			return err
		}
		db, err = env.openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	batch, err := loadScreenBatch(ctx, env, db)
	if err != nil {
		return err
	}

	var runStore contracts.RunStore
	if db != nil && screenSave {
		runStore = selection.NewRepository(db.Pool)
	}

	var publisher contracts.ResultPublisher
	if env.cfg.Redis.Enabled && !screenDryRun {
		client, cache, err := env.openCache(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = brain.NewRedisPublisher(cache, env.cfg.Redis.ResultTTL)
	}

	orchestrator := brain.NewOrchestrator(
		s0_data.NewNormalizer(s0_data.NormalizerConfig{DefaultCadence: defaultCadence}),
		quality.NewGate(quality.DefaultConfig()),
		s2_signals.NewDeriver(env.log),
		selection.NewScreener(env.log),
		selection.NewRanker(env.log),
		runStore,
		publisher,
		env.cfg.Screening.Workers,
		env.log,
	)

	opts := brain.RunOptions{
		RunID:      brain.GenerateRunID(),
		Policy:     policy,
		PolicyHash: env.snapshot.ConfigHash,
		Limit:      limit,
		StrictGate: screenStrictGate,
		DryRun:     screenDryRun,
	}

	PrintHeader("Multibagger Screening",
		fmt.Sprintf("Run ID    : %s", opts.RunID),
		fmt.Sprintf("Strategy  : %s (%s)", env.strategy.Meta.StrategyID, shortHash(opts.PolicyHash)),
		fmt.Sprintf("Source    : %s", sourceLabel()),
		fmt.Sprintf("Statements: %d", len(batch.Statements)),
		fmt.Sprintf("Workers   : %d", env.cfg.Screening.Workers),
	)

	result, err := orchestrator.Run(ctx, batch, opts)
	if result != nil {
		printRunResult(result)
	}
	if err != nil {
		return fmt.Errorf("screening run failed: %w", err)
	}

	return nil
}

// loadScreenBatch reads statements, entities and a timing source from the file or the database
func loadScreenBatch(ctx context.Context, env *runtimeEnv, db *database.DB) (brain.Batch, error) {
	calc := s2_signals.NewTimingCalculator(env.log)

	if screenInput != "" {
		file, err := s0_data.LoadBatchFile(screenInput)
		if err != nil {
			return brain.Batch{}, err
		}

		statements, err := file.Statements(ctx)
		if err != nil {
			return brain.Batch{}, err
		}
		entities, err := file.Entities(ctx)
		if err != nil {
			return brain.Batch{}, err
		}
		if len(entities) == 0 {
			entities = nil
		}

		var timing contracts.TimingSource = file
		if file.HasPrices() {
			timing = s2_signals.NewBarTimingSource(file, calc)
		}

		return brain.Batch{Statements: statements, Entities: entities, Timing: timing}, nil
	}

	statements, err := s0_data.NewRepository(db.Pool).Statements(ctx)
	if err != nil {
		return brain.Batch{}, fmt.Errorf("load statements: %w", err)
	}

	entities, err := s1_universe.NewRepository(db.Pool).Entities(ctx)
	if err != nil {
		return brain.Batch{}, fmt.Errorf("load entities: %w", err)
	}
	if len(entities) == 0 {
		entities = nil
	}

	prices := s0_data.NewPriceRepository(db.Pool, time.Duration(screenLookback)*24*time.Hour)

	return brain.Batch{
		Statements: statements,
		Entities:   entities,
		Timing:     s2_signals.NewBarTimingSource(prices, calc),
	}, nil
}

func sourceLabel() string {
	if screenInput != "" {
		return screenInput
	}
	return "database"
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// printRunResult prints a formatted run result
func printRunResult(result *brain.RunResult) {
	run := result.Run

	fmt.Println()
	fmt.Println("Stages:")
	for _, stage := range contracts.AllStages() {
		r, ok := run.Results[stage]
		if !ok {
			continue
		}
		mark := "✅"
		if !r.Success {
			mark = "❌"
		}
		fmt.Printf("  %s %-4s %-24s in=%-5d out=%-5d %dms", mark, stage.ShortName(), stage.Description(), r.InputCount, r.OutputCount, r.Duration)
		if r.Error != "" {
			fmt.Printf("  (%s)", r.Error)
		}
		fmt.Println()
	}

	if !result.Quality.Passed && len(result.Quality.Violations) > 0 {
		PrintWarning("Quality gate (advisory unless --strict-gate): " + strings.Join(result.Quality.Violations, "; "))
	}

	if len(run.Skipped) > 0 {
		fmt.Printf("\nSkipped: %d entities\n", len(run.Skipped))
	}

	stats := run.Stats
	fmt.Println()
	PrintSeparator()
	fmt.Printf("  Candidates : %d\n", stats.TotalCandidates)
	for _, name := range contracts.AllFilters {
		fmt.Printf("  %-22s: %d\n", name, stats.PassingByFilter[name])
	}
	fmt.Printf("  Passing all: %d\n", stats.PassingAll)
	fmt.Printf("  Mean FCF/P : %s   Mean B/M: %s   Mean ROA: %s   Mean Cash/E: %s   Mean Cap: %s\n",
		formatPercent(stats.MeanFCFPrice),
		formatMetric(stats.MeanBookToMarket, 2),
		formatPercent(stats.MeanROA),
		formatPercent(stats.MeanCashProfitability),
		formatCap(stats.MeanMarketCap),
	)
	PrintSeparator()

	if len(run.Ranked) > 0 {
		fmt.Printf("  %-4s %-12s %6s %8s %6s %7s %10s\n", "#", "Entity", "Score", "FCF/P", "B/M", "ROA", "Cap")
		for _, rc := range run.Ranked {
			fmt.Printf("  %-4d %-12s %6.2f %8s %6s %7s %10s\n",
				rc.Rank,
				rc.Entity.ID,
				rc.Score,
				formatPercent(rc.Metrics.FCFPrice),
				formatMetric(rc.Metrics.BookToMarket, 2),
				formatPercent(rc.Metrics.ROA),
				formatCap(rc.Metrics.MarketCap),
			)
		}
		PrintSeparator()
	}

	if result.Success {
		PrintSuccess(fmt.Sprintf("Run %s completed in %v (%d ranked)", run.RunID, result.Duration.Round(time.Millisecond), len(run.Ranked)))
	} else {
		PrintWarning(fmt.Sprintf("Run %s failed after %v", run.RunID, time.Since(run.StartedAt).Round(time.Millisecond)))
	}
}
