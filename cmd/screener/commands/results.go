package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/multibagger/internal/brain"
	"github.com/wonny/multibagger/internal/selection"
)

var (
	resultsRunID string
	resultsLimit int
	resultsCache bool
)

// resultsCmd shows a persisted ranking
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the ranked results of a stored run",
	Long: `저장된 스크리닝 결과를 조회합니다.

Example:
  go run ./cmd/screener results
  go run ./cmd/screener results --run run_20260105_153000 --limit 10
  go run ./cmd/screener results --cache`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsRunID, "run", "", "run id (default: latest)")
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 0, "rows to show (default: $SCREEN_LIMIT)")
	resultsCmd.Flags().BoolVar(&resultsCache, "cache", false, "read the latest run from Redis instead of PostgreSQL")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := loadEnv()
	if err != nil {
		return err
	}

	limit := env.cfg.Screening.DefaultLimit
	if cmd.Flags().Changed("limit") {
		limit = resultsLimit
	}

	if resultsCache {
		if !env.cfg.Redis.Enabled {
			return fmt.Errorf("REDIS_ENABLED is false")
		}
		client, cache, err := env.openCache(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		run, err := brain.NewRedisPublisher(cache, env.cfg.Redis.ResultTTL).Latest(ctx)
		if err != nil {
			return err
		}
		if run == nil {
			PrintWarning("No published run in cache")
			return nil
		}

		PrintHeader("Latest Published Run",
			fmt.Sprintf("Run ID    : %s", run.RunID),
			fmt.Sprintf("Started   : %s", run.StartedAt.Format("2006-01-02 15:04:05")),
			fmt.Sprintf("Policy    : %s", shortHash(run.PolicyHash)),
		)
		fmt.Printf("  %-4s %-12s %6s %8s %6s %7s %10s\n", "#", "Entity", "Score", "FCF/P", "B/M", "ROA", "Cap")
		for i, rc := range run.Ranked {
			if limit > 0 && i >= limit {
				break
			}
			fmt.Printf("  %-4d %-12s %6.2f %8s %6s %7s %10s\n",
				rc.Rank, rc.Entity.ID, rc.Score,
				formatPercent(rc.Metrics.FCFPrice),
				formatMetric(rc.Metrics.BookToMarket, 2),
				formatPercent(rc.Metrics.ROA),
				formatCap(rc.Metrics.MarketCap),
			)
		}
		PrintSeparator()
		return nil
	}

	if err := env.cfg.RequireDatabase(); err != nil {
		return err
	}
	db, err := env.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := selection.NewRepository(db.Pool)

	runID := resultsRunID
	if runID == "" {
		runID, err = repo.LatestRunID(ctx)
		if err != nil {
			return err
		}
	}

	results, err := repo.GetResults(ctx, runID, limit)
	if err != nil {
		return err
	}

	PrintHeader("Stored Run", fmt.Sprintf("Run ID    : %s", runID))
	fmt.Printf("  %-4s %-12s %6s %8s %6s %7s %10s\n", "#", "Entity", "Score", "FCF/P", "B/M", "ROA", "Cap")
	for _, r := range results {
		fmt.Printf("  %-4d %-12s %6.2f %8s %6s %7s %10s\n",
			r.Rank, r.EntityID, r.Score,
			formatPercent(r.FCFPrice),
			formatMetric(r.BookToMarket, 2),
			formatPercent(r.ROA),
			formatCap(r.MarketCap),
		)
	}
	PrintSeparator()
	return nil
}
