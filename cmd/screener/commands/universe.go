package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/multibagger/internal/brain"
	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/s0_data"
	"github.com/wonny/multibagger/internal/s1_universe"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/database"
)

var (
	universeInput     string
	universeWatchlist string
	universeSave      bool
)

// universeCmd groups S1 maintenance operations
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Tracked universe maintenance (S1)",
	Long: `시가총액 밴드 기준으로 추적 유니버스를 관리합니다.

Subcommands:
  review    밴드를 벗어난 추적 종목 제거 (anchor 제외)
  discover  워치리스트에서 밴드 안의 신규 종목 추가

Example:
  go run ./cmd/screener universe review --input batch.json
  go run ./cmd/screener universe review --save
  go run ./cmd/screener universe discover --watchlist watchlist.json --save`,
}

var universeReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Untrack entities whose market cap left the band",
	RunE:  runUniverseReview,
}

var universeDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Track watch-list entities whose market cap is inside the band",
	RunE:  runUniverseDiscover,
}

func init() {
	universeCmd.PersistentFlags().StringVarP(&universeInput, "input", "i", "", "batch JSON file with entities and valuations (default: database)")
	universeCmd.PersistentFlags().BoolVar(&universeSave, "save", false, "persist the new membership and report to PostgreSQL")
	universeDiscoverCmd.Flags().StringVar(&universeWatchlist, "watchlist", "", "batch JSON file whose watchlist is used (default: --input)")

	universeCmd.AddCommand(universeReviewCmd)
	universeCmd.AddCommand(universeDiscoverCmd)
	rootCmd.AddCommand(universeCmd)
}

// universeInputs is the resident state both operations work from
type universeInputs struct {
	entities   []contracts.Entity
	valuations map[string]contracts.Metric
	fromFile   bool
}

func runUniverseReview(cmd *cobra.Command, args []string) error {
	return runUniverse(cmd.Context(), "review", func(ctx context.Context, m *s1_universe.Maintainer, in universeInputs, band strategyconfig.UniverseBand) (s1_universe.Result, error) {
		return m.Review(in.entities, in.valuations, band), nil
	})
}

func runUniverseDiscover(cmd *cobra.Command, args []string) error {
	return runUniverse(cmd.Context(), "discover", func(ctx context.Context, m *s1_universe.Maintainer, in universeInputs, band strategyconfig.UniverseBand) (s1_universe.Result, error) {
		path := universeWatchlist
		if path == "" {
			path = universeInput
		}
		if path == "" {
			return s1_universe.Result{}, fmt.Errorf("discover needs a watch list: pass --watchlist or --input")
		}

		file, err := s0_data.LoadBatchFile(path)
		if err != nil {
			return s1_universe.Result{}, err
		}
		watchlist, err := file.Watchlist(ctx)
		if err != nil {
			return s1_universe.Result{}, err
		}

		return m.Discover(in.entities, watchlist, in.valuations, band), nil
	})
}

type universeOp func(ctx context.Context, m *s1_universe.Maintainer, in universeInputs, band strategyconfig.UniverseBand) (s1_universe.Result, error)

func runUniverse(ctx context.Context, operation string, op universeOp) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	band, err := env.strategy.Band()
	if err != nil {
		return fmt.Errorf("build universe band: %w", err)
	}

	var db *database.DB
	if universeInput == "" || universeSave {
		if err := env.cfg.RequireDatabase(); err != nil {
			return err
		}
		db, err = env.openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	in, err := loadUniverseInputs(ctx, db)
	if err != nil {
		return err
	}

	result, err := op(ctx, s1_universe.NewMaintainer(env.log), in, band)
	if err != nil {
		return err
	}

	printUniverseReport(&result.Report, band)

	if universeSave {
		repo := s1_universe.NewRepository(db.Pool)
		if in.fromFile {
			if err := repo.SaveValuations(ctx, in.valuations); err != nil {
				return fmt.Errorf("save valuations: %w", err)
			}
		}
		if err := repo.SaveEntities(ctx, result.Entities); err != nil {
			return fmt.Errorf("save entities: %w", err)
		}
		if err := repo.SaveReport(ctx, &result.Report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Saved %d entities", len(result.Entities)))
	}

	if env.cfg.Redis.Enabled {
		client, cache, err := env.openCache(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		publisher := brain.NewRedisPublisher(cache, env.cfg.Redis.ResultTTL)
		if err := publisher.PublishUniverseReport(ctx, &result.Report); err != nil {
			return fmt.Errorf("publish %s report: %w", operation, err)
		}
	}

	return nil
}

func loadUniverseInputs(ctx context.Context, db *database.DB) (universeInputs, error) {
	if universeInput != "" {
		file, err := s0_data.LoadBatchFile(universeInput)
		if err != nil {
			return universeInputs{}, err
		}
		entities, err := file.Entities(ctx)
		if err != nil {
			return universeInputs{}, err
		}
		valuations, err := file.Valuations(ctx)
		if err != nil {
			return universeInputs{}, err
		}
		return universeInputs{entities: entities, valuations: valuations, fromFile: true}, nil
	}

	repo := s1_universe.NewRepository(db.Pool)
	entities, err := repo.Entities(ctx)
	if err != nil {
		return universeInputs{}, fmt.Errorf("load entities: %w", err)
	}
	valuations, err := repo.Valuations(ctx)
	if err != nil {
		return universeInputs{}, fmt.Errorf("load valuations: %w", err)
	}
	return universeInputs{entities: entities, valuations: valuations}, nil
}

func printUniverseReport(report *contracts.UniverseReport, band strategyconfig.UniverseBand) {
	PrintHeader("Universe "+report.Operation,
		fmt.Sprintf("Band      : %s ~ %s", formatCap(contracts.Defined(band.MinMarketCap)), formatCap(contracts.Defined(band.MaxMarketCap))),
		fmt.Sprintf("Anchors   : %v", band.Anchors()),
	)

	for _, t := range report.Added {
		fmt.Printf("  + %-12s %10s  %s\n", t.EntityID, formatCap(t.MarketCap), t.Reason)
	}
	for _, t := range report.Removed {
		fmt.Printf("  - %-12s %10s  %s\n", t.EntityID, formatCap(t.MarketCap), t.Reason)
	}

	PrintSeparator()
	fmt.Printf("  Added: %d   Removed: %d   Unchanged: %d\n", len(report.Added), len(report.Removed), len(report.Unchanged))
}
