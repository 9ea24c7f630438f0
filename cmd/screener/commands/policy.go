package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/config"
)

// policyCmd groups strategy policy operations
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Strategy policy utilities",
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a strategy YAML and print its hash",
	Long: `전략 YAML을 검증하고 정책 해시를 출력합니다.

Example:
  go run ./cmd/screener policy validate
  go run ./cmd/screener policy validate config/strategy/multibagger.yaml
  go run ./cmd/screener policy validate config/strategy/avantis.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPolicyValidate,
}

func init() {
	policyCmd.AddCommand(policyValidateCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	path := strategyPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("❌ Failed to load config: %w", err)
		}
		path = cfg.Screening.StrategyPath
	}

	cfg, raw, err := strategyconfig.Load(path)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	snapshot, err := strategyconfig.NewPolicySnapshot(cfg, raw)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	PrintHeader("Strategy Policy",
		fmt.Sprintf("Path      : %s", path),
		fmt.Sprintf("Strategy  : %s v%s", cfg.Meta.StrategyID, cfg.Meta.Version),
		fmt.Sprintf("Hash      : %s", snapshot.ConfigHash),
	)
	fmt.Printf("  FCF/Price      >= %s\n", formatPercent(contracts.Defined(policy.MinFCFPrice)))
	fmt.Printf("  Book/Market    >= %.2f\n", policy.MinBookToMarket)
	fmt.Printf("  Market cap        %s ~ %s\n", formatCap(contracts.Defined(policy.MinMarketCap)), formatCap(contracts.Defined(policy.MaxMarketCap)))
	fmt.Printf("  Profitability     %v\n", policy.RequireProfitability)
	fmt.Printf("  Excl. neg. equity %v\n", policy.ExcludeNegativeEquity)
	fmt.Printf("  Reinvestment      %v\n", policy.RequireReinvestmentQuality)
	if policy.RequireCashProfitability {
		fmt.Printf("  Cash/Equity    >= %s\n", formatPercent(contracts.Defined(policy.MinCashProfitability)))
	}
	fmt.Printf("  Scoring model     %s\n", policy.Scoring.Model)
	fmt.Printf("  Ranking limit     %d\n", cfg.Ranking.Limit)

	warnings := strategyconfig.Warn(cfg)
	for _, w := range warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	PrintSeparator()
	PrintSuccess(fmt.Sprintf("Policy valid (%d warnings)", len(warnings)))
	return nil
}
