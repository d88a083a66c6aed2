package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/engine"
	"github.com/JUDRAGONII/AI----sub000/internal/risk"
)

// ═══════════════════════════════════════════════════════════
// One-shot analytics commands (JSON on stdout)
// ═══════════════════════════════════════════════════════════

var indicatorsCmd = &cobra.Command{
	Use:   "indicators [security_id]",
	Short: "기술적 지표 패널 계산",
	Long: `한 종목의 기술적 지표 패널을 계산합니다.

Example:
  go run ./cmd/quant indicators 2330
  go run ./cmd/quant indicators 2330 --lookback 180 --only sma_20,rsi_14`,
	Args: cobra.ExactArgs(1),
	RunE: runIndicators,
}

var factorsCmd = &cobra.Command{
	Use:   "factors [security_id]",
	Short: "6대 팩터 점수 계산",
	Long: `한 종목의 팩터 점수(Value, Growth, Quality, Momentum, Risk, Size)를 계산합니다.

Example:
  go run ./cmd/quant factors 2330
  go run ./cmd/quant factors 2330 --mode cross_sectional --peers 2454,2317`,
	Args: cobra.ExactArgs(1),
	RunE: runFactors,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [security_id]",
	Short: "포지션/추세 진단",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "포트폴리오 리스크 분석",
	Long: `포트폴리오 요약, Monte Carlo, Efficient Frontier, CAPM을 계산합니다.

Example:
  go run ./cmd/quant risk --weights 2330=0.6,2454=0.4
  go run ./cmd/quant risk --weights 2330=0.6,2454=0.4 --benchmark 0050 --mc --seed 42 --frontier`,
	RunE: runRisk,
}

var (
	asOfFlag      string
	lookbackDays  int
	onlyFlag      string
	universeFlag  string
	benchmarkFlag string
	modeFlag      string
	peersFlag     string

	weightsFlag    string
	windowDays     int
	mcFlag         bool
	mcSimulations  int
	mcHorizon      int
	mcSeed         int64
	frontierFlag   bool
	frontierPoints int
	riskFreeFlag   float64
)

func init() {
	rootCmd.AddCommand(indicatorsCmd, factorsCmd, diagnoseCmd, riskCmd)

	for _, c := range []*cobra.Command{indicatorsCmd, factorsCmd, diagnoseCmd, riskCmd} {
		c.Flags().StringVar(&asOfFlag, "as-of", "", "analysis date YYYY-MM-DD (default today)")
	}

	indicatorsCmd.Flags().IntVar(&lookbackDays, "lookback", 365, "calendar days of history")
	indicatorsCmd.Flags().StringVar(&onlyFlag, "only", "", "comma separated indicator names (default all)")

	factorsCmd.Flags().StringVar(&universeFlag, "universe", "", "universe for the factor bounds (default from config)")
	factorsCmd.Flags().StringVar(&benchmarkFlag, "benchmark", "", "benchmark security id (default from config)")
	factorsCmd.Flags().StringVar(&modeFlag, "mode", string(contracts.ModeBounded), "bounded or cross_sectional")
	factorsCmd.Flags().StringVar(&peersFlag, "peers", "", "comma separated peer ids for cross_sectional")

	diagnoseCmd.Flags().IntVar(&lookbackDays, "lookback", 0, "calendar days of history (default one year)")

	riskCmd.Flags().StringVar(&weightsFlag, "weights", "", "portfolio as ID=WEIGHT,ID=WEIGHT")
	riskCmd.Flags().IntVar(&windowDays, "window", 0, "history window in calendar days (default from config)")
	riskCmd.Flags().StringVar(&benchmarkFlag, "benchmark", "", "benchmark id; enables CAPM")
	riskCmd.Flags().BoolVar(&mcFlag, "mc", false, "run the Monte Carlo simulation")
	riskCmd.Flags().IntVar(&mcSimulations, "simulations", 0, "Monte Carlo paths (default from config)")
	riskCmd.Flags().IntVar(&mcHorizon, "horizon", 0, "Monte Carlo horizon in trading days (default from config)")
	riskCmd.Flags().Int64Var(&mcSeed, "seed", 0, "Monte Carlo seed; reproducible when set")
	riskCmd.Flags().BoolVar(&frontierFlag, "frontier", false, "compute the efficient frontier")
	riskCmd.Flags().IntVar(&frontierPoints, "points", 0, "frontier points (default from config)")
	riskCmd.Flags().Float64Var(&riskFreeFlag, "risk-free", 0, "annual risk-free rate (default from config)")
	_ = riskCmd.MarkFlagRequired("weights")
}

// withEngine builds the runtime, runs fn and prints its result
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) (interface{}, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out, err := fn(ctx, rt)
	if err != nil {
		if kind, ok := contracts.KindOf(err); ok {
			rt.log.WithError(err).WithField("kind", string(kind)).Warn("Analytics request rejected")
		}
		return err
	}
	return printJSON(out)
}

func runIndicators(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	return withEngine(cmd, func(ctx context.Context, rt *runtime) (interface{}, error) {
		return rt.engine.ComputeIndicators(ctx, engine.IndicatorRequest{
			SecurityID:   args[0],
			AsOf:         asOf,
			LookbackDays: lookbackDays,
			Indicators:   splitList(onlyFlag),
		})
	})
}

func runFactors(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	return withEngine(cmd, func(ctx context.Context, rt *runtime) (interface{}, error) {
		benchmark := benchmarkFlag
		if benchmark == "" {
			benchmark = rt.cfg.Analytics.DefaultBenchmark
		}
		return rt.engine.ComputeFactors(ctx, engine.FactorRequest{
			SecurityID:  args[0],
			AsOf:        asOf,
			Universe:    universeFlag,
			BenchmarkID: benchmark,
			Mode:        contracts.NormalizationMode(modeFlag),
			PeerIDs:     splitList(peersFlag),
		})
	})
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	return withEngine(cmd, func(ctx context.Context, rt *runtime) (interface{}, error) {
		return rt.engine.Diagnose(ctx, engine.DiagnosisRequest{
			SecurityID:   args[0],
			AsOf:         asOf,
			LookbackDays: lookbackDays,
		})
	})
}

func runRisk(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	weights, err := parseWeights(weightsFlag)
	if err != nil {
		return err
	}

	req := engine.RiskRequest{
		Weights:           weights,
		AsOf:              asOf,
		HistoryWindowDays: windowDays,
		BenchmarkID:       benchmarkFlag,
	}
	if mcFlag {
		mc := &risk.MonteCarloConfig{Simulations: mcSimulations, HorizonDays: mcHorizon}
		if cmd.Flags().Changed("seed") {
			seed := mcSeed
			mc.Seed = &seed
		}
		req.MonteCarlo = mc
	}
	if frontierFlag {
		req.Frontier = &engine.FrontierParams{Points: frontierPoints}
	}
	if cmd.Flags().Changed("risk-free") {
		rf := riskFreeFlag
		req.RiskFreeRate = &rf
	}

	return withEngine(cmd, func(ctx context.Context, rt *runtime) (interface{}, error) {
		report, err := rt.engine.ComputePortfolioRisk(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("portfolio risk: %w", err)
		}
		return report, nil
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
