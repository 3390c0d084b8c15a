package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
)

// queryFlags are the filters shared by every stats command.
type queryFlags struct {
	timeframe string
	strategy  string
	period    string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.timeframe, "timeframe", "", "only trades on this time frame (1m 5m 15m 30m 1h 4h 1d 1w)")
	cmd.PersistentFlags().StringVar(&f.strategy, "strategy", "", "only trades with this strategy (All for every strategy)")
	cmd.PersistentFlags().StringVar(&f.period, "period", "", "Week, Month, Quarter, Year or all")
}

func (f *queryFlags) query() (analytics.Query, error) {
	return journal.ParseQuery(f.timeframe, f.strategy, f.period)
}

// addStatsCommands adds analytics commands.
func addStatsCommands(rootCmd *cobra.Command, app *App) {
	qf := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Analyze journal performance",
		Long: `Analyze journal performance.

Every subcommand accepts --timeframe, --strategy and --period to narrow the
trades analyzed.`,
	}
	qf.register(cmd)

	cmd.AddCommand(newStatsSummaryCmd(app, qf))
	cmd.AddCommand(newStatsEquityCmd(app, qf))
	cmd.AddCommand(newStatsMonthlyCmd(app, qf))
	cmd.AddCommand(newStatsGroupsCmd(app, qf))
	cmd.AddCommand(newStatsSymbolsCmd(app, qf))
	cmd.AddCommand(newStatsStreaksCmd(app, qf))
	cmd.AddCommand(newStatsRiskCmd(app, qf))
	cmd.AddCommand(newStatsDistributionCmd(app, qf))
	cmd.AddCommand(newStatsReportCmd(app, qf))

	rootCmd.AddCommand(cmd)
}

// statsRun wraps a stats command body with query parsing and trade loading.
func statsRun(app *App, qf *queryFlags, fn func(ctx context.Context, output *Output, trades []models.Trade, q analytics.Query) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		output := app.output(cmd)
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		q, err := qf.query()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		trades, err := loadTrades(ctx, app, q)
		if err != nil {
			return err
		}
		return fn(ctx, output, trades, q)
	}
}

func newStatsSummaryCmd(app *App, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Portfolio summary",
		Args:  cobra.NoArgs,
		RunE: statsRun(app, qf, func(_ context.Context, output *Output, trades []models.Trade, _ analytics.Query) error {
			s := analytics.Summarize(trades)
			if output.IsJSON() {
				return output.JSON(s)
			}
			printSummary(output, s)
			return nil
		}),
	}
}

func printSummary(output *Output, s analytics.Summary) {
	output.Box("Portfolio Summary", []string{
		fmt.Sprintf("Total P&L:       %s", output.FormatPnL(s.TotalProfitLoss)),
		fmt.Sprintf("Trades:          %d (%d wins, %d losses)", s.TotalTrades, s.Wins, s.Losses),
		fmt.Sprintf("Win Rate:        %s", FormatRate(s.WinRate)),
		fmt.Sprintf("Profit Factor:   %.2f", s.ProfitFactor),
		fmt.Sprintf("Avg R:R:         %s", FormatRiskReward(s.AverageRiskReward)),
		fmt.Sprintf("Avg Trade:       %s", output.FormatPnL(s.AverageTrade)),
		fmt.Sprintf("Largest Win:     %s", output.FormatPnL(s.LargestWin)),
		fmt.Sprintf("Largest Loss:    %s", output.FormatPnL(s.LargestLoss)),
		fmt.Sprintf("Gross Profit:    %s", output.Money(s.GrossProfit)),
		fmt.Sprintf("Gross Loss:      %s", output.Money(s.GrossLoss)),
		fmt.Sprintf("Fees Paid:       %s", output.Money(s.TotalFees)),
	})
}

func newStatsEquityCmd(app *App, qf *queryFlags) *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Cumulative P&L curve",
		Args:  cobra.NoArgs,
		RunE: statsRun(app, qf, func(_ context.Context, output *Output, trades []models.Trade, _ analytics.Query) error {
			points := analytics.EquityCurve(trades)
			lo, hi := analytics.YAxisRange(points)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"points": points,
					"y_min":  lo,
					"y_max":  hi,
				})
			}
			if len(points) == 0 {
				output.Info("No trades to chart.")
				return nil
			}
			output.Printf("%s", RenderEquityASCII(points, width, height))
			last := points[len(points)-1]
			output.Printf("Final: %s on %s\n", output.FormatPnL(last.Total), last.Date.Format(app.dateFormat()))
			return nil
		}),
	}

	cmd.Flags().IntVar(&width, "width", 60, "chart width in columns")
	cmd.Flags().IntVar(&height, "height", 15, "chart height in rows")
	return cmd
}

// RenderEquityASCII draws the equity curve as a block chart. Points are
// sampled to fit width; the y axis uses the padded range from YAxisRange.
func RenderEquityASCII(points []analytics.EquityPoint, width, height int) string {
	if len(points) == 0 {
		return "No data to display\n"
	}
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}

	lo, hi := analytics.YAxisRange(points)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	cols := width
	if len(points) < cols {
		cols = len(points)
	}
	for x := 0; x < cols; x++ {
		idx := x * len(points) / cols
		if x == cols-1 {
			idx = len(points) - 1
		}
		y := int(math.Round((points[idx].Total - lo) / span * float64(height-1)))
		if y >= 0 && y < height {
			grid[height-1-y][x] = '█'
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Equity Curve (%.0f - %.0f)\n", lo, hi))
	sb.WriteString(strings.Repeat("─", width+2) + "\n")
	for _, row := range grid {
		sb.WriteRune('│')
		sb.WriteString(string(row))
		sb.WriteRune('│')
		sb.WriteRune('\n')
	}
	sb.WriteString(strings.Repeat("─", width+2) + "\n")
	return sb.String()
}

func newStatsMonthlyCmd(app *App, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "monthly",
		Short: "P&L per calendar month",
		Args:  cobra.NoArgs,
		RunE: statsRun(app, qf, func(_ context.Context, output *Output, trades []models.Trade, _ analytics.Query) error {
			buckets := analytics.MonthlyBuckets(trades)
			if output.IsJSON() {
				return output.JSON(buckets)
			}
			if len(buckets) == 0 {
				output.Info("No trades in range.")
				return nil
			}

			maxAbs := 0.0
			for _, b := range buckets {
				maxAbs = math.Max(maxAbs, math.Abs(b.ProfitLoss))
			}

			table := NewTable(output, "Month", "Trades", "P&L", "")
			for _, b := range buckets {
				table.AddRow(b.Label, fmt.Sprintf("%d", b.Trades), output.FormatPnL(b.ProfitLoss), bar(output, b.ProfitLoss, maxAbs, 20))
			}
			table.Render()
			return nil
		}),
	}
}

// bar renders a horizontal bar scaled to maxAbs, colored by sign.
func bar(output *Output, value, maxAbs float64, width int) string {
	if maxAbs == 0 {
		return ""
	}
	n := int(math.Round(math.Abs(value) / maxAbs * float64(width)))
	return output.ColoredString(output.PnLColor(value), strings.Repeat("█", n))
}

func newStatsGroupsCmd(app *App, qf *queryFlags) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Statistics per strategy, time frame or other dimension",
		Example: `  journal stats groups --by strategy
  journal stats groups --by timeframe --period Quarter`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			key, err := journal.ParseGroupKey(by)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			q, err := qf.query()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}
			groups, err := svc.Groups(ctx, key, q, app.Now())
			if err != nil {
				return err
			}
			if by == "" || by == "strategy" {
				groups = analytics.RankByWinRate(groups)
			}

			if output.IsJSON() {
				return output.JSON(groups)
			}
			printGroups(output, groups)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "strategy", "grouping: "+strings.Join(analytics.KeyNames(), ", "))
	return cmd
}

func printGroups(output *Output, groups []analytics.GroupStats) {
	if len(groups) == 0 {
		output.Info("No trades in range.")
		return
	}
	table := NewTable(output, "Group", "Trades", "Win Rate", "Avg P&L", "Total P&L", "Streak", "Best")
	for _, g := range groups {
		table.AddRow(
			g.Key,
			fmt.Sprintf("%d", g.Trades),
			FormatRate(g.WinRate),
			output.FormatPnL(g.AverageProfit),
			output.FormatPnL(g.TotalProfitLoss),
			fmt.Sprintf("%d", g.CurrentWinStreak),
			fmt.Sprintf("%d", g.MaxWinStreak),
		)
	}
	table.Render()
}

func newStatsSymbolsCmd(app *App, qf *queryFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "symbols [symbol]",
		Short: "Most traded symbols, or one symbol's statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				g, ok, err := svc.SymbolStat(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					output.Warning("No trades for %s", args[0])
					return nil
				}
				if output.IsJSON() {
					return output.JSON(g)
				}
				printGroups(output, []analytics.GroupStats{g})
				return nil
			}

			q, err := qf.query()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			var top []analytics.GroupStats
			if q == (analytics.Query{Period: analytics.PeriodAll}) {
				top, err = svc.TopSymbols(ctx, limit)
			} else {
				var trades []models.Trade
				trades, err = loadTrades(ctx, app, q)
				if limit <= 0 {
					limit = app.Config.Analytics.TopSymbols
				}
				top = analytics.TopSymbols(trades, limit)
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(top)
			}
			printGroups(output, top)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of symbols (default from config)")
	return cmd
}

func newStatsStreaksCmd(app *App, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "streaks",
		Short: "Current and longest win streaks",
		Args:  cobra.NoArgs,
		RunE: statsRun(app, qf, func(ctx context.Context, output *Output, trades []models.Trade, q analytics.Query) error {
			overall := analytics.WinStreaks(trades)

			var perSymbol []analytics.GroupStats
			if q == (analytics.Query{Period: analytics.PeriodAll}) {
				stats, err := app.Journal.SymbolStats(ctx)
				if err != nil {
					return err
				}
				// keep the per-symbol order stable across the cached map
				for _, g := range analytics.GroupBy(trades, analytics.BySymbol) {
					perSymbol = append(perSymbol, stats[g.Key])
				}
			} else {
				perSymbol = analytics.GroupBy(trades, analytics.BySymbol)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"overall": overall,
					"symbols": perSymbol,
				})
			}

			output.Bold("Win Streaks")
			output.Printf("  Current: %d\n", overall.Current)
			output.Printf("  Longest: %d\n", overall.Max)
			output.Println()

			if len(perSymbol) > 0 {
				table := NewTable(output, "Symbol", "Trades", "Current", "Longest")
				for _, g := range perSymbol {
					table.AddRow(g.Key, fmt.Sprintf("%d", g.Trades), fmt.Sprintf("%d", g.CurrentWinStreak), fmt.Sprintf("%d", g.MaxWinStreak))
				}
				table.Render()
			}
			return nil
		}),
	}
}

func newStatsRiskCmd(app *App, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "risk",
		Short: "Drawdown and risk statistics",
		Args:  cobra.NoArgs,
		RunE: statsRun(app, qf, func(_ context.Context, output *Output, trades []models.Trade, _ analytics.Query) error {
			r := analytics.AnalyzeRisk(trades)
			if output.IsJSON() {
				return output.JSON(r)
			}
			printRisk(output, r)
			return nil
		}),
	}
}

func printRisk(output *Output, r analytics.RiskSummary) {
	output.Box("Risk", []string{
		fmt.Sprintf("Max Drawdown:        %.2f%%", r.MaxDrawdown),
		fmt.Sprintf("Average Risk:        %s", output.Money(r.AverageRisk)),
		fmt.Sprintf("Average R:R:         %s", FormatRiskReward(r.AverageRiskReward)),
		fmt.Sprintf("Profitable w/ Risk:  %s", FormatRate(r.ProfitableRiskTradeRatio)),
	})

	if len(r.Distribution) == 0 {
		return
	}
	output.Println()
	output.Bold("Risk Distribution")
	maxCount := 0
	for _, b := range r.Distribution {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	table := NewTable(output, "Risk", "Trades", "")
	for _, b := range r.Distribution {
		table.AddRow(output.Money(b.Bucket), fmt.Sprintf("%d", b.Count), bar(output, float64(b.Count), float64(maxCount), 20))
	}
	table.Render()
}

func newStatsDistributionCmd(app *App, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "distribution",
		Short: "Trades per profit band",
		Args:  cobra.NoArgs,
		RunE: statsRun(app, qf, func(_ context.Context, output *Output, trades []models.Trade, _ analytics.Query) error {
			bands := analytics.ProfitDistribution(trades)
			if output.IsJSON() {
				return output.JSON(bands)
			}
			printDistribution(output, bands)
			return nil
		}),
	}
}

func printDistribution(output *Output, bands []analytics.BandCount) {
	if len(bands) == 0 {
		output.Info("No trades in range.")
		return
	}
	table := NewTable(output, "Band", "Trades", "Share", "")
	for _, b := range bands {
		sign := 1.0
		if b.Band == analytics.BandSmallLoss || b.Band == analytics.BandLargeLoss {
			sign = -1
		}
		table.AddRow(string(b.Band), fmt.Sprintf("%d", b.Count), FormatRate(b.Percentage), bar(output, sign*b.Percentage, 100, 25))
	}
	table.Render()
}

func newStatsReportCmd(app *App, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Full analytics report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			q, err := qf.query()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}
			report, err := svc.Report(ctx, q, app.Now())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Bold("Trade Journal Report - %s", report.GeneratedAt.Format(app.dateFormat()))
			output.Println()
			printSummary(output, report.Summary)
			output.Println()

			if len(report.Equity) > 0 {
				output.Printf("%s", RenderEquityASCII(report.Equity, 60, 10))
				output.Println()
			}

			output.Bold("Strategies")
			printGroups(output, report.Strategies)
			output.Println()

			output.Bold("Time Frames")
			printGroups(output, report.TimeFrames)
			output.Println()

			output.Bold("Top Symbols")
			printGroups(output, report.Symbols)
			output.Println()

			output.Printf("Win streak: %d current, %d longest\n", report.Streaks.Current, report.Streaks.Max)
			output.Println()

			printRisk(output, report.Risk)
			output.Println()

			output.Bold("Profit Distribution")
			printDistribution(output, report.Distribution)
			return nil
		},
	}
}
