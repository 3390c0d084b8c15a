package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
	"trade-journal/internal/security"
)

const commandTimeout = 30 * time.Second

// addTradeCommands adds trade management commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record and manage trades",
		Long:  "Add, list, inspect, delete, import and export journal trades.",
	}

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeDeleteCmd(app))
	cmd.AddCommand(newTradeImportCmd(app))
	cmd.AddCommand(newTradeExportCmd(app))
	cmd.AddCommand(newTradeSeedCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradeAddCmd(app *App) *cobra.Command {
	form := journal.NewTradeForm()

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a closed trade",
		Long: `Record a closed trade.

Symbol, entry, exit, quantity, stop loss and take profit are required.
Fees are a percentage of notional per leg; leverage must be at least 1.`,
		Example: `  journal trade add --symbol BTC/USDT --entry 42000 --exit 43500 --qty 0.1 --stop 41000 --target 44000
  journal trade add --symbol ETH/USDT --side Short --entry 2200 --exit 2150 --qty 1 \
      --stop 2250 --target 2100 --strategy "Price Action" --timeframe 4h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := commandContext(cmd, commandTimeout)
			defer cancel()

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			trade, err := form.Build(app.Now())
			if err != nil {
				svc.RecordRejected(ctx, err)
				output.Error("%v", validationText(err))
				return err
			}

			saved, err := svc.AddTrade(ctx, trade)
			if err != nil {
				output.Error("Failed to save trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(saved.Detail())
			}
			output.Success("✓ Trade recorded: %s", saved.ID)
			printTradeDetail(output, saved, app.dateFormat())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Symbol, "symbol", "", "trading pair, e.g. BTC/USDT (required)")
	f.StringVar(&form.Side, "side", form.Side, "Long or Short")
	f.StringVar(&form.EntryPrice, "entry", "", "entry price (required)")
	f.StringVar(&form.ExitPrice, "exit", "", "exit price (required)")
	f.StringVar(&form.Quantity, "qty", "", "quantity (required)")
	f.StringVar(&form.StopLoss, "stop", "", "stop loss price (required)")
	f.StringVar(&form.TakeProfit, "target", "", "take profit price (required)")
	f.StringVar(&form.Fees, "fees", form.Fees, "fee rate in percent per leg")
	f.StringVar(&form.Leverage, "leverage", form.Leverage, "leverage multiplier")
	f.StringVar(&form.TimeFrame, "timeframe", "", "chart time frame (1m 5m 15m 30m 1h 4h 1d 1w)")
	f.StringVar(&form.Strategy, "strategy", "", "strategy name")
	f.StringVar(&form.Confidence, "confidence", "", "Low, Medium or High")
	f.StringVar(&form.SetupQuality, "setup", "", "Poor, Good or Excellent")
	f.StringVar(&form.MarketCondition, "market", "", "Bearish, Neutral or Bullish")
	f.StringVar(&form.Emotions, "emotions", "", "how you felt during the trade")
	f.StringVar(&form.Notes, "notes", "", "free-form notes")
	f.StringVar(&form.Date, "date", "", "trade date, e.g. 2024-06-01 or 2024-06-01 09:30 (default: now)")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	var (
		filter string
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades, newest first",
		Long: `List trades, newest first.

Without --filter, analytics.default_date_filter applies unless it is All Time
or --offset/--limit are given.`,
		Example: `  journal trade list
  journal trade list --filter 30d
  journal trade list --offset 50 --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := commandContext(cmd, commandTimeout)
			defer cancel()

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			var (
				trades []models.Trade
				page   *journal.Page
			)
			df, err := app.dateFilter(filter)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			paging := cmd.Flags().Changed("offset") || cmd.Flags().Changed("limit")
			if filter != "" || (df != analytics.AllTime && !paging) {
				trades, err = svc.Trades(ctx, df, app.Now())
				if err != nil {
					return err
				}
			} else {
				p, err := svc.TradesPage(ctx, offset, limit)
				if err != nil {
					return err
				}
				page = &p
				trades = p.Trades
			}

			if output.IsJSON() {
				if page != nil {
					return output.JSON(map[string]interface{}{
						"trades":   models.Details(page.Trades),
						"offset":   page.Offset,
						"limit":    page.Limit,
						"total":    page.Total,
						"has_more": page.HasMore,
					})
				}
				return output.JSON(models.Details(trades))
			}

			if len(trades) == 0 {
				output.Info("No trades recorded.")
				output.Dim("Tip: add one with 'journal trade add' or load samples with 'journal trade seed'.")
				return nil
			}

			printTradeTable(output, trades, app.dateFormat())
			output.Println()
			if page != nil {
				output.Dim("Showing %d-%d of %d", page.Offset+1, page.Offset+len(page.Trades), page.Total)
				if page.HasMore {
					output.Dim("More: journal trade list --offset %d", page.Offset+len(page.Trades))
				}
			} else {
				output.Dim("%d trades (%s)", len(trades), df)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "date filter (7d, 30d, 3m, 6m, 1y, all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of trades to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default from config)")

	return cmd
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade with its derived metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := commandContext(cmd, commandTimeout)
			defer cancel()

			id, err := parseTradeID(args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			trade, err := svc.Trade(ctx, id)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade.Detail())
			}
			printTradeDetail(output, trade, app.dateFormat())
			return nil
		},
	}
}

func newTradeDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <trade-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a trade",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := commandContext(cmd, commandTimeout)
			defer cancel()

			id, err := parseTradeID(args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			if err := svc.DeleteTrade(ctx, id); err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": id.String()})
			}
			output.Success("✓ Trade %s deleted", id)
			return nil
		},
	}
}

func newTradeImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import trades from CSV",
		Long: `Import trades from a CSV file with a header row.

Columns: id, date, symbol, side, entry_price, exit_price, quantity, stop_loss,
take_profit, fees, leverage, timeframe, strategy, confidence, setup_quality,
market_condition, emotions, notes. Only the price, quantity and symbol columns
are required. Rows with an existing id replace that trade.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := commandContext(cmd, 5*commandTimeout)
			defer cancel()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			trades, err := journal.ImportCSV(f, app.Now())
			if err != nil {
				svc.RecordRejected(ctx, err)
				output.Error("Import failed: %v", validationText(err))
				return err
			}

			saved, err := svc.AddTrades(ctx, trades)
			if err != nil {
				output.Error("Import stopped after %d trades: %v", saved, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{"imported": saved})
			}
			output.Success("✓ Imported %d trades from %s", saved, args[0])
			return nil
		},
	}
}

func newTradeExportCmd(app *App) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Export trades to CSV",
		Long:  "Export trades to a CSV file, or to stdout when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd, commandTimeout)
			defer cancel()

			df, err := app.dateFilter(filter)
			if err != nil {
				return err
			}

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			trades, err := svc.Trades(ctx, df, app.Now())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating %s: %w", args[0], err)
				}
				defer f.Close()
				w = f
			}

			if err := journal.ExportCSV(w, trades); err != nil {
				return fmt.Errorf("exporting trades: %w", err)
			}

			if len(args) == 1 {
				app.output(cmd).Success("✓ Exported %d trades to %s", len(trades), args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "date filter (7d, 30d, 3m, 6m, 1y, all)")
	return cmd
}

func newTradeSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample trades into an empty journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := commandContext(cmd, commandTimeout)
			defer cancel()

			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			seeded, err := svc.SeedSampleData(ctx, app.Now())
			if err != nil {
				output.Error("Seeding failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"seeded": seeded})
			}
			if seeded {
				output.Success("✓ Sample trades added")
			} else {
				output.Warning("Journal already has trades, nothing seeded")
			}
			return nil
		},
	}
}

func parseTradeID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("id", s, "invalid trade id")
	}
	return id, nil
}

// validationText prefers the user-facing message of a validation error.
func validationText(err error) string {
	var rowErr *errors.RowError
	var ve *errors.ValidationError
	switch {
	case errors.As(err, &rowErr) && errors.As(rowErr.Err, &ve):
		return fmt.Sprintf("row %d: %s", rowErr.Row, ve.Message)
	case errors.As(err, &ve):
		return ve.Message
	default:
		return err.Error()
	}
}

func printTradeTable(output *Output, trades []models.Trade, layout string) {
	table := NewTable(output, "Date", "Symbol", "Side", "Qty", "Entry", "Exit", "P&L", "R:R", "Strategy", "ID")
	for _, t := range trades {
		table.AddRow(
			t.Date.Format(layout),
			t.Symbol,
			string(t.Side),
			FormatQuantity(t.Quantity),
			FormatPrice(t.EntryPrice),
			FormatPrice(t.ExitPrice),
			output.FormatPnL(t.ProfitLoss()),
			FormatRiskReward(t.RiskRewardRatio()),
			TruncateString(t.Strategy, 18),
			t.ID.String()[:8],
		)
	}
	table.Render()
}

func printTradeDetail(output *Output, t models.Trade, layout string) {
	result := output.Red("LOSS")
	if t.IsWin() {
		result = output.Green("WIN")
	}

	lines := []string{
		fmt.Sprintf("ID:          %s", t.ID),
		fmt.Sprintf("Date:        %s", t.Date.Format(layout)),
		fmt.Sprintf("Side:        %s  %sx  %s", t.Side, FormatQuantity(t.Leverage), t.TimeFrame),
		fmt.Sprintf("Entry/Exit:  %s → %s  (qty %s)", FormatPrice(t.EntryPrice), FormatPrice(t.ExitPrice), FormatQuantity(t.Quantity)),
		fmt.Sprintf("Stop/Target: %s / %s", FormatPrice(t.StopLoss), FormatPrice(t.TakeProfit)),
		"",
		fmt.Sprintf("P&L:         %s  %s", output.FormatPnL(t.ProfitLoss()), result),
		fmt.Sprintf("Fees:        %s (%s%%)", output.Money(t.TotalFees()), FormatQuantity(t.FeeRate)),
		fmt.Sprintf("Risk:        %s", output.Money(t.RiskAmount())),
		fmt.Sprintf("Reward:      %s", output.Money(t.RewardAmount())),
		fmt.Sprintf("R:R:         %s", FormatRiskReward(t.RiskRewardRatio())),
		"",
		fmt.Sprintf("Setup:       %s, %s confidence, %s market", t.SetupQuality, t.Confidence, t.MarketCondition),
	}
	if t.Strategy != "" {
		lines = append(lines, fmt.Sprintf("Strategy:    %s", t.Strategy))
	}
	if t.Emotions != "" {
		lines = append(lines, fmt.Sprintf("Emotions:    %s", t.Emotions))
	}
	if t.Notes != "" {
		lines = append(lines, fmt.Sprintf("Notes:       %s", t.Notes))
	}

	output.Box(t.Symbol, lines)
}

// loadTrades returns the trades matching q.
// commandContext bounds a command and tags its mutations as coming from the CLI.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	return security.WithSource(ctx, "cli"), cancel
}

func loadTrades(ctx context.Context, app *App, q analytics.Query) ([]models.Trade, error) {
	svc, err := app.OpenJournal()
	if err != nil {
		return nil, err
	}
	trades, err := svc.AllTrades(ctx)
	if err != nil {
		return nil, err
	}
	return q.Apply(trades, app.Now()), nil
}
