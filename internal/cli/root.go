package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	"trade-journal/internal/config"
	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
	"trade-journal/internal/metrics"
	"trade-journal/internal/performance"
	"trade-journal/internal/security"
	"trade-journal/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies. The store, journal and worker
// pool are opened on first use so config commands work without a database.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.TradeRepository
	Journal *journal.Service
	Pool    *performance.WorkerPool
	Audit   *security.AuditLogger

	// Now is the clock used for date filters and new trades.
	Now func() time.Time

	loggerFromConfig bool
}

// NewApp creates an App. A nil cfg is loaded from --config when a command runs,
// and the logger is then rebuilt from the loaded logging section.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config:           cfg,
		Logger:           logger,
		Now:              time.Now,
		loggerFromConfig: cfg == nil,
	}
}

// Close releases the store, the audit log and the worker pool.
func (a *App) Close() error {
	if a.Audit != nil {
		a.Audit.Close()
		a.Audit = nil
	}
	if a.Pool != nil {
		a.Pool.Stop()
		a.Pool = nil
	}
	if a.Store != nil {
		err := a.Store.Close()
		a.Store = nil
		a.Journal = nil
		return err
	}
	return nil
}

// OpenJournal opens the SQLite store and builds the journal service.
func (a *App) OpenJournal() (*journal.Service, error) {
	if a.Journal != nil {
		return a.Journal, nil
	}

	dataStore, err := store.NewSQLiteStore(a.Config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}
	a.Store = dataStore
	a.Logger.Debug().Str("path", a.Config.Storage.Path).Msg("SQLite store initialized")

	if a.Config.Security.Audit {
		audit, err := security.NewAuditLogger(a.Config.AuditConfig())
		if err != nil {
			dataStore.Close()
			a.Store = nil
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		a.Audit = audit
	}

	a.Pool = performance.NewWorkerPool(a.Config.Analytics.Workers)
	a.Pool.Start()

	a.Journal = journal.NewService(dataStore, a.Logger, journal.Options{
		Pool:              a.Pool,
		ParallelThreshold: a.Config.Analytics.ParallelThreshold,
		PageSize:          a.Config.Analytics.PageSize,
		TopSymbols:        a.Config.Analytics.TopSymbols,
		Access:            security.NewAccessController(a.Config.Security.ReadOnly, a.Audit),
		Audit:             a.Audit,
	})
	if a.Config.Security.ReadOnly {
		a.Logger.Info().Msg("Journal opened read-only")
	}
	return a.Journal, nil
}

// output creates an Output honoring the UI config.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil {
		if a.Config.UI.Currency != "" {
			out.currency = a.Config.UI.Currency
		}
		if !a.Config.UI.ColorEnabled {
			out.colorEnabled = false
		}
	}
	return out
}

func (a *App) dateFormat() string {
	if a.Config != nil && a.Config.UI.DateFormat != "" {
		return a.Config.UI.DateFormat
	}
	return "02-Jan-2006 15:04"
}

// dateFilter parses a --filter value, falling back to
// analytics.default_date_filter when the flag is empty.
func (a *App) dateFilter(flag string) (analytics.DateFilter, error) {
	if flag == "" {
		if a.Config == nil {
			return analytics.AllTime, nil
		}
		return a.Config.DateFilter(), nil
	}
	return journal.ParseDateFilter(flag)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Trade journal - record trades and analyze performance",
		Long: `Trade journal records closed trades and analyzes them.

It computes P&L, win rates, equity curves, monthly results, strategy and
symbol breakdowns, streaks and risk statistics, from the terminal or over HTTP.

Use 'journal trade seed' to load sample trades.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "journal database file (overrides storage.path)")
	rootCmd.PersistentFlags().Bool("read-only", false, "block add, delete, import and seed")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addTradeCommands(rootCmd, app)
	addStatsCommands(rootCmd, app)
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func (a *App) setup(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.Config = cfg
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		a.Config.Storage.Path = db
	}

	if readOnly, _ := cmd.Flags().GetBool("read-only"); readOnly {
		a.Config.Security.ReadOnly = true
	}

	if a.loggerFromConfig {
		a.Logger = logging.NewLoggerWithConfig(a.Config.LogConfig())
		a.loggerFromConfig = false
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}

	metrics.Init()
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trade Journal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the journal configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			path := config.Path(app.Config.Dir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Storage")
	output.Printf("  Database:        %s\n", cfg.Storage.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
	output.Println()

	output.Bold("Analytics")
	output.Printf("  Date Filter:     %s\n", cfg.Analytics.DefaultDateFilter)
	output.Printf("  Top Symbols:     %d\n", cfg.Analytics.TopSymbols)
	output.Printf("  Workers:         %d\n", cfg.Analytics.Workers)
	output.Printf("  Parallel Above:  %d trades\n", cfg.Analytics.ParallelThreshold)
	output.Printf("  Page Size:       %d\n", cfg.Analytics.PageSize)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Rate Limit:      %.0f req/s (burst %d)\n", cfg.Server.RateLimit, cfg.Server.Burst)
	output.Printf("  Timeouts:        read %s, write %s\n", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	output.Println()

	output.Bold("UI")
	output.Printf("  Colors:          %v\n", cfg.UI.ColorEnabled)
	output.Printf("  Date Format:     %s\n", cfg.UI.DateFormat)
	output.Printf("  Currency:        %s\n", cfg.UI.Currency)
	output.Println()

	output.Bold("Security")
	output.Printf("  Read Only:       %v\n", cfg.Security.ReadOnly)
	output.Printf("  Audit:           %v (%s)\n", cfg.Security.Audit, cfg.Security.AuditDir)
}
