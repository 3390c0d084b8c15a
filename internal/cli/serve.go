package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trade-journal/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over HTTP",
		Long: `Serve the journal API.

Routes:
  GET    /health
  GET    /metrics
  GET    /api/v1/trades             ?offset= &limit= or ?filter=30d
                                     (analytics.default_date_filter when neither is given)
  POST   /api/v1/trades
  GET    /api/v1/trades/:id
  DELETE /api/v1/trades/:id
  GET    /api/v1/analytics/{summary,equity,monthly,groups,symbols,streaks,risk,distribution,report}
         ?timeframe= &strategy= &period= &by= &limit= &symbol=`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.OpenJournal()
			if err != nil {
				return err
			}

			cfg := app.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(svc, cfg, app.Logger, api.WithPool(app.Pool), api.WithClock(app.Now),
				api.WithDefaultFilter(app.Config.DateFilter()))
			app.output(cmd).Info("Listening on http://%s", cfg.Addr)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
