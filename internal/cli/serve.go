package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kabuka-watcher/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long: `Serve instruments, alerts and on-demand crawls over HTTP.

Routes:
  GET    /stocks
  POST   /stocks
  GET    /stocks/:id
  DELETE /stocks/:id
  POST   /stocks/:id/crawling
  GET    /stocks/:id/amount_alerts
  POST   /stocks/:id/amount_alerts
  DELETE /amount_alerts/:id
  GET    /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			crawler, err := app.newCrawler(ds)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			srv := api.NewServer(api.Config{
				Addr:         addr,
				ReadTimeout:  app.Config.Server.ReadTimeout,
				WriteTimeout: app.Config.Server.WriteTimeout,
				CrawlTimeout: app.Config.Crawl.Timeout,
			}, ds, crawler, app.Logger)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}
