// Package cli provides the command-line interface for the quote watcher.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kabuka-watcher/internal/config"
	"kabuka-watcher/internal/crawl"
	"kabuka-watcher/internal/fetch"
	"kabuka-watcher/internal/logging"
	"kabuka-watcher/internal/scrape"
	"kabuka-watcher/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// skipSetup marks commands that run without loading configuration.
const skipSetup = "skip-setup"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI. Configuration is loaded
// from --config before any subcommand runs.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{Logger: logger}

	rootCmd := &cobra.Command{
		Use:   "kabuka",
		Short: "Kabuka Watcher - stock price alerts from quote pages",
		Long: `Kabuka Watcher tracks instruments by the web page that shows their price.

A crawl fetches the page, reads the price from the element matching the
configured selector and reports every "up" or "down" alert whose threshold
has been crossed.

Use 'kabuka serve' to expose the same operations over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/kabuka-watcher)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newInstrumentCmd(app))
	rootCmd.AddCommand(newAlertCmd(app))
	rootCmd.AddCommand(newCrawlCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func (app *App) setup(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	app.Config = cfg
	app.Logger = logging.NewLoggerWithConfig(cfg.Logging())

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}

	app.Logger.Debug().Str("config_dir", cfg.Dir).Str("db", cfg.Database.Path).Msg("Configuration loaded")
	return nil
}

// openStore opens the SQLite store named in the configuration. Callers close it.
func (app *App) openStore() (*store.SQLiteStore, error) {
	ds, err := store.NewSQLiteStore(app.Config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return ds, nil
}

// newCrawler builds a crawler from the [crawl] configuration.
func (app *App) newCrawler(repo crawl.Repository) (*crawl.Crawler, error) {
	cc := app.Config.Crawl

	extractor, err := scrape.NewExtractor(scrape.ExtractorConfig{
		Selector:       cc.Selector,
		CurrencyToken:  cc.CurrencyToken,
		GroupSeparator: cc.GroupSeparator,
	})
	if err != nil {
		return nil, err
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.UserAgent = cc.UserAgent
	fetchCfg.RequireHTTPS = cc.RequireHTTPS
	fetchCfg.MaxBodyBytes = cc.MaxBodyBytes
	fetcher := fetch.NewFetcher(fetch.NewHTTPClient(cc.Timeout), fetchCfg, app.Logger)

	return crawl.New(repo, fetcher, extractor, app.Logger.With().Str("component", "crawl").Logger()), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Kabuka Watcher v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Dir})
			}
			output.Println(app.Config.Dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
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
	output.Bold("Database")
	output.Printf("  Path:            %s\n", cfg.Database.Path)
	output.Println()

	output.Bold("Crawl")
	output.Printf("  Selector:        %s\n", cfg.Crawl.Selector)
	output.Printf("  Currency:        %s\n", cfg.Crawl.CurrencyToken)
	output.Printf("  Separator:       %q\n", cfg.Crawl.GroupSeparator)
	output.Printf("  Timeout:         %s\n", cfg.Crawl.Timeout)
	output.Printf("  User-Agent:      %s\n", cfg.Crawl.UserAgent)
	output.Printf("  Require HTTPS:   %v\n", cfg.Crawl.RequireHTTPS)
	output.Printf("  Max Body:        %d bytes\n", cfg.Crawl.MaxBodyBytes)
	output.Printf("  Concurrency:     %d\n", cfg.Crawl.Concurrency)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Read Timeout:    %s\n", cfg.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", cfg.Server.WriteTimeout)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  File:            %s\n", cfg.Log.FilePath)
}
