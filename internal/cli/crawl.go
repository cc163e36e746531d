package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kabuka-watcher/internal/crawl"
	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/models"
	"kabuka-watcher/pkg/utils"
)

type crawlReport struct {
	InstrumentID int64                   `json:"instrument_id"`
	Name         string                  `json:"name,omitempty"`
	Quote        *int64                  `json:"current_amount,omitempty"`
	Triggered    []models.TriggeredAlert `json:"crawling_responses"`
	Error        string                  `json:"error,omitempty"`
}

func newCrawlCmd(app *App) *cobra.Command {
	var (
		all         bool
		retries     int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "crawl [instrument-id...]",
		Short: "Fetch quote pages and report triggered alerts",
		Long: `Fetch the quote page of each instrument, read the current price and
report the alerts whose thresholds are crossed.

Failures of one instrument do not stop the others. The command exits
non-zero when any crawl failed.`,
		Example: `  kabuka crawl 1
  kabuka crawl --all --concurrency 8 --retries 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if !all && len(args) == 0 {
				return fmt.Errorf("specify instrument ids or --all")
			}

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			ids := make([]int64, 0, len(args))
			if all {
				instruments, err := ds.ListInstruments(ctx)
				if err != nil {
					return err
				}
				for _, inst := range instruments {
					ids = append(ids, inst.ID)
				}
			} else {
				for _, arg := range args {
					id, err := parseID(arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				output.Dim("Nothing to crawl")
				return nil
			}

			crawler, err := app.newCrawler(ds)
			if err != nil {
				return err
			}

			if concurrency <= 0 {
				concurrency = app.Config.Crawl.Concurrency
			}
			outcomes := crawler.CrawlMany(ctx, ids, concurrency, app.Config.Crawl.Timeout)
			if retries > 0 {
				retryUpstream(ctx, app, crawler, outcomes, retries)
			}

			failed := 0
			reports := make([]crawlReport, 0, len(outcomes))
			for _, o := range outcomes {
				report := crawlReport{InstrumentID: o.InstrumentID, Triggered: []models.TriggeredAlert{}}
				if o.Err != nil {
					failed++
					report.Error = o.Err.Error()
				} else {
					quote := o.Crawl.Quote
					report.Name = o.Crawl.Instrument.Name
					report.Quote = &quote
					if o.Crawl.Triggered != nil {
						report.Triggered = o.Crawl.Triggered
					}
				}
				reports = append(reports, report)
			}

			if output.IsJSON() {
				if err := output.JSON(reports); err != nil {
					return err
				}
			} else {
				renderCrawls(output, outcomes)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d crawls failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "crawl every registered instrument")
	cmd.Flags().IntVarP(&retries, "retries", "r", 0, "extra attempts for crawls that failed upstream")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "crawls in flight (default: crawl.concurrency)")

	return cmd
}

// retryUpstream re-runs crawls that failed on fetch or extraction. Missing
// instruments and store failures are left as they are.
func retryUpstream(ctx context.Context, app *App, crawler *crawl.Crawler, outcomes []crawl.Outcome, retries int) {
	cfg := utils.DefaultRetryConfig()
	cfg.MaxAttempts = retries
	cfg.Retryable = func(err error) bool {
		return apperrors.IsCrawlKind(err, apperrors.CrawlUpstream)
	}

	for i, o := range outcomes {
		if !apperrors.IsCrawlKind(o.Err, apperrors.CrawlUpstream) {
			continue
		}
		app.Logger.Info().Int64("instrument_id", o.InstrumentID).Int("retries", retries).Msg("Retrying crawl")

		res, err := utils.RetryWithResult(ctx, cfg, func() (*models.Crawl, error) {
			crawlCtx, cancel := context.WithTimeout(ctx, app.Config.Crawl.Timeout)
			defer cancel()
			return crawler.Crawl(crawlCtx, o.InstrumentID)
		})
		outcomes[i] = crawl.Outcome{InstrumentID: o.InstrumentID, Crawl: res, Err: err}
	}
}

func renderCrawls(output *Output, outcomes []crawl.Outcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			output.Error("✗ instrument %d: %v", o.InstrumentID, o.Err)
			continue
		}

		res := o.Crawl
		output.Printf("%s (%d)  %s  %s\n",
			res.Instrument.Name, res.Instrument.Code, FormatYen(res.Quote), output.DimText(FormatDuration(res.Duration)))

		if len(res.Triggered) == 0 {
			output.Dim("  no alerts triggered")
			continue
		}
		table := NewTable(output, "ALERT", "MODE", "THRESHOLD", "QUOTE")
		for _, t := range res.Triggered {
			table.AddRow(
				strconv.FormatInt(t.AlertID, 10),
				output.DirectionTag(t.Direction),
				FormatYen(t.AlertAmount),
				FormatYen(t.CurrentAmount),
			)
		}
		table.Render()
	}
}
