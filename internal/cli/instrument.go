package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kabuka-watcher/internal/models"
)

func newInstrumentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instrument",
		Aliases: []string{"stock"},
		Short:   "Manage tracked instruments",
		Long:    "Register, list and remove the instruments whose quote pages are crawled.",
	}

	cmd.AddCommand(newInstrumentAddCmd(app))
	cmd.AddCommand(newInstrumentListCmd(app))
	cmd.AddCommand(newInstrumentShowCmd(app))
	cmd.AddCommand(newInstrumentRemoveCmd(app))

	return cmd
}

func newInstrumentAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <code> <name> <url>",
		Short: "Register an instrument",
		Example: `  kabuka instrument add 7203 Toyota https://example.com/quote/7203`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			code, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid code %q: %w", args[0], err)
			}

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			inst, err := ds.CreateInstrument(cmd.Context(), code, args[1], args[2])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(inst)
			}
			output.Success("✓ Registered %s (%d) as instrument %d", inst.Name, inst.Code, inst.ID)
			return nil
		},
	}
}

func newInstrumentListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List instruments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			instruments, err := ds.ListInstruments(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if instruments == nil {
					instruments = []models.Instrument{}
				}
				return output.JSON(instruments)
			}
			if len(instruments) == 0 {
				output.Dim("No instruments registered")
				return nil
			}

			table := NewTable(output, "ID", "CODE", "NAME", "URL")
			for _, inst := range instruments {
				table.AddRow(
					strconv.FormatInt(inst.ID, 10),
					strconv.FormatInt(inst.Code, 10),
					TruncateString(inst.Name, 24),
					inst.URL,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newInstrumentShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an instrument and its alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			inst, err := ds.GetInstrumentByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			alerts, err := ds.GetAlertsByInstrumentCode(cmd.Context(), inst.Code)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if alerts == nil {
					alerts = []models.AlertRule{}
				}
				return output.JSON(map[string]interface{}{
					"stock":         inst,
					"amount_alerts": alerts,
				})
			}

			output.Bold("%s (%d)", inst.Name, inst.Code)
			output.Printf("  ID:       %d\n", inst.ID)
			output.Printf("  URL:      %s\n", inst.URL)
			output.Printf("  Added:    %s\n", FormatDateTime(inst.CreatedAt))
			output.Println()

			if len(alerts) == 0 {
				output.Dim("No alerts")
				return nil
			}
			renderAlerts(output, alerts)
			return nil
		},
	}
}

func newInstrumentRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an instrument and its alerts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			if err := ds.DeleteInstrument(cmd.Context(), id); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": id})
			}
			output.Success("✓ Removed instrument %d", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
