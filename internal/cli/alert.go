package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kabuka-watcher/internal/models"
)

func newAlertCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alert",
		Aliases: []string{"alerts"},
		Short:   "Manage price alerts",
		Long: `Manage price alerts.

An "up" alert fires when the quote is strictly above its amount, a "down"
alert when the quote is strictly below it.`,
	}

	cmd.AddCommand(newAlertAddCmd(app))
	cmd.AddCommand(newAlertListCmd(app))
	cmd.AddCommand(newAlertSetCmd(app))
	cmd.AddCommand(newAlertRemoveCmd(app))

	return cmd
}

func parseAlertArgs(dirArg, amountArg string) (models.Direction, int64, error) {
	direction, ok := models.ParseDirection(dirArg)
	if !ok {
		return "", 0, fmt.Errorf("invalid direction %q (must be up or down)", dirArg)
	}
	amount, err := strconv.ParseInt(amountArg, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid amount %q: %w", amountArg, err)
	}
	return direction, amount, nil
}

func newAlertAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "add <instrument-id> <up|down> <amount>",
		Short:   "Add an alert to an instrument",
		Example: `  kabuka alert add 1 up 2000`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			instrumentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			direction, amount, err := parseAlertArgs(args[1], args[2])
			if err != nil {
				return err
			}

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			alert, err := ds.CreateAlert(cmd.Context(), instrumentID, direction, amount)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(alert)
			}
			output.Success("✓ Alert %d: %d %s %s", alert.ID, alert.InstrumentCode, alert.Direction, FormatYen(alert.Amount))
			return nil
		},
	}
}

func newAlertListCmd(app *App) *cobra.Command {
	var instrumentID int64

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List alerts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			var alerts []models.AlertRule
			if instrumentID > 0 {
				inst, err := ds.GetInstrumentByID(cmd.Context(), instrumentID)
				if err != nil {
					return err
				}
				alerts, err = ds.GetAlertsByInstrumentCode(cmd.Context(), inst.Code)
				if err != nil {
					return err
				}
			} else {
				alerts, err = ds.ListAlerts(cmd.Context())
				if err != nil {
					return err
				}
			}

			if output.IsJSON() {
				if alerts == nil {
					alerts = []models.AlertRule{}
				}
				return output.JSON(alerts)
			}
			if len(alerts) == 0 {
				output.Dim("No alerts")
				return nil
			}
			renderAlerts(output, alerts)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&instrumentID, "instrument", "i", 0, "only alerts of this instrument id")
	return cmd
}

func newAlertSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <alert-id> <up|down> <amount>",
		Short: "Change the direction and amount of an alert",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			direction, amount, err := parseAlertArgs(args[1], args[2])
			if err != nil {
				return err
			}

			ds, err := app.openStore()
			if err != nil {
				return err
			}
			defer ds.Close()

			alert, err := ds.UpdateAlert(cmd.Context(), id, direction, amount)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(alert)
			}
			output.Success("✓ Alert %d: %d %s %s", alert.ID, alert.InstrumentCode, alert.Direction, FormatYen(alert.Amount))
			return nil
		},
	}
}

func newAlertRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <alert-id>",
		Aliases: []string{"remove"},
		Short:   "Remove an alert",
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

			if err := ds.DeleteAlert(cmd.Context(), id); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": id})
			}
			output.Success("✓ Removed alert %d", id)
			return nil
		},
	}
}

func renderAlerts(output *Output, alerts []models.AlertRule) {
	table := NewTable(output, "ID", "CODE", "MODE", "AMOUNT")
	for _, a := range alerts {
		table.AddRow(
			strconv.FormatInt(a.ID, 10),
			strconv.FormatInt(a.InstrumentCode, 10),
			output.DirectionTag(a.Direction),
			FormatYen(a.Amount),
		)
	}
	table.Render()
}
