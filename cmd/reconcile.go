package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/reconcile"
	"github.com/sells-group/underwrite/internal/render"
	"github.com/sells-group/underwrite/internal/rollup"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Show or save the value reconciliation for a project",
}

// -- reconcile show --

var reconcileShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show the reconciliation against the latest indications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}
		projectID, err := rollup.ParseProjectID(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg, "reconcile")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out, err := reconcileService(st, cfg).Get(ctx, projectID)
		if err != nil {
			return eris.Wrap(err, "reconcile show")
		}
		return render.Reconciliation(cmd.OutOrStdout(), out, format)
	},
}

// -- reconcile save --

var reconcileSaveCmd = &cobra.Command{
	Use:   "save <project-id>",
	Short: "Save weights, narrative and an optional override",
	Long: "Weights are percentages and should total 100. A save with an off-total weight sum " +
		"is stored and flagged. Without --override or --clear-override the stored override is kept.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}
		projectID, err := rollup.ParseProjectID(args[0])
		if err != nil {
			return err
		}
		req, err := saveRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg, "reconcile")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out, err := reconcileService(st, cfg).Save(ctx, projectID, req)
		if err != nil {
			return eris.Wrap(err, "reconcile save")
		}
		return render.Reconciliation(cmd.OutOrStdout(), out, format)
	},
}

func formatFlag(cmd *cobra.Command) (render.Format, error) {
	raw, _ := cmd.Flags().GetString("format")
	return render.ParseFormat(raw)
}

func saveRequestFromFlags(cmd *cobra.Command) (reconcile.SaveRequest, error) {
	flags := cmd.Flags()
	sales, _ := flags.GetFloat64("sales-weight")
	cost, _ := flags.GetFloat64("cost-weight")
	income, _ := flags.GetFloat64("income-weight")

	weights, err := reconcile.WeightsFromPercent(sales, cost, income)
	if err != nil {
		return reconcile.SaveRequest{}, err
	}

	narrative, _ := flags.GetString("narrative")
	clearOverride, _ := flags.GetBool("clear-override")
	req := reconcile.SaveRequest{
		Weights:       weights,
		Narrative:     narrative,
		ClearOverride: clearOverride,
	}

	if flags.Changed("override") {
		if clearOverride {
			return reconcile.SaveRequest{}, apperr.Validation("--override and --clear-override are mutually exclusive")
		}
		v, _ := flags.GetFloat64("override")
		req.Override = &v
	}

	if raw, _ := flags.GetString("effective-date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return reconcile.SaveRequest{}, apperr.Validation("--effective-date %q must be YYYY-MM-DD", raw)
		}
		req.EffectiveDate = &d
	}
	return req, nil
}

func addSaveFlags(c *cobra.Command) {
	f := c.Flags()
	f.Float64("sales-weight", 0, "sales comparison weight in percent")
	f.Float64("cost-weight", 0, "cost approach weight in percent")
	f.Float64("income-weight", 0, "income approach weight in percent")
	f.String("narrative", "", "reconciliation narrative")
	f.String("effective-date", "", "effective date of value (YYYY-MM-DD)")
	f.Float64("override", 0, "final value override")
	f.Bool("clear-override", false, "drop a stored override")
}

func init() {
	for _, c := range []*cobra.Command{reconcileShowCmd, reconcileSaveCmd} {
		c.Flags().StringP("format", "f", "table", "output format: table, markdown, json or yaml")
	}

	addSaveFlags(reconcileSaveCmd)

	reconcileCmd.AddCommand(reconcileShowCmd, reconcileSaveCmd)
	rootCmd.AddCommand(reconcileCmd)
}
