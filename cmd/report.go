package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/underwrite/internal/render"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report <project-id>",
	Short: "Print the phase-level financial rollup for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := render.ParseFormat(reportFormat)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg, "report")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := reportService(st, cfg).Generate(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "report")
		}
		return render.Report(cmd.OutOrStdout(), report, format)
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "output format: table, markdown, json or yaml")
	rootCmd.AddCommand(reportCmd)
}
