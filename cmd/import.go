package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwrite/internal/ingest"
	"github.com/sells-group/underwrite/internal/rollup"
)

var (
	importFile  string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load project inputs from files",
}

var importParcelsCmd = &cobra.Command{
	Use:   "parcels <project-id>",
	Short: "Import parcels from an XLSX or CSV sheet",
	Long: "Reads a sheet whose header row names phase_id, type_code, gross_acres, units_total, " +
		"lot_width, sale_period and product_code. A blank phase_id leaves the parcel unassigned.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		projectID, err := rollup.ParseProjectID(args[0])
		if err != nil {
			return err
		}

		parcels, err := ingest.ReadParcels(importFile, ingest.Options{SheetName: importSheet})
		if err != nil {
			return err
		}
		if len(parcels) == 0 {
			return eris.Errorf("import: no parcels found in %s", importFile)
		}

		st, err := openStore(ctx, cfg, "import")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.ImportParcels(ctx, projectID, parcels)
		if err != nil {
			return eris.Wrap(err, "import parcels")
		}

		zap.L().Info("import complete",
			zap.Int64("project_id", projectID),
			zap.Int64("parcels", n),
			zap.String("file", importFile),
		)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d parcels into project %d\n", n, projectID)
		return nil
	},
}

func init() {
	importParcelsCmd.Flags().StringVar(&importFile, "file", "", "path to .xlsx or .csv file (required)")
	importParcelsCmd.Flags().StringVar(&importSheet, "sheet", "", "worksheet name (default first sheet)")
	_ = importParcelsCmd.MarkFlagRequired("file")

	importCmd.AddCommand(importParcelsCmd)
	rootCmd.AddCommand(importCmd)
}
