package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwrite/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "underwrite",
	Short: "Phase-level financial rollups and value reconciliation for land projects",
	Long: "Builds per-phase revenue, cost and profit statements for a land development project " +
		"and reconciles its sales comparison, cost and income indications into a final value.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
