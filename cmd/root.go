package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cecilia-mis/trends-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trends-cli",
	Short: "Keyword trend collection and opportunity scoring",
	Long:  "Collects keyword search-interest metrics, scores them on the four LEWD axes (large, early, who_pays, desperate), persists the scored set, and prints a ranked preview.",
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
